package customer

import (
	"time"

	"neokyc/internal/identity"
	"neokyc/internal/risk"
	"neokyc/pkg/domain"
)

// Customer is an onboarded applicant with decrypted attributes. Stores
// encrypt CNIC, email, phone and address before they leave the process.
type Customer struct {
	ID            domain.CustomerID
	Code          string
	FullName      string
	CNIC          domain.CNIC
	Email         string
	Phone         string
	Address       string
	IncomeBracket domain.IncomeBracket
	PasswordHash  []byte
	TrustScore    int
	Segment       risk.Segment
	// Returning is declared at registration and kept for every rescore.
	Returning bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IdentityRecord projects the customer for duplicate matching.
func (c *Customer) IdentityRecord() identity.Record {
	return identity.Record{
		ID:       c.ID.String(),
		FullName: c.FullName,
		CNIC:     c.CNIC.String(),
		Email:    c.Email,
		Phone:    c.Phone,
	}
}

// RiskSubject projects the customer for scoring.
func (c *Customer) RiskSubject() risk.Subject {
	return risk.Subject{
		FullName:      c.FullName,
		CNIC:          c.CNIC.String(),
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		IncomeBracket: c.IncomeBracket,
	}
}

// RegisteredBefore returns the customers listed ahead of id. customers must
// be in registration order, as ListPlaintext returns them. When id is not
// listed (a registration in progress) every customer counts as earlier.
func RegisteredBefore(customers []*Customer, id domain.CustomerID) []*Customer {
	for i, c := range customers {
		if c != nil && c.ID == id {
			return customers[:i]
		}
	}
	return customers
}

// IdentityRecords projects customers for matching, skipping exclude.
func IdentityRecords(customers []*Customer, exclude domain.CustomerID) []identity.Record {
	out := make([]identity.Record, 0, len(customers))
	for _, c := range customers {
		if c == nil || c.ID == exclude {
			continue
		}
		out = append(out, c.IdentityRecord())
	}
	return out
}
