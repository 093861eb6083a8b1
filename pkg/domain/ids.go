package domain

import (
	"github.com/google/uuid"

	dErrors "neokyc/pkg/domain-errors"
)

// Typed identifiers. Distinct named types keep a CustomerID from being passed
// where a VerificationID is expected.
type (
	CustomerID     uuid.UUID
	VerificationID uuid.UUID
	EligibilityID  uuid.UUID
)

func NewCustomerID() CustomerID         { return CustomerID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }
func NewEligibilityID() EligibilityID   { return EligibilityID(uuid.New()) }

func (id CustomerID) String() string     { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id EligibilityID) String() string  { return uuid.UUID(id).String() }

func (id CustomerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EligibilityID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// ParseCustomerID parses a customer identifier at a trust boundary.
//
// Errors: CodeInvalidInput for empty, malformed or nil UUIDs.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s, "customer ID")
	return CustomerID(u), err
}

// ParseVerificationID parses a verification identifier.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s, "verification ID")
	return VerificationID(u), err
}

// ParseEligibilityID parses a loan eligibility identifier.
func ParseEligibilityID(s string) (EligibilityID, error) {
	u, err := parseUUID(s, "eligibility ID")
	return EligibilityID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
