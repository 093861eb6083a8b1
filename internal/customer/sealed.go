package customer

import (
	"fmt"

	"neokyc/internal/pii"
	"neokyc/pkg/domain"
)

// sealed is the at-rest form shared by the stores.
type sealed struct {
	cnic    pii.Token
	email   pii.Token
	phone   pii.Token
	address pii.Token
}

func seal(c *pii.Cipher, cust *Customer) (sealed, error) {
	var (
		s   sealed
		err error
	)
	if s.cnic, err = c.Encrypt(cust.CNIC.String()); err != nil {
		return sealed{}, fmt.Errorf("encrypt cnic: %w", err)
	}
	if s.email, err = c.Encrypt(cust.Email); err != nil {
		return sealed{}, fmt.Errorf("encrypt email: %w", err)
	}
	if s.phone, err = c.Encrypt(cust.Phone); err != nil {
		return sealed{}, fmt.Errorf("encrypt phone: %w", err)
	}
	if s.address, err = c.Encrypt(cust.Address); err != nil {
		return sealed{}, fmt.Errorf("encrypt address: %w", err)
	}
	return s, nil
}

// open decrypts into cust. With placeholder set, undecryptable fields show
// pii.Placeholder; otherwise they are left empty. The returned count is the
// number of fields that failed.
func (s sealed) open(c *pii.Cipher, cust *Customer, placeholder bool) int {
	failed := 0
	get := func(t pii.Token) string {
		v, err := c.Decrypt(t)
		if err != nil {
			failed++
			if placeholder {
				return pii.Placeholder
			}
			return ""
		}
		return v
	}
	cust.CNIC = domain.CNIC(get(s.cnic))
	cust.Email = get(s.email)
	cust.Phone = get(s.phone)
	cust.Address = get(s.address)
	return failed
}
