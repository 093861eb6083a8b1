package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials holds the bootstrap admin account.
type Credentials struct {
	username     string
	passwordHash []byte
}

func NewCredentials(username, password string) (*Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("admin username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Credentials{username: username, passwordHash: hash}, nil
}

// Known reports whether username names the admin account.
func (c *Credentials) Known(username string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(c.username)) == 1
}

// Check verifies both username and password.
func (c *Credentials) Check(username, password string) bool {
	passwordOK := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password)) == nil
	return c.Known(username) && passwordOK
}

func (c *Credentials) Username() string {
	return c.username
}
