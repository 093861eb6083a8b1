// Package otp issues and verifies short-lived one-time codes for admin 2FA.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"neokyc/pkg/platform/sentinel"
)

const (
	CodeLength = 6
	DefaultTTL = 5 * time.Minute
)

var (
	// ErrNotFound means no code was issued, it was already used, or the
	// backend evicted it after expiry.
	ErrNotFound = sentinel.ErrNotFound
	ErrExpired  = sentinel.ErrExpired
	ErrMismatch = errors.New("otp mismatch")
)

// Store holds at most one pending code per subject.
type Store interface {
	// Put replaces any pending code for subject.
	Put(ctx context.Context, subject, code string, ttl time.Duration) error
	// Take removes and returns the pending code for subject.
	Take(ctx context.Context, subject string) (string, error)
}

// Cache issues codes into a Store. Every Verify consumes the pending code,
// whatever the outcome, so a code can be tried exactly once.
type Cache struct {
	store Store
	ttl   time.Duration
}

func NewCache(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// TTL is the lifetime of issued codes.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Issue generates a fresh code for subject, replacing any pending one.
func (c *Cache) Issue(ctx context.Context, subject string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := c.store.Put(ctx, normalize(subject), code, c.ttl); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code against the pending code for subject.
func (c *Cache) Verify(ctx context.Context, subject, code string) error {
	stored, err := c.store.Take(ctx, normalize(subject))
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return ErrMismatch
	}
	return nil
}

func normalize(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

var codeSpace = big.NewInt(1_000_000)

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}
