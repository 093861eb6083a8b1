// Package pii encrypts sensitive customer fields at rest.
//
// A Token is base64url(nonce || ciphertext || tag) using the padded URL-safe
// alphabet. Both supported AEADs use a 96-bit nonce and a 128-bit tag.
package pii

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the required master key length in bytes.
	KeySize = 32
	// Placeholder is shown instead of a field that failed to decrypt.
	Placeholder = "[ENCRYPTED]"

	nonceSize = 12
	tagSize   = 16
)

// ErrDecryption is returned for malformed, truncated or tampered tokens and
// for tokens sealed under a different key.
var ErrDecryption = errors.New("pii: decryption failed")

// Token is an encrypted field value.
type Token string

// Cipher seals and opens field values. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	alg  string
}

// Option configures a Cipher.
type Option func(*cipherConfig)

type cipherConfig struct {
	chacha bool
}

// WithChaCha20Poly1305 selects ChaCha20-Poly1305 instead of AES-256-GCM.
func WithChaCha20Poly1305() Option {
	return func(c *cipherConfig) { c.chacha = true }
}

// NewCipher builds a Cipher around a 32-byte key.
func NewCipher(key []byte, opts ...Option) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("pii: key must be %d bytes, got %d", KeySize, len(key))
	}
	cfg := cipherConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.chacha {
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, fmt.Errorf("pii: init chacha20poly1305: %w", err)
		}
		return &Cipher{aead: aead, alg: "chacha20poly1305"}, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("pii: init aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("pii: init gcm: %w", err)
	}
	return &Cipher{aead: aead, alg: "aes-256-gcm"}, nil
}

// Algorithm names the AEAD in use.
func (c *Cipher) Algorithm() string {
	return c.alg
}

// Encrypt seals plaintext under a fresh random nonce. Empty input yields an
// empty token so optional fields stay empty.
func (c *Cipher) Encrypt(plaintext string) (Token, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, nonceSize, nonceSize+len(plaintext)+tagSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("pii: generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Token(base64.URLEncoding.EncodeToString(sealed)), nil
}

// Decrypt opens a token produced by Encrypt under the same key.
func (c *Cipher) Decrypt(token Token) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.URLEncoding.DecodeString(string(token))
	if err != nil {
		return "", fmt.Errorf("%w: malformed encoding: %v", ErrDecryption, err)
	}
	if len(raw) < nonceSize+tagSize {
		return "", fmt.Errorf("%w: token too short", ErrDecryption)
	}
	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(plain), nil
}

// DecryptOrPlaceholder returns Placeholder when the token cannot be opened.
func (c *Cipher) DecryptOrPlaceholder(token Token) string {
	plain, err := c.Decrypt(token)
	if err != nil {
		return Placeholder
	}
	return plain
}
