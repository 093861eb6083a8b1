package pii

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/crypto/hkdf"
)

// LoadOrCreateKey reads the master key at path. When the file does not exist
// a new random key is written with mode 0600. Creation is exclusive: if two
// processes race, the loser reads the winner's key.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := readKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("pii: generate key: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return readKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("pii: create key file: %w", err)
	}
	if _, err := f.Write(key); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("pii: write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("pii: close key file: %w", err)
	}
	return key, nil
}

func readKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("pii: read key file: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("pii: key file %s holds %d bytes, want %d", path, len(key), KeySize)
	}
	return key, nil
}

// DeriveKey derives a purpose-bound 32-byte sub-key from the master key with
// HKDF-SHA256. The same master and purpose always yield the same key.
func DeriveKey(master []byte, purpose string) ([]byte, error) {
	if len(master) != KeySize {
		return nil, fmt.Errorf("pii: master key must be %d bytes, got %d", KeySize, len(master))
	}
	if purpose == "" {
		return nil, errors.New("pii: purpose is required")
	}
	out := make([]byte, KeySize)
	r := hkdf.New(sha256.New, master, nil, []byte("neokyc/"+purpose))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("pii: derive key: %w", err)
	}
	return out, nil
}
