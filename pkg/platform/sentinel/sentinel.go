package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors:
//   - ErrNotFound: record does not exist
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrExpired: OTP or session is past its lifetime
//   - ErrInvalidState: record in wrong state for the requested transition
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrExpired      = errors.New("expired")
	ErrInvalidState = errors.New("invalid state")
)
