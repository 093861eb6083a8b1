// Package signals supplies the optional document signals consumed by the
// risk scorer. Real face-match and blur detection are out of scope; the
// scorer only ever sees the values these providers return.
package signals

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Provider yields optional signals for a customer. A nil result means the
// signal is unavailable.
type Provider interface {
	FaceMatch(ctx context.Context, customerID string) (*int, error)
	DocumentBlurry(ctx context.Context, customerID string) (*bool, error)
}

// None reports every signal as absent.
type None struct{}

func (None) FaceMatch(context.Context, string) (*int, error)       { return nil, nil }
func (None) DocumentBlurry(context.Context, string) (*bool, error) { return nil, nil }

// Static returns fixed values. Nil fields are reported as absent.
type Static struct {
	Face   *int
	Blurry *bool
}

func (s Static) FaceMatch(context.Context, string) (*int, error)       { return s.Face, nil }
func (s Static) DocumentBlurry(context.Context, string) (*bool, error) { return s.Blurry, nil }

// Simulated draws bounded pseudo-random signals for demos: face match in
// [60,99] and a 5% chance of a blurry document.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

const (
	simFaceMin       = 60
	simFaceMax       = 99
	simBlurryPercent = 5
)

// NewSimulated uses rng as the only source of randomness.
func NewSimulated(rng *rand.Rand) *Simulated {
	return &Simulated{rng: rng}
}

func (s *Simulated) FaceMatch(ctx context.Context, _ string) (*int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	v := simFaceMin + s.rng.IntN(simFaceMax-simFaceMin+1)
	s.mu.Unlock()
	return &v, nil
}

func (s *Simulated) DocumentBlurry(ctx context.Context, _ string) (*bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	v := s.rng.IntN(100) < simBlurryPercent
	s.mu.Unlock()
	return &v, nil
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
