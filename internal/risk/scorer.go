package risk

import (
	"time"

	"neokyc/internal/risk/metrics"
)

// Scorer wraps Score with metrics.
type Scorer struct {
	metrics *metrics.Metrics
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scorer) { s.metrics = m }
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score scores in and records the outcome.
func (s *Scorer) Score(in Input) Profile {
	p := Score(in)
	s.metrics.IncrementOutcome(string(p.Level), string(p.Segment))
	s.metrics.ObserveRiskScore(p.RiskScore)
	for _, f := range p.Findings {
		s.metrics.IncrementFinding(string(f.Severity))
	}
	return p
}

// ObserveSignal records how long a signal provider call took.
func (s *Scorer) ObserveSignal(signal string, d time.Duration) {
	s.metrics.ObserveSignalLatency(signal, d)
}
