package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for risk scoring.
type Metrics struct {
	// Scoring outcomes by level and segment
	Outcomes *prometheus.CounterVec

	// Distribution of final risk scores
	RiskScore prometheus.Histogram

	// Identity findings by severity
	Findings *prometheus.CounterVec

	// Signal provider latencies by signal
	SignalLatency *prometheus.HistogramVec
}

// New registers the risk metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the risk metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neokyc_risk_outcomes_total",
			Help: "Total risk scoring outcomes by level and segment",
		}, []string{"level", "segment"}),

		RiskScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "neokyc_risk_score",
			Help:    "Distribution of clamped risk scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neokyc_identity_findings_total",
			Help: "Duplicate identity findings by severity",
		}, []string{"severity"}),

		SignalLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "neokyc_risk_signal_duration_seconds",
			Help:    "Duration of signal provider calls by signal",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"signal"}), // signal: "face_match", "document_blur"
	}
}

// IncrementOutcome records a scoring outcome.
func (m *Metrics) IncrementOutcome(level, segment string) {
	if m != nil {
		m.Outcomes.WithLabelValues(level, segment).Inc()
	}
}

// ObserveRiskScore records a final risk score.
func (m *Metrics) ObserveRiskScore(score int) {
	if m != nil {
		m.RiskScore.Observe(float64(score))
	}
}

// IncrementFinding records one identity finding.
func (m *Metrics) IncrementFinding(severity string) {
	if m != nil {
		m.Findings.WithLabelValues(severity).Inc()
	}
}

// ObserveSignalLatency records the duration of a signal provider call.
func (m *Metrics) ObserveSignalLatency(signal string, d time.Duration) {
	if m != nil {
		m.SignalLatency.WithLabelValues(signal).Observe(d.Seconds())
	}
}
