package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow.
type Metrics struct {
	Registrations        *prometheus.CounterVec
	RegistrationDuration prometheus.Histogram
	Decisions            *prometheus.CounterVec
	LoanDecisions        *prometheus.CounterVec
	Rescored             prometheus.Counter
	CodeCollisions       prometheus.Counter
	Deletions            prometheus.Counter
	PendingQueue         prometheus.Gauge
}

// New registers the workflow metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neokyc_registrations_total",
			Help: "Registrations by initial risk level",
		}, []string{"level"}),
		RegistrationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "neokyc_registration_duration_seconds",
			Help:    "End-to-end registration latency",
			Buckets: prometheus.DefBuckets,
		}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neokyc_verification_decisions_total",
			Help: "Admin decisions by resulting status",
		}, []string{"status"}),
		LoanDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neokyc_loan_decisions_total",
			Help: "Admin loan decisions by resulting status",
		}, []string{"status"}),
		Rescored: f.NewCounter(prometheus.CounterOpts{
			Name: "neokyc_verification_rescored_total",
			Help: "Pending verifications whose snapshot was recomputed",
		}),
		CodeCollisions: f.NewCounter(prometheus.CounterOpts{
			Name: "neokyc_customer_code_collisions_total",
			Help: "Customer code generations rejected as duplicates",
		}),
		Deletions: f.NewCounter(prometheus.CounterOpts{
			Name: "neokyc_customer_deletions_total",
			Help: "Customers deleted by admins",
		}),
		PendingQueue: f.NewGauge(prometheus.GaugeOpts{
			Name: "neokyc_verification_pending",
			Help: "Verifications awaiting an admin decision at last listing",
		}),
	}
}

func (m *Metrics) IncrementRegistration(level string) {
	if m != nil {
		m.Registrations.WithLabelValues(level).Inc()
	}
}

func (m *Metrics) ObserveRegistration(start time.Time) {
	if m != nil {
		m.RegistrationDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementDecision(status string) {
	if m != nil {
		m.Decisions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementLoanDecision(status string) {
	if m != nil {
		m.LoanDecisions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementRescored() {
	if m != nil {
		m.Rescored.Inc()
	}
}

func (m *Metrics) IncrementCodeCollision() {
	if m != nil {
		m.CodeCollisions.Inc()
	}
}

func (m *Metrics) IncrementDeletion() {
	if m != nil {
		m.Deletions.Inc()
	}
}

func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.PendingQueue.Set(float64(n))
	}
}
