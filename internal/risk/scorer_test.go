package risk

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"neokyc/internal/identity"
	"neokyc/internal/risk/metrics"
)

func TestScorerRecordsMetrics(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	scorer := NewScorer(WithMetrics(m))

	scorer.Score(Input{
		Subject:  Subject{FullName: "Ali", CNIC: "35202-1234567-1", Email: "ali@example.com", Phone: "03001234567", Address: "Street 1, Block B, Karachi"},
		Existing: []identity.Record{{ID: "x", FullName: "Zed", CNIC: "35202-1234567-1"}},
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.Outcomes.WithLabelValues("High", "High Risk")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Findings.WithLabelValues("CRITICAL")), 0)
}
