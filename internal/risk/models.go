package risk

import (
	"neokyc/internal/identity"
	"neokyc/pkg/domain"
)

// Level buckets a risk score.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Segment is the customer's marketing/credit segment.
type Segment string

const (
	SegmentStandard   Segment = "Standard"
	SegmentHighRisk   Segment = "High Risk"
	SegmentHighIncome Segment = "High Income"
	SegmentReturning  Segment = "Returning Customer"
	SegmentPrime      Segment = "Low Risk / Prime"
)

// Subject holds the decrypted attributes of the customer being scored.
type Subject struct {
	FullName      string
	CNIC          string
	Email         string
	Phone         string
	Address       string
	IncomeBracket domain.IncomeBracket
}

// Input is everything the scorer consumes. Signals are optional: nil means
// the signal was not available and the rule does not fire.
type Input struct {
	Subject  Subject
	Existing []identity.Record

	FaceMatchScore *int
	DocumentBlurry *bool

	// ReturningCustomer is an explicit signal from the caller that this person
	// has a prior relationship.
	ReturningCustomer bool
}

// Profile is the result of scoring. Reasons are in detection order.
type Profile struct {
	RiskScore      int
	TrustScore     int
	Level          Level
	Segment        Segment
	Reasons        []string
	Returning      bool
	DuplicateFound bool
	Findings       []identity.Finding
}

// NoRiskFactors reports whether scoring recorded no reasons at all.
func (p Profile) NoRiskFactors() bool {
	return len(p.Reasons) == 0
}

// LevelFor buckets a risk score: High above 70, Medium from 30, else Low.
func LevelFor(riskScore int) Level {
	switch {
	case riskScore > 70:
		return LevelHigh
	case riskScore >= 30:
		return LevelMedium
	default:
		return LevelLow
	}
}
