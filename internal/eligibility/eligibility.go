// Package eligibility suggests a loan ceiling from a risk score and income
// bracket. The result is advisory: every assessment starts Pending and an
// admin approves or rejects it.
package eligibility

import (
	"fmt"
	"strings"
	"time"

	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
)

// Currency of every suggested limit.
const Currency = "PKR"

// Status of a loan eligibility row.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// ParseLoanDecision accepts the two outcomes of a loan review.
func ParseLoanDecision(s string) (Status, error) {
	switch Status(strings.TrimSpace(s)) {
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "decision must be Approved or Rejected")
	}
}

const (
	fullLimitBelowRisk = 40
	halfLimitUpToRisk  = 70
)

var baseLimits = map[domain.IncomeBracket]int64{
	domain.IncomeBelow50k:   50_000,
	domain.Income50kTo100k:  100_000,
	domain.Income100kTo200k: 250_000,
	domain.IncomeAbove200k:  250_000,
}

// Result is the classifier output.
type Result struct {
	Status         Status
	SuggestedLimit int64
	Currency       string
}

// BaseLimit returns the income-based ceiling before risk adjustment.
// Unknown brackets get the lowest tier.
func BaseLimit(bracket domain.IncomeBracket) int64 {
	if limit, ok := baseLimits[bracket]; ok {
		return limit
	}
	return baseLimits[domain.IncomeBelow50k]
}

// Assess suggests the full base limit below risk 40, half of it up to and
// including 70, and nothing above.
func Assess(riskScore int, bracket domain.IncomeBracket) Result {
	base := BaseLimit(bracket)
	var limit int64
	switch {
	case riskScore < fullLimitBelowRisk:
		limit = base
	case riskScore <= halfLimitUpToRisk:
		limit = base / 2
	}
	return Result{Status: StatusPending, SuggestedLimit: limit, Currency: Currency}
}

// Record is one persisted assessment. A customer accumulates history.
type Record struct {
	ID             domain.EligibilityID
	CustomerID     domain.CustomerID
	RiskScore      int
	IncomeBracket  domain.IncomeBracket
	Status         Status
	SuggestedLimit int64
	Currency       string
	CalculatedAt   time.Time

	DecidedBy string
	Reason    string
	DecidedAt *time.Time
}

// IsPending reports whether the row still awaits a loan decision.
func (r *Record) IsPending() bool {
	return r.Status == StatusPending
}

// Decide moves a Pending row to Approved or Rejected. A decided row is final.
func (r *Record) Decide(status Status, reason, actor string, now time.Time) error {
	if status != StatusApproved && status != StatusRejected {
		return dErrors.New(dErrors.CodeInvariantViolation, "loan decision must be Approved or Rejected")
	}
	if !r.IsPending() {
		return fmt.Errorf("loan %s is %s: %w", r.ID, r.Status, sentinel.ErrInvalidState)
	}
	r.Status = status
	r.Reason = reason
	r.DecidedBy = actor
	r.DecidedAt = &now
	return nil
}

// NewRecord assesses and wraps the result for persistence.
func NewRecord(customerID domain.CustomerID, riskScore int, bracket domain.IncomeBracket, now time.Time) *Record {
	res := Assess(riskScore, bracket)
	return &Record{
		ID:             domain.NewEligibilityID(),
		CustomerID:     customerID,
		RiskScore:      riskScore,
		IncomeBracket:  bracket,
		Status:         res.Status,
		SuggestedLimit: res.SuggestedLimit,
		Currency:       res.Currency,
		CalculatedAt:   now,
	}
}
