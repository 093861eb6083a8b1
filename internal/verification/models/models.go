package models

import (
	"strings"
	"time"

	"neokyc/internal/customer"
	"neokyc/internal/eligibility"
	"neokyc/internal/risk"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
)

// Status is the verification lifecycle state.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusVerified Status = "Verified"
	StatusRejected Status = "Rejected"
)

// ParseDecision accepts the two statuses an admin may set.
func ParseDecision(s string) (Status, error) {
	switch Status(strings.TrimSpace(s)) {
	case StatusVerified:
		return StatusVerified, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusPending:
		return "", dErrors.New(dErrors.CodeValidation, "a decision cannot return a verification to Pending")
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be Verified or Rejected")
	}
}

const (
	highRiskBanner     = "⚠️ HIGH RISK"
	initialRemarks     = "Initial Registration"
	highRiskRemarkOver = 70
)

// Verification is the single review record of a customer.
type Verification struct {
	ID         domain.VerificationID
	CustomerID domain.CustomerID
	Status     Status
	RiskScore  int
	TrustScore int
	RiskLevel  risk.Level
	Reasons    []string
	Remarks    string
	VerifiedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPending opens a review with the registration-time snapshot.
func NewPending(customerID domain.CustomerID, p risk.Profile, now time.Time) *Verification {
	return &Verification{
		ID:         domain.NewVerificationID(),
		CustomerID: customerID,
		Status:     StatusPending,
		RiskScore:  p.RiskScore,
		TrustScore: p.TrustScore,
		RiskLevel:  p.Level,
		Reasons:    append([]string(nil), p.Reasons...),
		Remarks:    RegistrationRemarks(p),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsPending reports whether the review is still open.
func (v *Verification) IsPending() bool {
	return v.Status == StatusPending
}

// Snapshot replaces the risk snapshot.
func (v *Verification) Snapshot(p risk.Profile, now time.Time) {
	v.RiskScore = p.RiskScore
	v.TrustScore = p.TrustScore
	v.RiskLevel = p.Level
	v.Reasons = append([]string(nil), p.Reasons...)
	v.UpdatedAt = now
}

// Decide records an admin decision. Decided records may be decided again in
// a new review cycle, but never moved back to Pending.
func (v *Verification) Decide(status Status, adminRemarks, actor string, p risk.Profile, now time.Time) error {
	if status != StatusVerified && status != StatusRejected {
		return dErrors.New(dErrors.CodeInvariantViolation, "decision must be Verified or Rejected")
	}
	v.Snapshot(p, now)
	v.Status = status
	v.Remarks = DecisionRemarks(adminRemarks, p.Reasons)
	v.VerifiedBy = actor
	return nil
}

// Profile rebuilds the stored snapshot as a profile for AcceptStoredScore.
func (v *Verification) Profile() risk.Profile {
	return risk.Profile{
		RiskScore:  v.RiskScore,
		TrustScore: v.TrustScore,
		Level:      risk.LevelFor(v.RiskScore),
		Reasons:    append([]string(nil), v.Reasons...),
	}
}

// RegistrationRemarks renders "AI Analysis: r1, r2" with a high-risk banner
// above 70, or "Initial Registration" when nothing was found.
func RegistrationRemarks(p risk.Profile) string {
	base := initialRemarks
	if len(p.Reasons) > 0 {
		base = "AI Analysis: " + strings.Join(p.Reasons, ", ")
	}
	if p.RiskScore > highRiskRemarkOver {
		base += " | " + highRiskBanner
	}
	return base
}

// DecisionRemarks renders "admin | Auto-Analysis: reasons".
func DecisionRemarks(adminRemarks string, reasons []string) string {
	adminRemarks = strings.TrimSpace(adminRemarks)
	if len(reasons) == 0 {
		return adminRemarks
	}
	auto := "Auto-Analysis: " + strings.Join(reasons, ", ")
	if adminRemarks == "" {
		return auto
	}
	return adminRemarks + " | " + auto
}

// CustomerStatus is the customer-facing view of an application.
type CustomerStatus struct {
	Customer     *customer.Customer
	Verification *Verification
	Eligibility  *eligibility.Record // latest, nil until verified
}
