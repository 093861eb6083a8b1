package httptransport

import (
	"strings"

	dErrors "neokyc/pkg/domain-errors"
)

// SendCodeRequest starts the admin login.
type SendCodeRequest struct {
	Username string `json:"username"`
}

func (r *SendCodeRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *SendCodeRequest) Validate() error {
	if r.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	return nil
}

// VerifyCodeRequest completes the admin login.
type VerifyCodeRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

func (r *VerifyCodeRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Code = strings.TrimSpace(r.Code)
}

func (r *VerifyCodeRequest) Validate() error {
	switch {
	case r.Username == "":
		return dErrors.New(dErrors.CodeValidation, "username is required")
	case r.Password == "":
		return dErrors.New(dErrors.CodeValidation, "password is required")
	case r.Code == "":
		return dErrors.New(dErrors.CodeValidation, "code is required")
	case len(r.Code) > 16:
		return dErrors.New(dErrors.CodeValidation, "code must be at most 16 characters")
	}
	return nil
}

// DecisionRequest is the admin review body.
type DecisionRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

func (r *DecisionRequest) Normalize() {
	r.Status = strings.TrimSpace(r.Status)
	r.Remarks = strings.TrimSpace(r.Remarks)
}

func (r *DecisionRequest) Validate() error {
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	if len(r.Remarks) > 1000 {
		return dErrors.New(dErrors.CodeValidation, "remarks must be at most 1000 characters")
	}
	return nil
}

// LoanDecisionRequest is the admin loan review body.
type LoanDecisionRequest struct {
	LoanID   string `json:"loan_id"`
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func (r *LoanDecisionRequest) Normalize() {
	r.LoanID = strings.TrimSpace(r.LoanID)
	r.Decision = strings.TrimSpace(r.Decision)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *LoanDecisionRequest) Validate() error {
	switch {
	case r.LoanID == "":
		return dErrors.New(dErrors.CodeValidation, "loan_id is required")
	case r.Decision != "Approved" && r.Decision != "Rejected":
		return dErrors.New(dErrors.CodeValidation, "decision must be Approved or Rejected")
	case len(r.Reason) > 1000:
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 1000 characters")
	}
	return nil
}
