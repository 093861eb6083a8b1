package httptransport

import (
	"strings"
	"time"

	"neokyc/internal/audit"
	"neokyc/internal/customer"
	"neokyc/internal/eligibility"
	"neokyc/internal/pii"
	"neokyc/internal/risk"
	"neokyc/internal/session"
	"neokyc/internal/verification/models"
	"neokyc/internal/verification/service"
)

type RegisterResponse struct {
	Status       string `json:"status"`
	CustomerID   string `json:"customer_id"`
	CustomerCode string `json:"customer_code"`
	Message      string `json:"message"`
}

func toRegisterResponse(res *service.RegisterResult) RegisterResponse {
	return RegisterResponse{
		Status:       "success",
		CustomerID:   res.CustomerID.String(),
		CustomerCode: res.CustomerCode,
		Message:      res.Message,
	}
}

// CustomerResponse is a customer as shown on the wire. Public views mask
// CNIC, email and phone; the admin queue shows them in full.
type CustomerResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"customer_code"`
	FullName      string    `json:"full_name"`
	CNIC          string    `json:"cnic"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address,omitempty"`
	IncomeBracket string    `json:"income_range"`
	TrustScore    int       `json:"trust_score"`
	Segment       string    `json:"segment"`
	CreatedAt     time.Time `json:"created_at"`
}

func toCustomerResponse(c *customer.Customer, masked bool) CustomerResponse {
	resp := CustomerResponse{
		ID:            c.ID.String(),
		Code:          c.Code,
		FullName:      c.FullName,
		CNIC:          c.CNIC.String(),
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		IncomeBracket: c.IncomeBracket.String(),
		TrustScore:    c.TrustScore,
		Segment:       string(c.Segment),
		CreatedAt:     c.CreatedAt,
	}
	if masked {
		resp.CNIC = maskTail(resp.CNIC, 4)
		resp.Email = maskEmail(resp.Email)
		resp.Phone = maskTail(resp.Phone, 3)
		resp.Address = ""
	}
	return resp
}

type VerificationResponse struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	RiskScore  int       `json:"risk_score"`
	TrustScore int       `json:"trust_score"`
	RiskLevel  string    `json:"risk_level"`
	Reasons    []string  `json:"reasons"`
	Remarks    string    `json:"remarks"`
	VerifiedBy string    `json:"verified_by,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toVerificationResponse(v *models.Verification) *VerificationResponse {
	if v == nil {
		return nil
	}
	reasons := v.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return &VerificationResponse{
		ID:         v.ID.String(),
		Status:     string(v.Status),
		RiskScore:  v.RiskScore,
		TrustScore: v.TrustScore,
		RiskLevel:  string(v.RiskLevel),
		Reasons:    reasons,
		Remarks:    v.Remarks,
		VerifiedBy: v.VerifiedBy,
		UpdatedAt:  v.UpdatedAt,
	}
}

type LoanResponse struct {
	Status         string    `json:"status"`
	SuggestedLimit int64     `json:"suggested_limit"`
	Currency       string    `json:"currency"`
	RiskScore      int       `json:"risk_score"`
	CalculatedAt   time.Time `json:"calculated_at"`
}

func toLoanResponse(r *eligibility.Record) *LoanResponse {
	if r == nil {
		return nil
	}
	return &LoanResponse{
		Status:         string(r.Status),
		SuggestedLimit: r.SuggestedLimit,
		Currency:       r.Currency,
		RiskScore:      r.RiskScore,
		CalculatedAt:   r.CalculatedAt,
	}
}

// LoanItem is one row of the admin loan queue.
type LoanItem struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customer_id"`
	FullName       string     `json:"full_name"`
	CNIC           string     `json:"cnic"`
	RiskScore      int        `json:"risk_score"`
	IncomeBracket  string     `json:"income_range"`
	Status         string     `json:"status"`
	SuggestedLimit int64      `json:"suggested_limit"`
	Currency       string     `json:"currency"`
	CalculatedAt   time.Time  `json:"calculated_at"`
	DecidedBy      string     `json:"decided_by,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
}

func toLoanItem(l service.LoanReview) LoanItem {
	r := l.Eligibility
	return LoanItem{
		ID:             r.ID.String(),
		CustomerID:     r.CustomerID.String(),
		FullName:       l.Customer.FullName,
		CNIC:           l.Customer.CNIC.String(),
		RiskScore:      r.RiskScore,
		IncomeBracket:  r.IncomeBracket.String(),
		Status:         string(r.Status),
		SuggestedLimit: r.SuggestedLimit,
		Currency:       r.Currency,
		CalculatedAt:   r.CalculatedAt,
		DecidedBy:      r.DecidedBy,
		Reason:         r.Reason,
		DecidedAt:      r.DecidedAt,
	}
}

type StatsResponse struct {
	TotalCustomers       int `json:"total_customers"`
	PendingVerifications int `json:"pending_verifications"`
	PendingLoans         int `json:"pending_loans"`
	ApprovedLoans        int `json:"approved_loans"`
	RejectedLoans        int `json:"rejected_loans"`
}

func toStatsResponse(st *service.Stats) StatsResponse {
	return StatsResponse{
		TotalCustomers:       st.TotalCustomers,
		PendingVerifications: st.PendingVerifications,
		PendingLoans:         st.PendingLoans,
		ApprovedLoans:        st.ApprovedLoans,
		RejectedLoans:        st.RejectedLoans,
	}
}

type CustomerStatusResponse struct {
	Customer     CustomerResponse      `json:"customer"`
	Verification *VerificationResponse `json:"verification"`
	Loan         *LoanResponse         `json:"loan"`
}

type PendingItem struct {
	Customer     CustomerResponse      `json:"customer"`
	Verification *VerificationResponse `json:"verification"`
}

type ProfileResponse struct {
	RiskScore  int      `json:"risk_score"`
	TrustScore int      `json:"trust_score"`
	RiskLevel  string   `json:"risk_level"`
	Segment    string   `json:"segment"`
	Reasons    []string `json:"reasons"`
}

func toProfileResponse(p *risk.Profile) ProfileResponse {
	reasons := p.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return ProfileResponse{
		RiskScore:  p.RiskScore,
		TrustScore: p.TrustScore,
		RiskLevel:  string(p.Level),
		Segment:    string(p.Segment),
		Reasons:    reasons,
	}
}

type AuditEventResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	CustomerID string    `json:"customer_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Device     string    `json:"device,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func toAuditEventResponse(e audit.Event) AuditEventResponse {
	return AuditEventResponse{
		ID:         e.ID.String(),
		Action:     string(e.Action),
		Actor:      e.Actor,
		CustomerID: e.CustomerID,
		Detail:     e.Detail,
		RequestID:  e.RequestID,
		Device:     e.Device,
		ClientIP:   e.ClientIP,
		Timestamp:  e.Timestamp,
	}
}

type SendCodeResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Method    string `json:"method"`
	DebugCode string `json:"debug_code,omitempty"`
}

func toSendCodeResponse(res *session.SendResult) SendCodeResponse {
	msg := "Verification code issued"
	if res.DebugCode != "" {
		msg = "Dev Mode: Use code " + res.DebugCode
	}
	return SendCodeResponse{
		Status:    res.Status,
		Message:   msg,
		Method:    res.Method,
		DebugCode: res.DebugCode,
	}
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Role        string    `json:"role"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toTokenResponse(t *session.Token) TokenResponse {
	return TokenResponse{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		Role:        t.Role,
		ExpiresAt:   t.ExpiresAt,
	}
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// maskTail keeps the last n characters of s.
func maskTail(s string, n int) string {
	if s == pii.Placeholder || len(s) <= n {
		return s
	}
	return strings.Repeat("*", len(s)-n) + s[len(s)-n:]
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(s string) string {
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return s
	}
	return s[:1] + strings.Repeat("*", at-1) + s[at:]
}
