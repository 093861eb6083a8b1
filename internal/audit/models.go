package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names an audited operation.
type Action string

const (
	ActionCustomerRegistered   Action = "customer_registered"
	ActionVerificationDecided  Action = "verification_decided"
	ActionVerificationRescored Action = "verification_rescored"
	ActionCustomerDeleted      Action = "customer_deleted"
	ActionLoanDecided          Action = "loan_decided"
	ActionOTPIssued            Action = "otp_issued"
	ActionAdminLogin           Action = "admin_login"
	ActionAdminLoginFailed     Action = "admin_login_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out. Detail never carries
// raw PII.
type Event struct {
	ID         uuid.UUID
	Action     Action
	Actor      string // admin username, or "system"/"customer"
	CustomerID string
	Detail     string
	RequestID  string
	Device     string
	ClientIP   string
	Timestamp  time.Time
}

// Store persists events and serves the admin audit view.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns at most limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives a copy of every event for downstream consumers.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
