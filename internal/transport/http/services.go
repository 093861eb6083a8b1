package httptransport

//go:generate mockgen -source=services.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"neokyc/internal/audit"
	"neokyc/internal/eligibility"
	"neokyc/internal/risk"
	"neokyc/internal/session"
	"neokyc/internal/verification/models"
	"neokyc/internal/verification/service"
	"neokyc/pkg/domain"
)

// VerificationService is the workflow behind the KYC and admin routes.
type VerificationService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.RegisterResult, error)
	Get(ctx context.Context, customerID domain.CustomerID) (*models.CustomerStatus, error)
	ListPending(ctx context.Context) ([]service.PendingReview, error)
	Decide(ctx context.Context, req service.DecisionRequest) (*models.Verification, error)
	Rescore(ctx context.Context, customerID domain.CustomerID) (*risk.Profile, error)
	DeleteCustomer(ctx context.Context, customerID domain.CustomerID, actor string) error
	ListLoans(ctx context.Context) ([]service.LoanReview, error)
	DecideLoan(ctx context.Context, req service.LoanDecisionRequest) (*eligibility.Record, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

// SessionService runs the admin two-factor login.
type SessionService interface {
	SendCode(ctx context.Context, username string) (*session.SendResult, error)
	Login(ctx context.Context, username, password, code string) (*session.Token, error)
}

// AuditLog serves the admin audit view.
type AuditLog interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}
