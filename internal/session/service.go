package session

import (
	"context"
	"errors"
	"log/slog"

	"neokyc/internal/audit"
	"neokyc/internal/otp"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/middleware/auth"
	"neokyc/pkg/requestcontext"
)

// OTPCache issues and checks one-time codes.
type OTPCache interface {
	Issue(ctx context.Context, subject string) (string, error)
	Verify(ctx context.Context, subject, code string) error
}

// AuditPublisher records login events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the admin two-factor login: a code is sent first, then the
// code plus the password buys a token.
type Service struct {
	credentials *Credentials
	otp         OTPCache
	tokens      *TokenService
	auditor     AuditPublisher
	logger      *slog.Logger
	devMode     bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

// WithDevMode returns issued codes to the caller in place of delivery.
func WithDevMode(enabled bool) Option {
	return func(s *Service) {
		s.devMode = enabled
	}
}

func NewService(credentials *Credentials, cache OTPCache, tokens *TokenService, opts ...Option) *Service {
	s := &Service{
		credentials: credentials,
		otp:         cache,
		tokens:      tokens,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendResult reports how a code was dispatched.
type SendResult struct {
	Status    string
	Method    string
	DebugCode string
}

// SendCode issues a code for a known admin. Codes are only written to the
// debug log; dev mode also hands the code back in the result.
func (s *Service) SendCode(ctx context.Context, username string) (*SendResult, error) {
	if !s.credentials.Known(username) {
		return nil, dErrors.New(dErrors.CodeNotFound, "admin not found")
	}
	code, err := s.otp.Issue(ctx, s.credentials.Username())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue code")
	}
	s.logAudit(ctx, audit.ActionOTPIssued, s.credentials.Username())

	s.logger.DebugContext(ctx, "2fa code issued", "username", s.credentials.Username(), "code", code)
	if s.devMode {
		return &SendResult{Status: "sent", Method: "dev", DebugCode: code}, nil
	}
	return &SendResult{Status: "sent", Method: "log"}, nil
}

// Login verifies the code and password and returns an admin token.
func (s *Service) Login(ctx context.Context, username, password, code string) (*Token, error) {
	if !s.credentials.Known(username) {
		s.logAudit(ctx, audit.ActionAdminLoginFailed, username)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "incorrect username or password")
	}
	if err := s.otp.Verify(ctx, s.credentials.Username(), code); err != nil {
		s.logAudit(ctx, audit.ActionAdminLoginFailed, s.credentials.Username())
		switch {
		case errors.Is(err, otp.ErrExpired):
			return nil, dErrors.New(dErrors.CodeUnauthorized, "verification code expired")
		case errors.Is(err, otp.ErrMismatch), errors.Is(err, otp.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid verification code")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify code")
		}
	}
	if !s.credentials.Check(username, password) {
		s.logAudit(ctx, audit.ActionAdminLoginFailed, s.credentials.Username())
		return nil, dErrors.New(dErrors.CodeUnauthorized, "incorrect username or password")
	}

	token, err := s.tokens.Issue(s.credentials.Username(), RoleAdmin)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	s.logAudit(ctx, audit.ActionAdminLogin, s.credentials.Username())
	return token, nil
}

// Validate resolves a bearer token to its claims.
func (s *Service) Validate(token string) (*Claims, error) {
	return s.tokens.Validate(token)
}

// ValidateToken satisfies auth.TokenValidator for the admin routes.
func (s *Service) ValidateToken(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{Subject: claims.Subject, Role: claims.Role}, nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, actor string) {
	s.logger.InfoContext(ctx, string(action),
		"request_id", requestcontext.RequestID(ctx),
		"event", string(action),
		"actor", actor,
		"log_type", "audit",
	)
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, audit.Event{Action: action, Actor: actor})
}
