// Package service orchestrates customer registration, admin review and
// eligibility on top of the encrypted customer store.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"neokyc/internal/audit"
	"neokyc/internal/customer"
	"neokyc/internal/eligibility"
	"neokyc/internal/risk"
	"neokyc/internal/risk/signals"
	"neokyc/internal/verification/metrics"
	"neokyc/internal/verification/models"
	"neokyc/pkg/attrs"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/tx"
	"neokyc/pkg/requestcontext"
)

type CustomerStore interface {
	Create(ctx context.Context, c *customer.Customer) error
	FindByID(ctx context.Context, id domain.CustomerID) (*customer.Customer, error)
	ListPlaintext(ctx context.Context) ([]*customer.Customer, error)
	UpdateRisk(ctx context.Context, id domain.CustomerID, trustScore int, segment risk.Segment) error
	Delete(ctx context.Context, id domain.CustomerID) error
}

type VerificationStore interface {
	Create(ctx context.Context, v *models.Verification) error
	FindByCustomer(ctx context.Context, customerID domain.CustomerID) (*models.Verification, error)
	Update(ctx context.Context, v *models.Verification) error
	ListPending(ctx context.Context) ([]*models.Verification, error)
	DeleteByCustomer(ctx context.Context, customerID domain.CustomerID) error
}

type EligibilityStore interface {
	Append(ctx context.Context, r *eligibility.Record) error
	Latest(ctx context.Context, customerID domain.CustomerID) (*eligibility.Record, error)
	FindByID(ctx context.Context, id domain.EligibilityID) (*eligibility.Record, error)
	List(ctx context.Context) ([]eligibility.Record, error)
	SetStatus(ctx context.Context, r *eligibility.Record) error
	DeleteByCustomer(ctx context.Context, customerID domain.CustomerID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	maxCodeAttempts = 5
	systemActor     = "system"
	defaultActor    = "Admin"
)

// Service runs the verification workflow: Pending at registration, then
// Verified or Rejected by an admin.
type Service struct {
	customers     CustomerStore
	verifications VerificationStore
	eligibility   EligibilityStore

	tx          tx.Runner
	signals     signals.Provider
	scorer      *risk.Scorer
	validate    *validator.Validate
	bcryptCost  int
	acceptStore bool
	newCode     func() (string, error)

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner groups each operation's writes into one transaction.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

// WithSignals sets the face-match and document-blur provider.
func WithSignals(provider signals.Provider) Option {
	return func(s *Service) {
		s.signals = provider
	}
}

func WithScorer(scorer *risk.Scorer) Option {
	return func(s *Service) {
		s.scorer = scorer
	}
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithAcceptStoredScore makes decisions reuse the stored risk snapshot
// instead of scoring the customer again.
func WithAcceptStoredScore(enabled bool) Option {
	return func(s *Service) {
		s.acceptStore = enabled
	}
}

// WithCodeGenerator replaces customer.NewCode.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		s.newCode = gen
	}
}

// New constructs a Service.
func New(customers CustomerStore, verifications VerificationStore, elig EligibilityStore, opts ...Option) *Service {
	s := &Service{
		customers:     customers,
		verifications: verifications,
		eligibility:   elig,
		tx:            tx.NoopRunner{},
		signals:       signals.None{},
		scorer:        risk.NewScorer(),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		bcryptCost:    bcrypt.DefaultCost,
		newCode:       customer.NewCode,
		logger:        slog.Default(),
		tracer:        otel.Tracer("neokyc/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// score gathers the optional signals concurrently and scores c against the
// customers registered before it. A later registrant reusing c's identity
// is flagged on its own review, never on c's.
func (s *Service) score(ctx context.Context, c *customer.Customer, existing []*customer.Customer) risk.Profile {
	earlier := customer.RegisteredBefore(existing, c.ID)
	face, blurry := s.gatherSignals(ctx, c.ID)
	return s.scorer.Score(risk.Input{
		Subject:           c.RiskSubject(),
		Existing:          customer.IdentityRecords(earlier, c.ID),
		FaceMatchScore:    face,
		DocumentBlurry:    blurry,
		ReturningCustomer: c.Returning,
	})
}

// gatherSignals never fails: a provider error leaves that signal absent.
func (s *Service) gatherSignals(ctx context.Context, id domain.CustomerID) (*int, *bool) {
	var (
		face   *int
		blurry *bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		v, err := s.signals.FaceMatch(gctx, id.String())
		s.scorer.ObserveSignal("face_match", time.Since(start))
		if err != nil {
			s.logger.WarnContext(ctx, "face match signal unavailable",
				"customer_id", id.String(), "error", err)
			return nil
		}
		face = v
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		v, err := s.signals.DocumentBlurry(gctx, id.String())
		s.scorer.ObserveSignal("document_blur", time.Since(start))
		if err != nil {
			s.logger.WarnContext(ctx, "document blur signal unavailable",
				"customer_id", id.String(), "error", err)
			return nil
		}
		blurry = v
		return nil
	})
	_ = g.Wait()
	return face, blurry
}

func actorFrom(ctx context.Context) string {
	if actor := requestcontext.Actor(ctx); actor != "" {
		return actor
	}
	return defaultActor
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(action), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:     action,
		Actor:      attrs.String(attributes, "actor"),
		CustomerID: attrs.String(attributes, "customer_id"),
		Detail:     attrs.String(attributes, "detail"),
	})
}
