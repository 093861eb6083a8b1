package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"neokyc/internal/audit"
	"neokyc/internal/customer"
	"neokyc/internal/risk"
	"neokyc/internal/verification/models"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/requestcontext"
)

// RegisterRequest is the onboarding form.
type RegisterRequest struct {
	FullName      string `json:"full_name" validate:"required,min=3,max=100"`
	CNIC          string `json:"cnic" validate:"required,min=13,max=15"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Phone         string `json:"phone" validate:"required,max=20"`
	Address       string `json:"address" validate:"required,max=500"`
	IncomeBracket string `json:"income_range" validate:"required"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	// ReturningCustomer is set by callers that know of a prior relationship.
	ReturningCustomer bool `json:"returning_customer"`
}

// RegisterResult reports the new customer and the opened review.
type RegisterResult struct {
	CustomerID   domain.CustomerID
	CustomerCode string
	Verification *models.Verification
	Profile      risk.Profile
	Message      string
}

// Register validates the form, scores the applicant against every stored
// customer, persists the encrypted customer and opens a Pending review.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "verification.Register")
	defer span.End()

	c, err := s.buildCustomer(req)
	if err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}

	existing, err := s.customers.ListPlaintext(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customers")
	}

	profile := s.score(ctx, c, existing)
	now := requestcontext.Now(ctx)
	c.TrustScore = profile.TrustScore
	c.Segment = profile.Segment
	c.CreatedAt = now
	c.UpdatedAt = now
	v := models.NewPending(c.ID, profile, now)

	if err := s.persistWithUniqueCode(ctx, c, v); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("customer_id", c.ID.String()),
		attribute.Int("risk_score", profile.RiskScore),
		attribute.String("risk_level", string(profile.Level)),
	)
	s.metrics.IncrementRegistration(string(profile.Level))
	s.metrics.ObserveRegistration(start)

	return &RegisterResult{
		CustomerID:   c.ID,
		CustomerCode: c.Code,
		Verification: v,
		Profile:      profile,
		Message:      fmt.Sprintf("Registration successful! Your code: %s", c.Code),
	}, nil
}

func (s *Service) buildCustomer(req RegisterRequest) (*customer.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	cnic, err := domain.ParseCNIC(req.CNIC)
	if err != nil {
		return nil, err
	}
	bracket, err := domain.ParseIncomeBracket(req.IncomeBracket)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return &customer.Customer{
		ID:            domain.NewCustomerID(),
		FullName:      strings.TrimSpace(req.FullName),
		CNIC:          cnic,
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		IncomeBracket: bracket,
		PasswordHash:  hash,
		Returning:     req.ReturningCustomer,
	}, nil
}

// persistWithUniqueCode writes the customer, its review and the audit row
// together, drawing a new customer code whenever the store reports one
// already taken.
func (s *Service) persistWithUniqueCode(ctx context.Context, c *customer.Customer, v *models.Verification) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate customer code")
		}
		c.Code = code

		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			if err := s.customers.Create(txCtx, c); err != nil {
				return err
			}
			if err := s.verifications.Create(txCtx, v); err != nil {
				return err
			}
			s.logAudit(txCtx, audit.ActionCustomerRegistered,
				"customer_id", c.ID.String(),
				"actor", "customer",
				"risk_score", v.RiskScore,
				"detail", fmt.Sprintf("risk=%d level=%s segment=%s", v.RiskScore, v.RiskLevel, c.Segment),
			)
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register customer")
		}
		s.metrics.IncrementCodeCollision()
		s.logger.WarnContext(ctx, "customer code collision, retrying",
			"attempt", attempt,
			"customer_id", c.ID.String(),
		)
	}
	return dErrors.New(dErrors.CodeConflict, "could not allocate a unique customer code")
}

// validationError flattens validator output into one client-safe message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := jsonFieldNames[fe.Field()]
	if field == "" {
		field = strings.ToLower(fe.Field())
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

var jsonFieldNames = map[string]string{
	"FullName":      "full_name",
	"CNIC":          "cnic",
	"Email":         "email",
	"Phone":         "phone",
	"Address":       "address",
	"IncomeBracket": "income_range",
	"Password":      "password",
}
