package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"neokyc/internal/audit"
	"neokyc/internal/customer"
	"neokyc/internal/eligibility"
	"neokyc/internal/risk"
	"neokyc/internal/verification/models"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/requestcontext"
)

// DecisionRequest is an admin review outcome.
type DecisionRequest struct {
	CustomerID domain.CustomerID
	Status     string
	Remarks    string
}

// Decide records an admin decision. The profile is recomputed from the
// current customer and those registered before it unless stored scores are
// accepted. Only a Verified decision writes a loan eligibility row.
func (s *Service) Decide(ctx context.Context, req DecisionRequest) (*models.Verification, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Decide")
	defer span.End()

	if req.CustomerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "customer ID required")
	}
	status, err := models.ParseDecision(req.Status)
	if err != nil {
		return nil, err
	}

	c, v, err := s.loadReview(ctx, req.CustomerID)
	if err != nil {
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	var profile risk.Profile
	if s.acceptStore {
		profile = v.Profile()
		profile.Segment = c.Segment
	} else {
		existing, err := s.customers.ListPlaintext(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customers")
		}
		profile = s.score(ctx, plaintextOf(c, existing), existing)
	}

	actor := actorFrom(ctx)
	now := requestcontext.Now(ctx)
	if err := v.Decide(status, req.Remarks, actor, profile, now); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.verifications.Update(txCtx, v); err != nil {
			return err
		}
		if err := s.customers.UpdateRisk(txCtx, c.ID, profile.TrustScore, profile.Segment); err != nil {
			return err
		}
		detail := fmt.Sprintf("status=%s risk=%d", v.Status, v.RiskScore)
		if status == models.StatusVerified {
			record := eligibility.NewRecord(c.ID, profile.RiskScore, c.IncomeBracket, now)
			if err := s.eligibility.Append(txCtx, record); err != nil {
				return err
			}
			detail = fmt.Sprintf("%s limit=%d %s", detail, record.SuggestedLimit, record.Currency)
		}
		s.logAudit(txCtx, audit.ActionVerificationDecided,
			"customer_id", c.ID.String(),
			"actor", actor,
			"status", string(v.Status),
			"detail", detail,
		)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record decision")
	}

	span.SetAttributes(
		attribute.String("customer_id", c.ID.String()),
		attribute.String("status", string(v.Status)),
	)
	s.metrics.IncrementDecision(string(v.Status))
	return v, nil
}

// loadReview fetches the customer and its review, translating absence.
func (s *Service) loadReview(ctx context.Context, id domain.CustomerID) (*customer.Customer, *models.Verification, error) {
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	v, err := s.verifications.FindByCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return c, v, nil
}

// plaintextOf returns c as listed for matching. FindByID substitutes a
// placeholder for undecryptable fields, which must never reach the scorer.
func plaintextOf(c *customer.Customer, existing []*customer.Customer) *customer.Customer {
	for _, e := range existing {
		if e != nil && e.ID == c.ID {
			return e
		}
	}
	return c
}
