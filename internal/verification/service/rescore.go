package service

import (
	"context"
	"errors"
	"fmt"

	"neokyc/internal/audit"
	"neokyc/internal/customer"
	"neokyc/internal/risk"
	"neokyc/internal/verification/models"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/requestcontext"
)

// Rescore recomputes the snapshot of a still-Pending review.
func (s *Service) Rescore(ctx context.Context, customerID domain.CustomerID) (*risk.Profile, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Rescore")
	defer span.End()

	if customerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "customer ID required")
	}
	c, v, err := s.loadReview(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !v.IsPending() {
		return nil, dErrors.New(dErrors.CodeConflict, "verification already decided")
	}
	existing, err := s.customers.ListPlaintext(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customers")
	}
	profile, err := s.rescore(ctx, plaintextOf(c, existing), v, existing, actorFrom(ctx))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &profile, nil
}

// RescorePending recomputes every Pending review against one customer
// snapshot. Failures are logged and skipped; the count of updated reviews
// is returned.
func (s *Service) RescorePending(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "verification.RescorePending")
	defer span.End()

	pending, err := s.verifications.ListPending(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending verifications")
	}
	if len(pending) == 0 {
		return 0, nil
	}
	existing, err := s.customers.ListPlaintext(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customers")
	}
	byID := make(map[domain.CustomerID]*customer.Customer, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	updated := 0
	for _, v := range pending {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		c, ok := byID[v.CustomerID]
		if !ok {
			s.logger.WarnContext(ctx, "pending verification without customer",
				"customer_id", v.CustomerID.String())
			continue
		}
		if _, err := s.rescore(ctx, c, v, existing, systemActor); err != nil {
			s.logger.ErrorContext(ctx, "failed to rescore verification",
				"customer_id", v.CustomerID.String(), "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *Service) rescore(ctx context.Context, c *customer.Customer, v *models.Verification, existing []*customer.Customer, actor string) (risk.Profile, error) {
	profile := s.score(ctx, c, existing)
	before := v.RiskScore
	v.Snapshot(profile, requestcontext.Now(ctx))
	v.Remarks = models.RegistrationRemarks(profile)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.verifications.Update(txCtx, v); err != nil {
			return err
		}
		if err := s.customers.UpdateRisk(txCtx, c.ID, profile.TrustScore, profile.Segment); err != nil {
			return err
		}
		if before != profile.RiskScore {
			s.logAudit(txCtx, audit.ActionVerificationRescored,
				"customer_id", c.ID.String(),
				"actor", actor,
				"detail", fmt.Sprintf("risk %d -> %d", before, profile.RiskScore),
			)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return risk.Profile{}, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return risk.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store rescored verification")
	}
	s.metrics.IncrementRescored()
	return profile, nil
}
