package service

import (
	"context"
	"errors"

	"neokyc/internal/audit"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
)

// DeleteCustomer removes a customer with its review and eligibility
// history. Audit rows are kept.
func (s *Service) DeleteCustomer(ctx context.Context, customerID domain.CustomerID, actor string) error {
	ctx, span := s.tracer.Start(ctx, "verification.DeleteCustomer")
	defer span.End()

	if customerID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "customer ID required")
	}
	if actor == "" {
		actor = actorFrom(ctx)
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.customers.FindByID(txCtx, customerID); err != nil {
			return err
		}
		if err := s.verifications.DeleteByCustomer(txCtx, customerID); err != nil {
			return err
		}
		if err := s.eligibility.DeleteByCustomer(txCtx, customerID); err != nil {
			return err
		}
		if err := s.customers.Delete(txCtx, customerID); err != nil {
			return err
		}
		s.logAudit(txCtx, audit.ActionCustomerDeleted,
			"customer_id", customerID.String(),
			"actor", actor,
		)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete customer")
	}
	s.metrics.IncrementDeletion()
	return nil
}
