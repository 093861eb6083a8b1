package service

import (
	"context"
	"errors"

	"neokyc/internal/customer"
	"neokyc/internal/verification/models"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
)

// PendingReview pairs an open review with its customer for the admin queue.
type PendingReview struct {
	Verification *models.Verification
	Customer     *customer.Customer
}

// Get returns the customer, its review and the latest eligibility row.
func (s *Service) Get(ctx context.Context, customerID domain.CustomerID) (*models.CustomerStatus, error) {
	if customerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "customer ID required")
	}
	c, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	status := &models.CustomerStatus{Customer: c}

	v, err := s.verifications.FindByCustomer(ctx, customerID)
	switch {
	case err == nil:
		status.Verification = v
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}

	e, err := s.eligibility.Latest(ctx, customerID)
	switch {
	case err == nil:
		status.Eligibility = e
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load eligibility")
	}
	return status, nil
}

// ListPending returns the admin review queue, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]PendingReview, error) {
	pending, err := s.verifications.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending verifications")
	}
	out := make([]PendingReview, 0, len(pending))
	for _, v := range pending {
		c, err := s.customers.FindByID(ctx, v.CustomerID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
		}
		out = append(out, PendingReview{Verification: v, Customer: c})
	}
	s.metrics.SetPending(len(out))
	return out, nil
}
