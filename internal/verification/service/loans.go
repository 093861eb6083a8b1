package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"neokyc/internal/audit"
	"neokyc/internal/customer"
	"neokyc/internal/eligibility"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/sentinel"
	"neokyc/pkg/requestcontext"
)

// LoanReview pairs an eligibility row with its customer for the loan queue.
type LoanReview struct {
	Eligibility eligibility.Record
	Customer    *customer.Customer
}

// LoanDecisionRequest is an admin outcome for one eligibility row.
type LoanDecisionRequest struct {
	LoanID   domain.EligibilityID
	Decision string
	Reason   string
}

// Stats summarizes the admin dashboard.
type Stats struct {
	TotalCustomers       int
	PendingVerifications int
	PendingLoans         int
	ApprovedLoans        int
	RejectedLoans        int
}

// ListLoans returns every eligibility row with its customer, newest first.
func (s *Service) ListLoans(ctx context.Context) ([]LoanReview, error) {
	records, err := s.eligibility.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list loans")
	}
	owners := make(map[domain.CustomerID]*customer.Customer)
	out := make([]LoanReview, 0, len(records))
	for _, r := range records {
		c, ok := owners[r.CustomerID]
		if !ok {
			c, err = s.customers.FindByID(ctx, r.CustomerID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					continue
				}
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
			}
			owners[r.CustomerID] = c
		}
		out = append(out, LoanReview{Eligibility: r, Customer: c})
	}
	return out, nil
}

// DecideLoan approves or rejects a Pending eligibility row. The customer's
// verification is left as it is.
func (s *Service) DecideLoan(ctx context.Context, req LoanDecisionRequest) (*eligibility.Record, error) {
	ctx, span := s.tracer.Start(ctx, "verification.DecideLoan")
	defer span.End()

	if req.LoanID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "loan ID required")
	}
	status, err := eligibility.ParseLoanDecision(req.Decision)
	if err != nil {
		return nil, err
	}

	actor := actorFrom(ctx)
	var decided *eligibility.Record
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.eligibility.FindByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}
		if err := r.Decide(status, req.Reason, actor, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.eligibility.SetStatus(txCtx, r); err != nil {
			return err
		}
		s.logAudit(txCtx, audit.ActionLoanDecided,
			"customer_id", r.CustomerID.String(),
			"actor", actor,
			"status", string(r.Status),
			"detail", fmt.Sprintf("loan=%s status=%s limit=%d %s", r.ID, r.Status, r.SuggestedLimit, r.Currency),
		)
		decided = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "loan not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "loan already decided")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record loan decision")
	}

	span.SetAttributes(
		attribute.String("loan_id", decided.ID.String()),
		attribute.String("status", string(decided.Status)),
	)
	s.metrics.IncrementLoanDecision(string(decided.Status))
	return decided, nil
}

// Stats counts customers, open reviews and loans by status.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	customers, err := s.customers.ListPlaintext(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customers")
	}
	pending, err := s.verifications.ListPending(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending verifications")
	}
	loans, err := s.eligibility.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list loans")
	}

	out := &Stats{TotalCustomers: len(customers), PendingVerifications: len(pending)}
	for _, r := range loans {
		switch r.Status {
		case eligibility.StatusPending:
			out.PendingLoans++
		case eligibility.StatusApproved:
			out.ApprovedLoans++
		case eligibility.StatusRejected:
			out.RejectedLoans++
		}
	}
	s.metrics.SetPending(len(pending))
	return out, nil
}
