package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"neokyc/internal/verification/service"
	"neokyc/pkg/domain"
	dErrors "neokyc/pkg/domain-errors"
	"neokyc/pkg/platform/httputil"
	"neokyc/pkg/requestcontext"
)

const maxAuditLimit = 200

// AdminHandler serves the review queue. Routes must sit behind the admin
// auth middleware.
type AdminHandler struct {
	verification VerificationService
	audit        AuditLog
	logger       *slog.Logger
}

func NewAdminHandler(verification VerificationService, audit AuditLog, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{verification: verification, audit: audit, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/admin/pending", h.HandlePending)
	r.Post("/admin/verify/{customerID}", h.HandleDecide)
	r.Post("/admin/rescore/{customerID}", h.HandleRescore)
	r.Delete("/admin/customers/{customerID}", h.HandleDelete)
	r.Get("/admin/audit-logs", h.HandleAuditLogs)
	r.Get("/admin/loans", h.HandleLoans)
	r.Post("/admin/loan-decision", h.HandleLoanDecision)
	r.Get("/admin/stats", h.HandleStats)
}

// HandlePending handles GET /admin/pending.
func (h *AdminHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pending, err := h.verification.ListPending(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list pending reviews",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	items := make([]PendingItem, 0, len(pending))
	for _, p := range pending {
		items = append(items, PendingItem{
			Customer:     toCustomerResponse(p.Customer, false),
			Verification: toVerificationResponse(p.Verification),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// HandleDecide handles POST /admin/verify/{customerID}.
func (h *AdminHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	id, ok := customerIDParam(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	v, err := h.verification.Decide(ctx, service.DecisionRequest{
		CustomerID: id,
		Status:     req.Status,
		Remarks:    req.Remarks,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification decided",
		"request_id", requestID,
		"customer_id", id.String(),
		"status", string(v.Status),
		"actor", requestcontext.Actor(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Verification status updated",
	})
}

// HandleRescore handles POST /admin/rescore/{customerID}.
func (h *AdminHandler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	id, ok := customerIDParam(w, r)
	if !ok {
		return
	}
	profile, err := h.verification.Rescore(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

// HandleDelete handles DELETE /admin/customers/{customerID}.
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := customerIDParam(w, r)
	if !ok {
		return
	}
	if err := h.verification.DeleteCustomer(ctx, id, requestcontext.Actor(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAuditLogs handles GET /admin/audit-logs?limit=N.
func (h *AdminHandler) HandleAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 200"))
			return
		}
		limit = n
	}

	events, err := h.audit.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read audit log",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit log"))
		return
	}

	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toAuditEventResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleLoans handles GET /admin/loans.
func (h *AdminHandler) HandleLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loans, err := h.verification.ListLoans(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list loans",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	items := make([]LoanItem, 0, len(loans))
	for _, l := range loans {
		items = append(items, toLoanItem(l))
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// HandleLoanDecision handles POST /admin/loan-decision.
func (h *AdminHandler) HandleLoanDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoanDecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	loanID, err := domain.ParseEligibilityID(req.LoanID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	loan, err := h.verification.DecideLoan(ctx, service.LoanDecisionRequest{
		LoanID:   loanID,
		Decision: req.Decision,
		Reason:   req.Reason,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "loan decided",
		"request_id", requestID,
		"loan_id", loan.ID.String(),
		"status", string(loan.Status),
		"actor", requestcontext.Actor(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Loan " + string(loan.Status),
	})
}

// HandleStats handles GET /admin/stats.
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.verification.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatsResponse(stats))
}

func customerIDParam(w http.ResponseWriter, r *http.Request) (domain.CustomerID, bool) {
	id, err := domain.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.CustomerID{}, false
	}
	return id, true
}
