package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"neokyc/internal/verification/service"
	"neokyc/pkg/domain"
	"neokyc/pkg/platform/httputil"
	"neokyc/pkg/requestcontext"
)

// KYCHandler serves the public onboarding routes.
type KYCHandler struct {
	verification VerificationService
	logger       *slog.Logger
}

func NewKYCHandler(verification VerificationService, logger *slog.Logger) *KYCHandler {
	return &KYCHandler{verification: verification, logger: logger}
}

// Register mounts the onboarding routes.
func (h *KYCHandler) Register(r chi.Router) {
	r.Post("/kyc/register", h.HandleRegister)
	r.Get("/kyc/{customerID}", h.HandleStatus)
}

// HandleRegister handles POST /kyc/register.
func (h *KYCHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[service.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.verification.Register(ctx, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "customer registered",
		"request_id", requestID,
		"customer_id", res.CustomerID.String(),
		"risk_level", string(res.Profile.Level),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, toRegisterResponse(res))
}

// HandleStatus handles GET /kyc/{customerID}.
func (h *KYCHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseCustomerID(chi.URLParam(r, "customerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status, err := h.verification.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, CustomerStatusResponse{
		Customer:     toCustomerResponse(status.Customer, true),
		Verification: toVerificationResponse(status.Verification),
		Loan:         toLoanResponse(status.Eligibility),
	})
}
