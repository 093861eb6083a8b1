package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"neokyc/pkg/platform/httputil"
	"neokyc/pkg/requestcontext"
)

// AuthHandler serves the admin two-factor login.
type AuthHandler struct {
	sessions SessionService
	logger   *slog.Logger
}

func NewAuthHandler(sessions SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/2fa/send", h.HandleSendCode)
	r.Post("/auth/2fa/verify", h.HandleVerifyCode)
}

// HandleSendCode handles POST /auth/2fa/send.
func (h *AuthHandler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SendCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.sessions.SendCode(ctx, req.Username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSendCodeResponse(res))
}

// HandleVerifyCode handles POST /auth/2fa/verify.
func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.sessions.Login(ctx, req.Username, req.Password, req.Code)
	if err != nil {
		h.logger.WarnContext(ctx, "admin login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTokenResponse(token))
}
