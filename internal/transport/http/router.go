// Package httptransport exposes the KYC workflow over HTTP.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neokyc/internal/platform/metrics"
	"neokyc/pkg/platform/httputil"
	"neokyc/pkg/platform/middleware/auth"
	"neokyc/pkg/platform/middleware/metadata"
	"neokyc/pkg/platform/middleware/request"
	"neokyc/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tokens  auth.TokenValidator

	KYC   *KYCHandler
	Auth  *AuthHandler
	Admin *AdminHandler

	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
	HealthChecks   map[string]HealthCheck
}

// NewRouter wires middleware and every route.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recover(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(cfg.Metrics.Middleware)
	r.Use(request.AccessLog(cfg.Logger))

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.Get("/healthz", healthHandler(cfg.HealthChecks))

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		if cfg.KYC != nil {
			cfg.KYC.Register(r)
		}
		if cfg.Auth != nil {
			cfg.Auth.Register(r)
		}
		if cfg.Admin != nil {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin(cfg.Tokens, cfg.Logger))
				cfg.Admin.Register(r)
			})
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = "down"
				continue
			}
			results[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": overall,
			"checks": results,
		})
	}
}
