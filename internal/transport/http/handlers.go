// @title Tenancy API
// @version 1.0.0
// @description Multi-tenant hierarchy service

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/opentrusty/tenancy/internal/observability/logger"
	"github.com/opentrusty/tenancy/internal/observability/metrics"
	"github.com/opentrusty/tenancy/internal/tenant"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	tenantService *tenant.Service
	validate      *validator.Validate
}

// NewHandler creates a new HTTP handler
func NewHandler(tenantService *tenant.Service) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		tenantService: tenantService,
		validate:      validate,
	}
}

// RouterConfig carries the optional router collaborators. A nil RateLimiter
// or HTTPMetrics disables that middleware.
type RouterConfig struct {
	RateLimiter    *RateLimiter
	HTTPMetrics    *metrics.HTTPMetrics
	RequestTimeout time.Duration
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	// Middleware
	r.Use(middleware.RequestID)
	if cfg.RateLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.RateLimiter))
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Middleware(routePattern))
	}
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", h.HealthCheck)
	if cfg.HTTPMetrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.HTTPMetrics.Handler())
	}

	r.Route("/api/v1/tenants", func(r chi.Router) {
		r.Post("/", h.CreateTenant)
		r.Get("/", h.ListTenants)
		r.Route("/{tenantID}", func(r chi.Router) {
			r.Get("/", h.GetTenant)
			r.Get("/children", h.ListChildren)
			r.Get("/tree", h.GetSubtree)
		})
	})

	return r
}

// routePattern names a request after the chi route it matched
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tenancy",
	})
}

// respondServiceError maps tenant errors onto HTTP statuses. Anything
// unrecognised is logged and reported as an internal error.
func respondServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, tenant.ErrNameRequired):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tenant.ErrTenantNotFound):
		respondError(w, http.StatusNotFound, "tenant not found")
	case errors.Is(err, tenant.ErrParentNotFound):
		respondError(w, http.StatusUnprocessableEntity, "parent tenant not found")
	case errors.Is(err, tenant.ErrStoreUnavailable):
		slog.ErrorContext(r.Context(), "tenant store unavailable", logger.Operation(op), logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "tenant store unavailable")
	default:
		slog.ErrorContext(r.Context(), "tenant operation failed", logger.Operation(op), logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
