// Package httptransport is the thin HTTP layer. Handlers validate input,
// delegate to services and translate domain errors; business rules live in
// the service packages.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"domainscout/internal/availability"
	"domainscout/internal/platform/metrics"
	"domainscout/internal/platform/middleware"
	"domainscout/internal/pool"
	"domainscout/internal/pool/ranking"
	"domainscout/internal/pool/service"
	"domainscout/pkg/platform/httputil"
)

// Resolver is the availability dependency, satisfied by the resolver.
type Resolver interface {
	Resolve(ctx context.Context, domain string) availability.Record
	ResolveBatch(ctx context.Context, domains []string) []availability.Record
}

// PoolService is the pool query dependency.
type PoolService interface {
	SearchAndVerify(ctx context.Context, query string, f pool.Filter, limit int) (service.VerifyResult, error)
	InstantRank(ctx context.Context, query string, f pool.Filter, limit int) ([]ranking.Scored, error)
}

// HealthCheck probes one dependency; nil means healthy.
type HealthCheck func(ctx context.Context) error

// Handler holds the wired dependencies for all endpoints.
type Handler struct {
	resolver Resolver
	pool     PoolService
	logger   *slog.Logger
	health   map[string]HealthCheck
}

// NewHandler creates the HTTP handler set. The health map keys name each
// dependency in the /healthz response.
func NewHandler(resolver Resolver, poolSvc PoolService, logger *slog.Logger, health map[string]HealthCheck) *Handler {
	return &Handler{
		resolver: resolver,
		pool:     poolSvc,
		logger:   logger,
		health:   health,
	}
}

// NewRouter wires all public endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(h.logger))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/availability/{domain}", h.handleResolve)
		r.Post("/availability/batch", h.handleResolveBatch)
		r.Post("/pool/search", h.handlePoolSearch)
		r.Post("/pool/rank", h.handlePoolRank)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	components := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(components) > 0 {
		body["components"] = components
	}
	httputil.WriteJSON(w, status, body)
}
