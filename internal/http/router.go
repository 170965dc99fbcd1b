// Package httpapi assembles the public router: shared middleware, health and
// metrics endpoints, and the claim routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"claimguard/internal/claims/handler"
	"claimguard/pkg/platform/httputil"
	"claimguard/pkg/platform/middleware/metadata"
	"claimguard/pkg/platform/middleware/request"
	"claimguard/pkg/platform/middleware/requesttime"
)

// healthTimeout bounds the whole /healthz probe.
const healthTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Deps are the pieces the router mounts.
type Deps struct {
	Claims       *handler.Handler
	RequireActor func(http.Handler) http.Handler
	Logger       *slog.Logger
	Observer     request.RouteObserver
	Metrics      http.Handler
	Health       map[string]HealthCheck
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recoverer(d.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.AccessLog(d.Logger, d.Observer))

	r.Get("/healthz", healthHandler(d.Health))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	if d.Claims != nil {
		d.Claims.Register(r, d.RequireActor)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
