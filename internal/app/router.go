// Package app wires configuration, adapters, and usecases into runnable
// processes.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/ai-code-reviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-code-reviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-code-reviewer/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input means all origins.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(30 * time.Second))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Submissions are rate limited per client IP; reads are not.
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Post("/reviews/submit", srv.SubmitReview)
	})
	r.Get("/reviews/status/{job_id}", srv.JobStatus)
	r.Get("/reviews/history", srv.History)

	// Dead-letter operational surface, behind the admin guard when
	// credentials are configured.
	r.Route("/dlq", func(dr chi.Router) {
		dr.Use(httpserver.AdminGuard(cfg))
		dr.Get("/", srv.DLQList)
		dr.Get("/stats", srv.DLQStats)
		dr.Get("/{id}", srv.DLQGet)
		dr.Post("/{id}/retry", srv.DLQRetry)
		dr.Post("/{id}/resolve", srv.DLQResolve)
	})

	r.Get("/health", srv.Health)
	r.Get("/stats", srv.StatsOverview)

	r.Get("/healthz", srv.Healthz)
	r.Get("/readyz", srv.Readyz)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(r)
}
