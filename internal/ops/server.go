// Package ops serves the operator endpoints (metrics and health checks) on a port
// separate from the public API.
package ops

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilawngbayan/storybooks/internal/common/health"
	"github.com/ilawngbayan/storybooks/pkg/metrics"
)

// NewRouter builds the ops router
func NewRouter(m *metrics.Metrics, checker *health.HealthChecker) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", m.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if !checker.IsAlive() {
			http.Error(w, "not alive", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if !checker.IsReady(req.Context()) {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		status := checker.Check(req.Context())
		code := http.StatusOK
		if status.Status == health.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})

	return r
}

// NewServer wraps the ops router in an http.Server listening on host:port
func NewServer(host, port string, m *metrics.Metrics, checker *health.HealthChecker) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           NewRouter(m, checker),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
