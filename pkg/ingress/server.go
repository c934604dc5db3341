// Package ingress implements the Ingress Controller (C6): the HTTP
// surface for uploading images, querying results, and the health and
// stats endpoints.
package ingress

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cuemby/visionq/internal/health"
	"github.com/cuemby/visionq/internal/metrics"
	"github.com/cuemby/visionq/pkg/bus"
	"github.com/cuemby/visionq/pkg/store"
	"github.com/cuemby/visionq/pkg/task"
)

// Server wires the Result Store and Message Bus behind the HTTP
// surface named in §6. Worker liveness (for the health check) is
// reached through Health, not directly.
type Server struct {
	Store      store.Store
	Queue      bus.Queue
	Results    bus.ResultChannel
	Health     *health.Checker
	DefaultCfg task.Config

	UploadsDir         string
	MaxUploadSizeBytes int64

	router chi.Router
}

// NewServer builds the chi router for the /api/v1 surface.
func NewServer(s *Server) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestMetrics)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
	}))

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/images/upload", s.handleUpload)
		api.Get("/results/{task_id}", s.handleGetResult)
		api.Delete("/results/{task_id}", s.handleDeleteResult)
		api.Get("/results", s.handleListResults)
		api.Get("/health", s.handleHealth)
		api.Get("/stats", s.handleStats)
	})
	r.Handle("/metrics", metrics.Handler())

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestMetrics records APIRequestsTotal/APIRequestDuration for every
// request, labeled by chi's matched route pattern so cardinality stays
// bounded regardless of path parameters.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := ww.Status()
		metrics.APIRequestsTotal.WithLabelValues(route, http.StatusText(status)).Inc()
		timer.ObserveDurationVec(metrics.APIRequestDuration, route)
	})
}
