package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// config holds internal HTTP server configuration
type config struct {
	addr string
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates the result server. It exposes the run reports and
// output files found under dataDir, read only.
func NewServer(
	ctx context.Context,
	dataDir string,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr: "localhost:8080",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	registry := prometheus.NewRegistry()
	metrics := newMetrics(registry)

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(metrics.Middleware)
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Run reports
	runs := NewRunsHandler(dataDir)
	router.Get("/api/runs", runs.List)
	router.Get("/api/runs/{id}", runs.Get)

	// Output rasters and previews
	files := http.StripPrefix("/files/", http.FileServer(http.Dir(dataDir)))
	router.Get("/files/*", files.ServeHTTP)

	// Metrics
	router.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
