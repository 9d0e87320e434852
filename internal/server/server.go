// Package server exposes the narrowing search over HTTP: a JSON search
// endpoint, a streaming variant, the run history, Prometheus metrics and a
// health check.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/agbru/narrowfind/internal/history"
	"github.com/agbru/narrowfind/internal/logging"
	"github.com/agbru/narrowfind/internal/metrics"
)

// Server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// RunStore persists searches. *history.Store implements it.
type RunStore interface {
	Save(ctx context.Context, run history.Run) error
	List(ctx context.Context, limit int) ([]history.Run, error)
	Get(ctx context.Context, id string) (history.Run, error)
}

// Config configures a Server.
type Config struct {
	// Addr is the listen address.
	Addr string
	// Rate is the number of API requests accepted per second.
	Rate float64
	// Timeout bounds each search.
	Timeout time.Duration
	// Security configures headers, CORS and body limits.
	Security SecurityConfig
	// Version is reported by /healthz.
	Version string
}

// Server is the HTTP front end.
type Server struct {
	config  Config
	logger  logging.Logger
	metrics *Metrics
	runtime *metrics.RuntimeCollector
	limiter *rate.Limiter
	store   RunStore
}

// New creates a Server. store may be nil, in which case runs are not
// recorded and the history endpoints answer 404.
func New(config Config, logger logging.Logger, store RunStore) *Server {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Server{
		config:  config,
		logger:  logger,
		metrics: NewMetrics(),
		runtime: metrics.NewRuntimeCollector(),
		limiter: rate.NewLimiter(rate.Limit(config.Rate), max(1, int(config.Rate))),
		store:   store,
	}
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return s.wrap(s.rateLimitMiddleware(h))
	}

	mux.HandleFunc("/api/v1/search", api(s.handleSearch))
	mux.HandleFunc("/api/v1/search/stream", api(s.handleSearchStream))
	mux.HandleFunc("/api/v1/expression", api(s.handleExpression))
	mux.HandleFunc("/api/v1/runs", api(s.handleRuns))
	mux.HandleFunc("/api/v1/runs/{id}", api(s.handleRun))
	mux.HandleFunc("/metrics", s.wrap(s.handleMetrics))
	mux.HandleFunc("/healthz", s.wrap(s.handleHealth))
	return mux
}

func (s *Server) wrap(h http.HandlerFunc) http.HandlerFunc {
	return s.metricsMiddleware(SecurityMiddleware(s.config.Security, h))
}

// rateLimitMiddleware rejects requests above the configured rate with 429.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
