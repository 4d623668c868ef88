package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aisuko/rp-needle/internal/sweep"
)

// Server serves run status over HTTP while a sweep executes.
type Server struct {
	addr   string
	model  string
	stats  *sweep.Stats
	logger *slog.Logger

	started time.Time
	srv     *http.Server
}

// NewServer creates a status server for the given stats.
func NewServer(addr, model string, stats *sweep.Stats, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{addr: addr, model: model, stats: stats, logger: logger}
}

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newStatsCollector(s.stats))

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth())
	r.Get("/status", s.handleStatus())
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return r
}

// handleHealth reports liveness.
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// statusResponse is the /status payload.
type statusResponse struct {
	Model  string              `json:"model"`
	Uptime string              `json:"uptime"`
	Stats  sweep.StatsSnapshot `json:"stats"`
}

// handleStatus reports a point-in-time run snapshot.
func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := statusResponse{
			Model:  s.model,
			Uptime: time.Since(s.started).Round(time.Second).String(),
			Stats:  s.stats.Snapshot(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Start begins serving in the background. Listener errors after startup
// are logged, not fatal: status is an observability aid, losing it should
// never kill a multi-hour sweep.
func (s *Server) Start() {
	s.started = time.Now()
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		s.logger.Info("status server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server stopped", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
