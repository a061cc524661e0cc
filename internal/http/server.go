// Package http serves the bot's liveness, readiness and stats endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
)

const checkTimeout = 3 * time.Second

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// StatsFunc returns a JSON-encodable snapshot for /stats.
type StatsFunc func() any

type Server struct {
	http.Server
	mu      sync.RWMutex
	checks  map[string]Check
	stats   map[string]StatsFunc
	started time.Time
	trace   *trace.Middleware
	logger  *log.Logger
}

func NewServer(addr string, logger *log.Logger) *Server {
	s := &Server{
		checks:  make(map[string]Check),
		stats:   make(map[string]StatsFunc),
		started: time.Now(),
		logger:  logger.WithComponent(log.ComponentHTTP),
	}
	s.trace = trace.NewMiddleware(s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /stats", s.handleStats)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Addr = addr
	s.Handler = s.trace.Middleware(headers.Middleware(mux))
	s.ReadTimeout = 5 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

// AddCheck registers a readiness check under name.
func (s *Server) AddCheck(name string, c Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = c
}

// AddStats registers a section of the /stats document.
func (s *Server) AddStats(name string, fn StatsFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[name] = fn
}

// Start listens in the background. Listen errors other than a normal
// shutdown are logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Ops endpoint listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ops endpoint stopped", log.FieldError, err)
		}
	}()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	s.mu.RLock()
	checks := make(map[string]Check, len(s.checks))
	for name, c := range s.checks {
		checks[name] = c
	}
	s.mu.RUnlock()

	resp := readyResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
	for _, name := range sortedKeys(checks) {
		if err := checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "not ready"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
		s.logger.WarnContext(ctx, "Readiness check failed", "checks", resp.Checks)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	doc := map[string]any{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"http":           s.trace.Metrics(),
	}
	for name, fn := range s.stats {
		doc[name] = fn()
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
