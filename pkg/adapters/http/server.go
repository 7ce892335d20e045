package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/storyboard"
	"github.com/aretw0/storyboard/internal/logging"
	"github.com/aretw0/storyboard/internal/presentation/graph"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes play sessions over a JSON HTTP API.
type Server struct {
	player   *storyboard.Player
	sessions *session.Manager
	streams  *StreamManager
	metrics  http.Handler
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string]*storyboard.Scenario
}

// Option configures the Server.
type Option func(*Server)

// WithSessionManager sets the manager serialising mutations per act.
func WithSessionManager(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithMetricsHandler sets the handler mounted at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server playing scenarios through player.
func NewServer(player *storyboard.Player, opts ...Option) *Server {
	s := &Server{
		player:  player,
		streams: NewStreamManager(),
		metrics: promhttp.Handler(),
		logger:  logging.NewNop(),
		cache:   make(map[string]*storyboard.Scenario),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(session.WithLogger(s.logger))
	}
	s.streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for player.
func NewHandler(player *storyboard.Player, opts ...Option) http.Handler {
	return NewServer(player, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", s.metrics)

	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", s.ListScenarios)
		r.Get("/{id}/graph", s.GetGraph)
		r.Get("/{id}/mermaid", s.GetMermaid)
		r.Post("/{id}/reload", s.Reload)
	})

	r.Route("/play/{id}/{act}", func(r chi.Router) {
		r.Get("/", s.GetSnapshot)
		r.Post("/advance", s.Advance)
		r.Post("/choose", s.Choose)
		r.Post("/goto", s.Goto)
		r.Post("/reset", s.Reset)
		r.Get("/stream", s.Stream)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// scenario returns the cached compiled scenario, loading it on first use.
// Failed loads are not cached so the next request retries.
func (s *Server) scenario(ctx context.Context, id string) (*storyboard.Scenario, error) {
	s.mu.RLock()
	sc, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return sc, nil
	}

	sc, err := s.player.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[id] = sc
	s.mu.Unlock()
	return sc, nil
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "storyboard-http",
		"version": strings.TrimSpace(storyboard.Version),
	})
}

// ListScenarios handles GET /scenarios.
func (s *Server) ListScenarios(w http.ResponseWriter, r *http.Request) {
	refs, err := s.player.Index(r.Context())
	if err != nil {
		s.logger.Error("index failed", "err", err)
		writeError(w, http.StatusBadGateway, "load_failed", err)
		return
	}
	if refs == nil {
		refs = []domain.ScenarioRef{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": refs})
}

type graphResponse struct {
	ID       string               `json:"id"`
	Graph    *domain.Graph        `json:"graph"`
	Warnings []storyboard.Warning `json:"warnings"`
}

// GetGraph handles GET /scenarios/{id}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newGraphResponse(sc))
}

// GetMermaid handles GET /scenarios/{id}/mermaid.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(sc.Graph, nil)))
}

// Reload handles POST /scenarios/{id}/reload. It drops the cached graph and
// compiles the document again.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	delete(s.cache, id)
	s.mu.Unlock()

	sc, ok := s.loadOrFail(w, r)
	if !ok {
		return
	}
	s.logger.Info("scenario reloaded", "scenario", id, "warnings", len(sc.Warnings))
	writeJSON(w, http.StatusOK, newGraphResponse(sc))
}

func newGraphResponse(sc *storyboard.Scenario) graphResponse {
	warnings := sc.Warnings
	if warnings == nil {
		warnings = []storyboard.Warning{}
	}
	return graphResponse{ID: sc.ID, Graph: sc.Graph, Warnings: warnings}
}

func (s *Server) loadOrFail(w http.ResponseWriter, r *http.Request) (*storyboard.Scenario, bool) {
	id := chi.URLParam(r, "id")
	sc, err := s.scenario(r.Context(), id)
	if err == nil {
		return sc, true
	}

	s.logger.Warn("scenario load failed", "scenario", id, "err", err)
	if errors.Is(err, domain.ErrScenarioNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err)
	} else {
		writeError(w, http.StatusBadGateway, "load_failed", err)
	}
	return nil, false
}

type errorResponse struct {
	Error    string           `json:"error"`
	Message  string           `json:"message,omitempty"`
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Error: code}
	if err != nil {
		resp.Message = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
