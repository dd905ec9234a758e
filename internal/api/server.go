// Package api exposes the HTTP interface for the signal service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/history"
	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/publisher"
	"github.com/seoforge/seopipe/internal/signal"
)

// Analyzer runs the single-URL on-page analysis.
type Analyzer interface {
	AnalyzeURL(ctx context.Context, url string) (signal.PageReport, error)
}

// Pipeline runs the full multi-source collection for a URL.
type Pipeline interface {
	Run(ctx context.Context, url string, keywords []string) signal.SignalRecord
}

// Config controls server behavior.
type Config struct {
	RequestTimeout time.Duration
	RateRPS        float64
	RateBurst      int
}

// Server wires HTTP handlers to the analyzer, pipeline, and stores.
type Server struct {
	router    chi.Router
	analyzer  Analyzer
	pipeline  Pipeline
	store     history.Store
	publisher publisher.Provider
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. store and
// pub may be nil; the no-op implementations are substituted.
func NewServer(
	cfg Config,
	analyzer Analyzer,
	pipeline Pipeline,
	store history.Store,
	pub publisher.Provider,
	logger *zap.Logger,
) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if store == nil {
		store = history.NoOp{}
	}
	if pub == nil {
		pub = publisher.NoOp{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer:  analyzer,
		pipeline:  pipeline,
		store:     store,
		publisher: pub,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(cfg.RequestTimeout))
	r.Use(metrics.Middleware)
	if cfg.RateRPS > 0 {
		r.Use(rateLimitMiddleware(newClientLimiter(cfg.RateRPS, cfg.RateBurst)))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", s.analyze)
		r.Post("/pipeline", s.runPipeline)
		r.Get("/history", s.getHistory)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Load(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "history store not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.analyzer.AnalyzeURL(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn("analysis failed", zap.String("url", req.URL), zap.Error(err))
		writeError(w, http.StatusBadRequest, "could not fetch url")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type pipelineRequest struct {
	URL      string   `json:"url"`
	Keywords []string `json:"keywords"`
}

func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := validateURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := s.pipeline.Run(r.Context(), req.URL, req.Keywords)

	// Persistence failure is logged but never fails the response; the
	// caller already has the record in hand.
	if err := s.store.Append(r.Context(), record); err != nil {
		s.logger.Error("history append failed", zap.String("url", record.URL), zap.Error(err))
	}
	if err := s.publisher.Publish(r.Context(), record.URL); err != nil {
		s.logger.Warn("record publish failed", zap.String("url", record.URL), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// validateURL accepts only absolute http(s) URLs with a host.
func validateURL(raw string) error {
	if raw == "" {
		return errMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errInvalidURL
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
