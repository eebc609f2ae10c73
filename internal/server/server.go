// Package server exposes the HTTP surface: search, shadow stats, health,
// and metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/talentlake/talentrank/internal/common/config"
	"github.com/talentlake/talentrank/internal/common/errors"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"
	"github.com/talentlake/talentrank/internal/search"
	"github.com/talentlake/talentrank/internal/trajectory/shadow"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultRecentLimit = 50

// ShadowReader is the operational view over the shadow harness.
type ShadowReader interface {
	Stats() models.ShadowStats
	Recent(ctx context.Context, limit int) ([]models.ShadowComparison, error)
}

// Searcher executes one ranking pass.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

// RequestRecorder receives per-request measurements for the OTel pipeline.
type RequestRecorder interface {
	RecordRequest(ctx context.Context, status string)
	RecordDuration(ctx context.Context, duration time.Duration, status string)
}

// Server wires the HTTP handlers. ReadinessCheck reports whether the
// predictor side is able to serve; a not-ready instance answers health
// probes with 503 instead of serving guesses.
type Server struct {
	config     config.ServerConfig
	app        config.AppConfig
	searcher   Searcher
	shadow     ShadowReader
	readiness  func() bool
	recorder   RequestRecorder
	logger     logger.Logger
	httpServer *http.Server
}

func New(
	cfg config.ServerConfig,
	app config.AppConfig,
	searcher Searcher,
	shadowReader ShadowReader,
	readiness func() bool,
	log logger.Logger,
) *Server {
	s := &Server{
		config:    cfg,
		app:       app,
		searcher:  searcher,
		shadow:    shadowReader,
		readiness: readiness,
		logger:    log.WithFields(map[string]interface{}{"component": "http-server"}),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

// SetRecorder attaches the OTel request recorder. Optional; a nil
// recorder disables per-request recording.
func (s *Server) SetRecorder(rec RequestRecorder) {
	s.recorder = rec
}

// Routes builds the handler mux. Exposed separately for tests.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", s.handleSearch)
	mux.HandleFunc("/shadow/stats", s.handleShadowStats)
	mux.HandleFunc("/shadow/recent", s.handleShadowRecent)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"address": s.config.Address,
	})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		s.writeError(w, errors.NewInvalidRequestError("method not allowed"), http.StatusMethodNotAllowed)
		s.record(r.Context(), start, "rejected")
		return
	}

	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.NewInvalidRequestError("malformed request body"), 0)
		s.record(r.Context(), start, "rejected")
		return
	}

	resp, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		s.writeError(w, err, 0)
		s.record(r.Context(), start, "error")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
	s.record(r.Context(), start, "success")
}

func (s *Server) record(ctx context.Context, start time.Time, status string) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordRequest(ctx, status)
	s.recorder.RecordDuration(ctx, time.Since(start), status)
}

func (s *Server) handleShadowStats(w http.ResponseWriter, r *http.Request) {
	if s.shadow == nil {
		s.writeError(w, errors.NewInvalidRequestError("shadow mode is disabled"), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, s.shadow.Stats())
}

func (s *Server) handleShadowRecent(w http.ResponseWriter, r *http.Request) {
	if s.shadow == nil {
		s.writeError(w, errors.NewInvalidRequestError("shadow mode is disabled"), http.StatusNotFound)
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, errors.NewInvalidRequestError("limit must be a positive integer"), 0)
			return
		}
		limit = parsed
	}

	comparisons, err := s.shadow.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, err, 0)
		return
	}
	if comparisons == nil {
		comparisons = []models.ShadowComparison{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"comparisons": comparisons,
		"count":       len(comparisons),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil && !s.readiness() {
		s.writeError(w, errors.NewPredictorNotReadyError("model artifacts not loaded"), 0)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"app":     s.app.Name,
		"version": s.app.Version,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

// writeError renders a StandardError envelope. statusOverride takes
// precedence over the error's own mapping when non-zero.
func (s *Server) writeError(w http.ResponseWriter, err error, statusOverride int) {
	stdErr := errors.Normalize(err)
	status := stdErr.HTTPStatus()
	if statusOverride != 0 {
		status = statusOverride
	}
	s.writeJSON(w, status, map[string]interface{}{
		"error":   stdErr.Code,
		"message": stdErr.Message,
	})
}

var _ ShadowReader = (*shadow.Harness)(nil)
var _ Searcher = (*search.Service)(nil)
