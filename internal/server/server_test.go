package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talentlake/talentrank/internal/common/config"
	"github.com/talentlake/talentrank/internal/common/errors"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	resp *models.SearchResponse
	err  error
	last models.SearchRequest
}

func (s *stubSearcher) Search(_ context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	s.last = req
	return s.resp, s.err
}

type stubShadow struct {
	stats  models.ShadowStats
	recent []models.ShadowComparison
	limit  int
}

func (s *stubShadow) Stats() models.ShadowStats { return s.stats }

func (s *stubShadow) Recent(_ context.Context, limit int) ([]models.ShadowComparison, error) {
	s.limit = limit
	return s.recent, nil
}

func newTestServer(searcher Searcher, shadowReader ShadowReader, readiness func() bool) *Server {
	return New(
		config.ServerConfig{Address: ":0"},
		config.AppConfig{Name: "talentrank", Version: "1.0.0"},
		searcher, shadowReader, readiness,
		logger.NewNoOpLogger(),
	)
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &stubSearcher{resp: &models.SearchResponse{
		Results:   []models.ScoredCandidate{{CandidateID: "cand-1", Score: 0.8}},
		Total:     1,
		RequestID: "req-1",
	}}
	srv := newTestServer(searcher, nil, nil)

	body := `{"tenantId":"tenant-1","query":"senior golang engineer","limit":10}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "tenant-1", searcher.last.TenantID)
	assert.Equal(t, 10, searcher.last.Limit)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "req-1", resp.RequestID)
}

func TestSearchEndpointRejectsGet(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSearchEndpointMalformedBody(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
}

func TestSearchEndpointMapsErrorStatus(t *testing.T) {
	searcher := &stubSearcher{err: errors.NewRetrievalFailedError(assert.AnError)}
	srv := newTestServer(searcher, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"tenantId":"t","query":"q"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "RETRIEVAL_FAILED")
}

func TestShadowStatsEndpoint(t *testing.T) {
	shadowReader := &stubShadow{stats: models.ShadowStats{
		DirectionAgreement: 0.9,
		VelocityAgreement:  0.85,
		TypeAgreement:      0.7,
		TotalComparisons:   1500,
		PromotionReady:     true,
		PromotionDetails:   models.PromotionDetails{DirectionOK: true, VelocityOK: true, ComparisonsOK: true},
		Thresholds: models.ShadowThresholds{
			DirectionAgreementMin: 0.85,
			VelocityAgreementMin:  0.80,
			MinComparisons:        1000,
		},
	}}
	srv := newTestServer(&stubSearcher{}, shadowReader, nil)

	req := httptest.NewRequest(http.MethodGet, "/shadow/stats", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var stats models.ShadowStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.True(t, stats.PromotionReady)
	assert.Equal(t, int64(1500), stats.TotalComparisons)
	assert.Equal(t, 0.85, stats.Thresholds.DirectionAgreementMin)
}

func TestShadowRecentEndpoint(t *testing.T) {
	shadowReader := &stubShadow{recent: []models.ShadowComparison{{CandidateID: "cand-1"}}}
	srv := newTestServer(&stubSearcher{}, shadowReader, nil)

	req := httptest.NewRequest(http.MethodGet, "/shadow/recent?limit=5", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, shadowReader.limit)
	assert.Contains(t, rec.Body.String(), "cand-1")
}

func TestShadowRecentRejectsBadLimit(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, &stubShadow{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/shadow/recent?limit=nope", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShadowEndpointsWhenDisabled(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, nil, nil)

	for _, path := range []string{"/shadow/stats", "/shadow/recent"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ready := true
	srv := newTestServer(&stubSearcher{}, nil, func() bool { return ready })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "talentrank")

	ready = false
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "PREDICTOR_NOT_READY")
}

type stubRecorder struct {
	statuses  []string
	durations int
}

func (r *stubRecorder) RecordRequest(_ context.Context, status string) {
	r.statuses = append(r.statuses, status)
}

func (r *stubRecorder) RecordDuration(_ context.Context, _ time.Duration, _ string) {
	r.durations++
}

func TestSearchRecordsRequestOutcome(t *testing.T) {
	searcher := &stubSearcher{resp: &models.SearchResponse{RequestID: "req-1"}}
	srv := newTestServer(searcher, nil, nil)
	recorder := &stubRecorder{}
	srv.SetRecorder(recorder)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"tenantId":"t1","query":"golang"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"success"}, recorder.statuses)
	assert.Equal(t, 1, recorder.durations)

	searcher.err = errors.NewRetrievalFailedError(context.DeadlineExceeded)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"tenantId":"t1","query":"golang"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, []string{"success", "error"}, recorder.statuses)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&stubSearcher{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
