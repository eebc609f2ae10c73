package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnvelope(candidateID string) models.PredictionEnvelope {
	return models.PredictionEnvelope{
		CandidateID: candidateID,
		Prediction: models.TrajectoryPrediction{
			NextRole:           "staff engineer",
			NextRoleConfidence: 0.82,
			TenureMonths:       models.TenureRange{Min: 18, Max: 30},
			Hireability:        74,
			LowConfidence:      false,
		},
		Timestamp:    time.Now().UTC(),
		ModelVersion: "2024-06-01",
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:          baseURL,
		Enabled:          true,
		Timeout:          200 * time.Millisecond,
		FailureThreshold: 3,
		Cooldown:         30 * time.Millisecond,
	}, logger.NewNoOpLogger())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func predictRequest() models.TrajectoryPredictionRequest {
	return models.TrajectoryPredictionRequest{
		CandidateID:   "cand-1",
		TitleSequence: []string{"engineer", "senior engineer"},
	}
}

func TestPredict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req models.TrajectoryPredictionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cand-1", req.CandidateID)

		json.NewEncoder(w).Encode(validEnvelope(req.CandidateID))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	pred := c.Predict(context.Background(), predictRequest())
	require.NotNil(t, pred)
	assert.Equal(t, "staff engineer", pred.NextRole)
	assert.InDelta(t, 0.82, pred.NextRoleConfidence, 1e-9)
	assert.True(t, c.IsAvailable())
}

func TestPredict_NeverReturnsErrorOnFailureModes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("{not json"))
			},
		},
		{
			name: "schema violation",
			handler: func(w http.ResponseWriter, r *http.Request) {
				// Missing the prediction object entirely.
				w.Write([]byte(`{"candidateId":"cand-1","timestamp":"now","modelVersion":"v1"}`))
			},
		},
		{
			name: "confidence out of range",
			handler: func(w http.ResponseWriter, r *http.Request) {
				env := validEnvelope("cand-1")
				env.Prediction.NextRoleConfidence = 3.5
				json.NewEncoder(w).Encode(env)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			assert.Nil(t, c.Predict(context.Background(), predictRequest()))
		})
	}
}

func TestPredict_TimeoutCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:          srv.URL,
		Enabled:          true,
		Timeout:          30 * time.Millisecond,
		FailureThreshold: 3,
		Cooldown:         time.Minute,
	}, logger.NewNoOpLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Predict(context.Background(), predictRequest()))
	assert.Equal(t, 1, c.BreakerState().Failures)
}

func TestPredict_CallerCancellationDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(validEnvelope("cand-1"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A burst of already-cancelled callers, as when a search request is
	// abandoned mid-flight, says nothing about predictor health.
	for i := 0; i < 10; i++ {
		assert.Nil(t, c.Predict(ctx, predictRequest()))
	}
	assert.True(t, c.IsAvailable())
	assert.Zero(t, c.BreakerState().Failures)
}

func TestPredict_CircuitOpensAfterFourFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	for i := 0; i < 4; i++ {
		assert.Nil(t, c.Predict(context.Background(), predictRequest()))
	}
	assert.False(t, c.IsAvailable())
	require.EqualValues(t, 4, hits.Load())

	// Open circuit: no network attempt at all.
	assert.Nil(t, c.Predict(context.Background(), predictRequest()))
	assert.EqualValues(t, 4, hits.Load())
}

func TestPredict_RecoversAfterCooldownAndSuccess(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(validEnvelope("cand-1"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL) // 30ms cooldown

	for i := 0; i < 4; i++ {
		c.Predict(context.Background(), predictRequest())
	}
	require.False(t, c.IsAvailable())

	failing.Store(false)
	time.Sleep(60 * time.Millisecond)

	pred := c.Predict(context.Background(), predictRequest())
	require.NotNil(t, pred, "probe after cooldown succeeds")
	assert.True(t, c.IsAvailable())
	assert.Zero(t, c.BreakerState().Failures)
}

func TestPredict_DisabledFeature(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Enabled: false}, logger.NewNoOpLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Predict(context.Background(), predictRequest()))
	assert.False(t, c.IsAvailable())
	assert.Zero(t, hits.Load(), "disabled client must not touch the network")
}

func TestHealthCheck_BypassesOpenCircuit(t *testing.T) {
	var healthHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			healthHits.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	for i := 0; i < 4; i++ {
		c.Predict(context.Background(), predictRequest())
	}
	require.False(t, c.IsAvailable())

	assert.NoError(t, c.HealthCheck(context.Background()))
	assert.EqualValues(t, 1, healthHits.Load())
	// Probing health does not alter breaker state.
	assert.False(t, c.IsAvailable())
}

func TestHealthCheck_ReportsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	assert.Error(t, c.HealthCheck(context.Background()))
}
