// Package client wraps calls to the external trajectory prediction
// service. The client never surfaces an error: timeout, non-success
// response, malformed payload, and an open circuit all resolve to "no
// prediction".
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/common/metrics"
	"github.com/talentlake/talentrank/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultTimeout is negligible against the overall search latency
// budget; a slow predictor degrades instead of delaying results.
const DefaultTimeout = 100 * time.Millisecond

// predictionSchema validates the /predict response shape before the
// payload is trusted. A violating payload counts as a failure.
const predictionSchema = `{
	"type": "object",
	"required": ["candidateId", "prediction", "timestamp", "modelVersion"],
	"properties": {
		"candidateId": {"type": "string"},
		"timestamp": {"type": "string"},
		"modelVersion": {"type": "string"},
		"prediction": {
			"type": "object",
			"required": ["nextRole", "nextRoleConfidence", "tenureMonths", "hireability", "lowConfidence"],
			"properties": {
				"nextRole": {"type": "string"},
				"nextRoleConfidence": {"type": "number", "minimum": 0, "maximum": 1},
				"hireability": {"type": "number", "minimum": 0, "maximum": 100},
				"lowConfidence": {"type": "boolean"},
				"uncertaintyReason": {"type": "string"},
				"tenureMonths": {
					"type": "object",
					"required": ["min", "max"],
					"properties": {
						"min": {"type": "integer", "minimum": 1},
						"max": {"type": "integer", "minimum": 1}
					}
				}
			}
		}
	}
}`

// Config holds the prediction client parameters.
type Config struct {
	BaseURL          string
	Enabled          bool
	Timeout          time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

// Client is the resilient prediction client. One instance per process;
// the breaker it owns is never shared globally.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *CircuitBreaker
	schema     *gojsonschema.Schema
	logger     logger.Logger
}

func NewClient(config Config, log logger.Logger) (*Client, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(predictionSchema))
	if err != nil {
		return nil, fmt.Errorf("prediction schema: %w", err)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    NewCircuitBreaker(config.FailureThreshold, config.Cooldown),
		schema:     schema,
		logger:     log.WithFields(map[string]interface{}{"component": "trajectory-client"}),
	}, nil
}

// IsAvailable reports whether predictions can currently be served:
// circuit closed AND feature enabled.
func (c *Client) IsAvailable() bool {
	return c.config.Enabled && c.breaker.Closed()
}

// BreakerState exposes the breaker snapshot for health reporting.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

// Predict requests a trajectory prediction. It returns nil, never an
// error, when the feature is disabled, the circuit is open, the call
// times out, the response is non-2xx, or the payload is malformed.
func (c *Client) Predict(ctx context.Context, req models.TrajectoryPredictionRequest) *models.TrajectoryPrediction {
	if !c.config.Enabled {
		metrics.PredictionOutcomes.WithLabelValues("disabled").Inc()
		return nil
	}
	if !c.breaker.Allow() {
		metrics.PredictionOutcomes.WithLabelValues("circuit_open").Inc()
		return nil
	}

	prediction, outcome := c.doPredict(ctx, req)
	metrics.PredictionOutcomes.WithLabelValues(outcome).Inc()

	// A cancelled caller says nothing about predictor health, so it
	// must not move the breaker toward open.
	if outcome == "cancelled" {
		return nil
	}

	if prediction == nil {
		c.breaker.RecordFailure()
		c.logger.Debug("prediction unavailable", map[string]interface{}{
			"candidateId": req.CandidateID,
			"outcome":     outcome,
		})
		return nil
	}

	c.breaker.RecordSuccess()
	return prediction
}

func (c *Client) doPredict(ctx context.Context, req models.TrajectoryPredictionRequest) (*models.TrajectoryPrediction, string) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, "bad_payload"
	}

	// The hard timeout doubles as the cancellation signal for the
	// outbound call; no inline retry is attempted.
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.config.BaseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, "bad_payload"
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, "cancelled"
		}
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, "timeout"
		}
		return nil, "http_error"
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "http_error"
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, "http_error"
	}

	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil || !result.Valid() {
		return nil, "bad_payload"
	}

	var envelope models.PredictionEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, "bad_payload"
	}

	return &envelope.Prediction, "success"
}

// HealthCheck probes the prediction service's liveness endpoint. It
// bypasses the circuit breaker and does not touch breaker state.
func (c *Client) HealthCheck(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prediction service unhealthy: %s", resp.Status)
	}
	return nil
}

// Close disposes the client, cancelling any pending cooldown timer.
func (c *Client) Close() {
	c.breaker.Dispose()
}
