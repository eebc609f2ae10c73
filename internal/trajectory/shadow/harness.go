package shadow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talentlake/talentrank/internal/common/errors"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/common/metrics"
	"github.com/talentlake/talentrank/internal/models"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 30 * time.Second
	flushQueueCapacity   = 32
	maxFlushAttempts     = 3
	flushTimeout         = 5 * time.Second
)

// Config holds the harness parameters.
type Config struct {
	BatchSize             int
	FlushInterval         time.Duration
	DirectionAgreementMin float64
	VelocityAgreementMin  float64
	MinComparisons        int
}

// Harness records rule-vs-ML trajectory comparisons off the serving
// path. It implements the predictor's Observer interface: Observe never
// blocks on storage and never surfaces errors to the caller.
type Harness struct {
	config Config
	rules  *RuleBridge
	store  ComparisonStore
	logger logger.Logger

	total         atomic.Int64
	directionHits atomic.Int64
	velocityHits  atomic.Int64
	typeHits      atomic.Int64

	mu     sync.Mutex
	buffer []models.ShadowComparison

	flushQueue chan []models.ShadowComparison
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

func NewHarness(config Config, store ComparisonStore, log logger.Logger) *Harness {
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = defaultFlushInterval
	}

	h := &Harness{
		config:     config,
		rules:      NewRuleBridge(),
		store:      store,
		logger:     log.WithFields(map[string]interface{}{"component": "shadow-harness"}),
		buffer:     make([]models.ShadowComparison, 0, config.BatchSize),
		flushQueue: make(chan []models.ShadowComparison, flushQueueCapacity),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// Observe compares the rule-based and ML judgments for one prediction
// and buffers the comparison for asynchronous persistence.
func (h *Harness) Observe(req models.TrajectoryPredictionRequest, prediction models.TrajectoryPrediction) {
	ruleBased := h.rules.Judge(req.TitleSequence, req.TenureDurations)

	lastTitle := ""
	if n := len(req.TitleSequence); n > 0 {
		lastTitle = req.TitleSequence[n-1]
	}
	mlBased := JudgeFromPrediction(prediction, lastTitle)

	agreement := models.AgreementFlags{
		DirectionMatch: ruleBased.Direction == mlBased.Direction,
		VelocityMatch:  ruleBased.Velocity == mlBased.Velocity,
		TypeMatch:      ruleBased.Type == mlBased.Type,
	}

	h.total.Add(1)
	if agreement.DirectionMatch {
		h.directionHits.Add(1)
	}
	if agreement.VelocityMatch {
		h.velocityHits.Add(1)
	}
	if agreement.TypeMatch {
		h.typeHits.Add(1)
	}
	metrics.ShadowComparisons.Inc()

	comparison := models.ShadowComparison{
		CandidateID: req.CandidateID,
		Timestamp:   time.Now().UTC(),
		Agreement:   agreement,
		RuleBased:   ruleBased,
		MLBased:     mlBased,
		InputFeatures: models.ShadowInput{
			TitleSequence:   req.TitleSequence,
			TenureDurations: req.TenureDurations,
		},
	}

	h.mu.Lock()
	h.buffer = append(h.buffer, comparison)
	var batch []models.ShadowComparison
	if len(h.buffer) >= h.config.BatchSize {
		batch = h.buffer
		h.buffer = make([]models.ShadowComparison, 0, h.config.BatchSize)
	}
	h.mu.Unlock()

	if batch != nil {
		h.enqueue(batch)
	}
}

// Stats reports aggregate agreement and promotion readiness. Each
// promotion criterion is reported on its own so a single failing metric
// is visible without recomputing the others.
func (h *Harness) Stats() models.ShadowStats {
	total := h.total.Load()

	ratio := func(hits int64) float64 {
		if total == 0 {
			return 0
		}
		return float64(hits) / float64(total)
	}

	stats := models.ShadowStats{
		DirectionAgreement: ratio(h.directionHits.Load()),
		VelocityAgreement:  ratio(h.velocityHits.Load()),
		TypeAgreement:      ratio(h.typeHits.Load()),
		TotalComparisons:   total,
		Thresholds: models.ShadowThresholds{
			DirectionAgreementMin: h.config.DirectionAgreementMin,
			VelocityAgreementMin:  h.config.VelocityAgreementMin,
			MinComparisons:        h.config.MinComparisons,
		},
	}
	stats.PromotionDetails = models.PromotionDetails{
		DirectionOK:   stats.DirectionAgreement > h.config.DirectionAgreementMin,
		VelocityOK:    stats.VelocityAgreement > h.config.VelocityAgreementMin,
		ComparisonsOK: total > int64(h.config.MinComparisons),
	}
	stats.PromotionReady = stats.PromotionDetails.DirectionOK &&
		stats.PromotionDetails.VelocityOK &&
		stats.PromotionDetails.ComparisonsOK
	return stats
}

// Recent returns the most recent persisted comparisons, newest first.
func (h *Harness) Recent(ctx context.Context, limit int) ([]models.ShadowComparison, error) {
	return h.store.Recent(ctx, limit)
}

// Close flushes the remaining buffer and stops the background consumer.
func (h *Harness) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		batch := h.buffer
		h.buffer = nil
		h.mu.Unlock()

		if len(batch) > 0 {
			h.enqueue(batch)
		}
		close(h.stop)
		<-h.done
	})
}

func (h *Harness) enqueue(batch []models.ShadowComparison) {
	select {
	case h.flushQueue <- batch:
	default:
		metrics.ShadowBatchesDropped.Inc()
		h.logger.Warn("shadow flush queue full, dropping batch", map[string]interface{}{
			"batch_size": len(batch),
		})
	}
}

func (h *Harness) run() {
	defer close(h.done)

	ticker := time.NewTicker(h.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case batch := <-h.flushQueue:
			h.flush(batch)
		case <-ticker.C:
			h.mu.Lock()
			batch := h.buffer
			if len(batch) > 0 {
				h.buffer = make([]models.ShadowComparison, 0, h.config.BatchSize)
			}
			h.mu.Unlock()
			if len(batch) > 0 {
				h.flush(batch)
			}
		case <-h.stop:
			for {
				select {
				case batch := <-h.flushQueue:
					h.flush(batch)
				default:
					return
				}
			}
		}
	}
}

// flush attempts to persist a batch, dropping it after three failed
// attempts so a broken store cannot back up the serving path.
func (h *Harness) flush(batch []models.ShadowComparison) {
	for attempt := 1; attempt <= maxFlushAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		err := h.store.Append(ctx, batch)
		cancel()
		if err == nil {
			return
		}

		metrics.ShadowFlushFailures.Inc()
		h.logger.Warn("shadow batch flush failed", map[string]interface{}{
			"attempt":    attempt,
			"batch_size": len(batch),
			"error":      errors.NewShadowFlushFailedError(err).Error(),
		})
	}

	metrics.ShadowBatchesDropped.Inc()
	h.logger.Error("dropping shadow batch after repeated flush failures", map[string]interface{}{
		"batch_size": len(batch),
	})
}
