// Package predictor turns a candidate's title history into a next-role
// prediction with calibrated confidence and, when confidence is low, a
// stated reason.
package predictor

import (
	"fmt"
	"math"

	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"
)

const (
	// DefaultConfidenceThreshold separates low-confidence predictions.
	DefaultConfidenceThreshold = 0.6

	// UnknownRole is the sentinel decoded for an out-of-vocabulary index.
	UnknownRole = "unknown"

	// Uncertainty reasons, checked in priority order.
	ReasonInsufficientHistory  = "insufficient career history"
	ReasonAmbiguousNextRole    = "ambiguous next role"
	ReasonUnusualPattern       = "unusual career pattern"
	ReasonGenericLowConfidence = "low prediction confidence"

	minHistoryForConfidence = 3
	ambiguityGap            = 0.1
	entropyCeiling          = 0.8
)

// Observer receives every prediction for shadow validation. The observer
// must never block or influence the primary response.
type Observer interface {
	Observe(req models.TrajectoryPredictionRequest, prediction models.TrajectoryPrediction)
}

// Config holds the predictor parameters.
type Config struct {
	ConfidenceThreshold float64
}

// Predictor runs the encode, infer, calibrate, explain pipeline. Model,
// encoder, roles, and calibration table are immutable shared-read
// singletons; Predictor itself is safe for concurrent use.
type Predictor struct {
	config     Config
	model      Model
	encoder    *Encoder
	roles      []string
	calibrator *Calibrator
	observer   Observer
	logger     logger.Logger
}

func New(config Config, artifacts *LoadedArtifacts, log logger.Logger) *Predictor {
	if config.ConfidenceThreshold == 0 {
		config.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	calibrator := artifacts.Calibration
	if calibrator == nil {
		calibrator = Identity()
	}
	return &Predictor{
		config:     config,
		model:      artifacts.Model,
		encoder:    artifacts.Encoder,
		roles:      artifacts.Roles,
		calibrator: calibrator,
		logger:     log.WithFields(map[string]interface{}{"component": "trajectory-predictor"}),
	}
}

// SetObserver attaches the shadow harness. Call before serving; the
// observer is not guarded for concurrent replacement.
func (p *Predictor) SetObserver(obs Observer) {
	p.observer = obs
}

// ModelVersion reports the loaded model version.
func (p *Predictor) ModelVersion() string {
	return p.model.Version()
}

// Predict runs the full pipeline for one candidate.
func (p *Predictor) Predict(req models.TrajectoryPredictionRequest) (models.TrajectoryPrediction, error) {
	if len(req.TitleSequence) == 0 {
		return models.TrajectoryPrediction{}, fmt.Errorf("titleSequence must not be empty")
	}

	seq := p.encoder.Encode(req.TitleSequence)

	out, err := p.model.Infer(seq)
	if err != nil {
		return models.TrajectoryPrediction{}, fmt.Errorf("inference failed: %w", err)
	}

	probs := softmax(out.Logits)
	winner := argmax(probs)

	calibrated := p.calibrator.Calibrate(probs[winner])
	lowConfidence := calibrated < p.config.ConfidenceThreshold

	prediction := models.TrajectoryPrediction{
		NextRole:           p.decodeRole(winner),
		NextRoleConfidence: calibrated,
		TenureMonths:       roundTenure(out.TenureMinMonths, out.TenureMaxMonths),
		Hireability:        clamp(out.Hireability*100.0, 0, 100),
		LowConfidence:      lowConfidence,
	}

	if lowConfidence {
		prediction.UncertaintyReason = uncertaintyReason(req.TitleSequence, probs)
	}

	if p.observer != nil {
		p.observer.Observe(req, prediction)
	}

	return prediction, nil
}

func (p *Predictor) decodeRole(index int) string {
	if index < 0 || index >= len(p.roles) {
		return UnknownRole
	}
	return p.roles[index]
}

// uncertaintyReason picks exactly one reason, in priority order.
func uncertaintyReason(titleSequence []string, probs []float64) string {
	if len(titleSequence) < minHistoryForConfidence {
		return ReasonInsufficientHistory
	}
	if top1, top2 := topTwo(probs); top1-top2 < ambiguityGap {
		return ReasonAmbiguousNextRole
	}
	if normalizedEntropy(probs) > entropyCeiling {
		return ReasonUnusualPattern
	}
	return ReasonGenericLowConfidence
}

// softmax converts logits to probabilities with max-subtraction for
// numerical stability.
func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, l := range logits[1:] {
		if l > max {
			max = l
		}
	}

	probs := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		probs[i] = math.Exp(l - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func topTwo(probs []float64) (float64, float64) {
	top1, top2 := 0.0, 0.0
	for _, p := range probs {
		if p > top1 {
			top1, top2 = p, top1
		} else if p > top2 {
			top2 = p
		}
	}
	return top1, top2
}

// normalizedEntropy is Shannon entropy divided by log(n), in [0,1].
func normalizedEntropy(probs []float64) float64 {
	if len(probs) < 2 {
		return 0
	}
	h := 0.0
	for _, p := range probs {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h / math.Log(float64(len(probs)))
}

// roundTenure rounds to whole months and enforces max >= min >= 1.
func roundTenure(min, max float64) models.TenureRange {
	lo := int(math.Round(min))
	hi := int(math.Round(max))
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return models.TenureRange{Min: lo, Max: hi}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
