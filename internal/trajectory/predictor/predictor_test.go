package predictor

import (
	"math"
	"testing"

	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel returns a fixed output regardless of input.
type stubModel struct {
	out ModelOutput
	err error
}

func (m *stubModel) Infer(EncodedSequence) (ModelOutput, error) { return m.out, m.err }
func (m *stubModel) Version() string                            { return "stub-1" }

func newTestPredictor(out ModelOutput, calibrator *Calibrator) *Predictor {
	artifacts := &LoadedArtifacts{
		Model:       &stubModel{out: out},
		Encoder:     NewEncoder(map[string]int{"software engineer": 1}),
		Roles:       []string{"unknown", "software engineer", "senior software engineer", "staff engineer"},
		Calibration: calibrator,
	}
	return New(Config{ConfidenceThreshold: 0.6}, artifacts, logger.NewNoOpLogger())
}

func confidentOutput() ModelOutput {
	return ModelOutput{
		Logits:          []float64{-4, -2, 6, -3}, // role 2 dominates
		TenureMinMonths: 17.6,
		TenureMaxMonths: 30.2,
		Hireability:     0.82,
	}
}

func TestPredict_HighConfidence(t *testing.T) {
	p := newTestPredictor(confidentOutput(), nil)

	pred, err := p.Predict(models.TrajectoryPredictionRequest{
		CandidateID:   "c1",
		TitleSequence: []string{"engineer", "software engineer", "senior engineer"},
	})
	require.NoError(t, err)

	assert.Equal(t, "senior software engineer", pred.NextRole)
	assert.Greater(t, pred.NextRoleConfidence, 0.6)
	assert.False(t, pred.LowConfidence)
	assert.Empty(t, pred.UncertaintyReason)
	assert.Equal(t, models.TenureRange{Min: 18, Max: 30}, pred.TenureMonths)
	assert.InDelta(t, 82.0, pred.Hireability, 1e-9)
}

func TestPredict_EmptySequenceRejected(t *testing.T) {
	p := newTestPredictor(confidentOutput(), nil)
	_, err := p.Predict(models.TrajectoryPredictionRequest{CandidateID: "c1"})
	assert.Error(t, err)
}

func TestPredict_LowConfidenceInvariant(t *testing.T) {
	// Uniform logits: raw confidence 0.25 < 0.6.
	out := confidentOutput()
	out.Logits = []float64{1, 1, 1, 1}
	p := newTestPredictor(out, nil)

	pred, err := p.Predict(models.TrajectoryPredictionRequest{
		CandidateID:   "c1",
		TitleSequence: []string{"a", "b", "c", "d"},
	})
	require.NoError(t, err)

	assert.True(t, pred.LowConfidence)
	assert.Equal(t, pred.LowConfidence, pred.NextRoleConfidence < 0.6)
	assert.NotEmpty(t, pred.UncertaintyReason)
}

func TestPredict_UncertaintyReasonPriority(t *testing.T) {
	tests := []struct {
		name       string
		titles     []string
		logits     []float64
		wantReason string
	}{
		{
			name:       "short history wins over ambiguity",
			titles:     []string{"engineer", "senior engineer"},
			logits:     []float64{1, 1, 1, 1},
			wantReason: ReasonInsufficientHistory,
		},
		{
			name:       "ambiguous top-two gap",
			titles:     []string{"a", "b", "c"},
			logits:     []float64{-8, 2.0, 2.1, -8}, // top1-top2 < 0.1, entropy low
			wantReason: ReasonAmbiguousNextRole,
		},
		{
			name:       "high entropy pattern",
			titles:     []string{"a", "b", "c"},
			logits:     []float64{-0.916, -1.273, -1.715, -1.966}, // spread but unambiguous winner
			wantReason: ReasonUnusualPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := confidentOutput()
			out.Logits = tt.logits
			p := newTestPredictor(out, nil)

			pred, err := p.Predict(models.TrajectoryPredictionRequest{
				CandidateID:   "c1",
				TitleSequence: tt.titles,
			})
			require.NoError(t, err)
			require.True(t, pred.LowConfidence)
			assert.Equal(t, tt.wantReason, pred.UncertaintyReason)
		})
	}
}

func TestPredict_GenericReasonWhenNoSpecificCause(t *testing.T) {
	// One clear winner but calibration pushes confidence below threshold.
	calibrator, err := NewCalibrator([]float64{0.0, 1.0}, []float64{0.0, 0.5})
	require.NoError(t, err)

	out := confidentOutput() // peaked distribution: no ambiguity, low entropy
	p := newTestPredictor(out, calibrator)

	pred, err := p.Predict(models.TrajectoryPredictionRequest{
		CandidateID:   "c1",
		TitleSequence: []string{"a", "b", "c", "d"},
	})
	require.NoError(t, err)
	require.True(t, pred.LowConfidence)
	assert.Equal(t, ReasonGenericLowConfidence, pred.UncertaintyReason)
}

func TestPredict_TenureBounds(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
		want     models.TenureRange
	}{
		{name: "rounds to nearest month", min: 17.6, max: 30.2, want: models.TenureRange{Min: 18, Max: 30}},
		{name: "min clamped to 1", min: -3.2, max: 0.4, want: models.TenureRange{Min: 1, Max: 1}},
		{name: "max clamped to min", min: 12.0, max: 9.0, want: models.TenureRange{Min: 12, Max: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := confidentOutput()
			out.TenureMinMonths = tt.min
			out.TenureMaxMonths = tt.max
			p := newTestPredictor(out, nil)

			pred, err := p.Predict(models.TrajectoryPredictionRequest{
				CandidateID:   "c1",
				TitleSequence: []string{"a", "b", "c"},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred.TenureMonths)
		})
	}
}

func TestPredict_UnknownRoleIndexDecodesSentinel(t *testing.T) {
	out := confidentOutput()
	out.Logits = []float64{1, 2, 3, 4, 99} // winner index 4 is outside the role table
	p := newTestPredictor(out, nil)

	pred, err := p.Predict(models.TrajectoryPredictionRequest{
		CandidateID:   "c1",
		TitleSequence: []string{"a", "b", "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, UnknownRole, pred.NextRole)
}

type recordingObserver struct {
	requests    []models.TrajectoryPredictionRequest
	predictions []models.TrajectoryPrediction
}

func (r *recordingObserver) Observe(req models.TrajectoryPredictionRequest, pred models.TrajectoryPrediction) {
	r.requests = append(r.requests, req)
	r.predictions = append(r.predictions, pred)
}

func TestPredict_NotifiesObserver(t *testing.T) {
	p := newTestPredictor(confidentOutput(), nil)
	obs := &recordingObserver{}
	p.SetObserver(obs)

	pred, err := p.Predict(models.TrajectoryPredictionRequest{
		CandidateID:   "c1",
		TitleSequence: []string{"a", "b", "c"},
	})
	require.NoError(t, err)
	require.Len(t, obs.predictions, 1)
	assert.Equal(t, pred, obs.predictions[0])
	assert.Equal(t, "c1", obs.requests[0].CandidateID)
}

func TestSoftmax_StableAndNormalized(t *testing.T) {
	probs := softmax([]float64{1000, 1001, 999})

	sum := 0.0
	for _, p := range probs {
		require.False(t, math.IsNaN(p))
		require.False(t, math.IsInf(p, 0))
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, 1, argmax(probs))
}

func TestNormalizedEntropy(t *testing.T) {
	assert.InDelta(t, 1.0, normalizedEntropy([]float64{0.25, 0.25, 0.25, 0.25}), 1e-9)
	assert.InDelta(t, 0.0, normalizedEntropy([]float64{1, 0, 0, 0}), 1e-9)
}
