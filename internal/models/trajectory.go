package models

import "time"

// TrajectoryPredictionRequest asks the predictor for a candidate's next
// career step. TitleSequence is chronological and must be non-empty.
type TrajectoryPredictionRequest struct {
	CandidateID     string    `json:"candidateId"`
	TitleSequence   []string  `json:"titleSequence"`
	TenureDurations []float64 `json:"tenureDurations,omitempty"`
}

// TenureRange bounds the predicted tenure in whole months, max >= min >= 1.
type TenureRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TrajectoryPrediction is the predictor's primary output.
// LowConfidence holds exactly when NextRoleConfidence is below the
// configured threshold, and only then is UncertaintyReason populated.
type TrajectoryPrediction struct {
	NextRole           string      `json:"nextRole"`
	NextRoleConfidence float64     `json:"nextRoleConfidence"` // calibrated, [0,1]
	TenureMonths       TenureRange `json:"tenureMonths"`
	Hireability        float64     `json:"hireability"` // [0,100]
	LowConfidence      bool        `json:"lowConfidence"`
	UncertaintyReason  string      `json:"uncertaintyReason,omitempty"`
}

// PredictionEnvelope is the wire shape returned by the trajectory
// prediction service's POST /predict.
type PredictionEnvelope struct {
	CandidateID  string               `json:"candidateId"`
	Prediction   TrajectoryPrediction `json:"prediction"`
	Timestamp    time.Time            `json:"timestamp"`
	ModelVersion string               `json:"modelVersion"`
}
