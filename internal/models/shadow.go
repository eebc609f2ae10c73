package models

import "time"

// Trajectory judgment categories shared by the rule-based bridge and the
// ML-side mapping.
const (
	DirectionUpward   = "upward"
	DirectionLateral  = "lateral"
	DirectionDownward = "downward"

	VelocityFast   = "fast"
	VelocityNormal = "normal"
	VelocitySlow   = "slow"

	TypeTechnicalGrowth = "technical_growth"
	TypeLeadershipTrack = "leadership_track"
	TypeLateralMove     = "lateral_move"
	TypeCareerPivot     = "career_pivot"
)

// TrajectoryJudgment is one coarse career-trajectory classification,
// produced independently by the rule-based bridge and the ML mapping.
type TrajectoryJudgment struct {
	Direction string `json:"direction"`
	Velocity  string `json:"velocity"`
	Type      string `json:"type"`
}

// AgreementFlags records per-dimension agreement for one comparison.
type AgreementFlags struct {
	DirectionMatch bool `json:"directionMatch"`
	VelocityMatch  bool `json:"velocityMatch"`
	TypeMatch      bool `json:"typeMatch"`
}

// ShadowComparison is one rule-vs-ML comparison. Immutable once created
// and never read by the serving path.
type ShadowComparison struct {
	CandidateID   string             `json:"candidateId"`
	Timestamp     time.Time          `json:"timestamp"`
	Agreement     AgreementFlags     `json:"agreement"`
	RuleBased     TrajectoryJudgment `json:"ruleBased"`
	MLBased       TrajectoryJudgment `json:"mlBased"`
	InputFeatures ShadowInput        `json:"inputFeatures"`
}

// ShadowInput captures the raw features both judgments were derived from.
type ShadowInput struct {
	TitleSequence   []string  `json:"titleSequence"`
	TenureDurations []float64 `json:"tenureDurations,omitempty"`
}

// ShadowStats is the aggregate agreement report exposed at /shadow/stats.
type ShadowStats struct {
	DirectionAgreement float64          `json:"directionAgreement"`
	VelocityAgreement  float64          `json:"velocityAgreement"`
	TypeAgreement      float64          `json:"typeAgreement"`
	TotalComparisons   int64            `json:"totalComparisons"`
	PromotionReady     bool             `json:"promotionReady"`
	PromotionDetails   PromotionDetails `json:"promotionDetails"`
	Thresholds         ShadowThresholds `json:"thresholds"`
}

// PromotionDetails reports each promotion criterion independently, so a
// single failing metric is visible on its own.
type PromotionDetails struct {
	DirectionOK   bool `json:"directionOk"`
	VelocityOK    bool `json:"velocityOk"`
	ComparisonsOK bool `json:"comparisonsOk"`
}

// ShadowThresholds echoes the currently configured promotion thresholds.
type ShadowThresholds struct {
	DirectionAgreementMin float64 `json:"directionAgreementMin"`
	VelocityAgreementMin  float64 `json:"velocityAgreementMin"`
	MinComparisons        int     `json:"minComparisons"`
}
