// Package scoring combines the fused base score with the trajectory
// signal and other externally supplied normalized signals into one
// explainable final score.
package scoring

import (
	"fmt"

	"github.com/talentlake/talentrank/internal/common/config"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"
)

// Reason thresholds. Reasons are pattern-generated, never free text.
const (
	skillsExactReasonMin      = 0.8
	techStackReasonMin        = 0.7
	specialtyReasonMin        = 0.8
	trajectoryReasonMin       = 0.7
	companyPedigreeReasonMin  = 0.8
	seniorityReasonMin        = 0.8
	vectorSimilarityReasonMin = 0.85
)

// Scorer computes weighted signal sums with a fixed weight table.
type Scorer struct {
	weights config.SignalWeights
	logger  logger.Logger
}

func NewScorer(weights config.SignalWeights, log logger.Logger) *Scorer {
	return &Scorer{
		weights: weights,
		logger:  log.WithFields(map[string]interface{}{"component": "multi-signal-scorer"}),
	}
}

// Score produces the final ranked result for one candidate. The score is
// the weighted sum over whichever signals are present; an absent signal
// contributes nothing to the sum and does not appear in weightsApplied.
// Weights are never renormalized over the present subset, so a predictor
// outage cannot reorder candidates that tie on the remaining signals.
func (s *Scorer) Score(
	fused models.FusedCandidate,
	signals models.SignalScores,
	profile *models.CandidateProfile,
	prediction *models.TrajectoryPrediction,
) models.ScoredCandidate {
	// The fused vector raw score doubles as the similarity signal when the
	// feature source did not supply one.
	if signals.VectorSimilarity == nil && fused.VectorScore != nil {
		signals.VectorSimilarity = clamped(*fused.VectorScore)
	}

	// The trajectory signal exists only when the client produced a
	// prediction. On outage both the signal and its weight are omitted.
	if prediction != nil {
		signals.TrajectoryFit = clamped(prediction.Hireability / 100.0)
	} else {
		signals.TrajectoryFit = nil
	}

	score := 0.0
	applied := make(map[string]float64)
	signals.Each(func(name string, value float64) {
		w := s.weightFor(name)
		score += w * value
		applied[name] = w
	})

	result := models.ScoredCandidate{
		CandidateID:    fused.CandidateID,
		Score:          score,
		SignalScores:   signals,
		WeightsApplied: applied,
		MatchReasons:   s.matchReasons(signals, profile, prediction),
		MLTrajectory:   prediction,
	}

	if profile != nil {
		result.FullName = profile.FullName
		result.Title = profile.Title
		result.Headline = profile.Headline
		result.Location = profile.Location
		result.Country = profile.Country
		result.Metadata = profile.Metadata
		result.Skills = profile.Skills
		result.Industries = profile.Industries
		result.YearsExperience = profile.YearsExperience
	}

	return result
}

func (s *Scorer) weightFor(name string) float64 {
	switch name {
	case models.SignalFusedBase:
		return s.weights.FusedBase
	case models.SignalVectorSimilarity:
		return s.weights.VectorSimilarity
	case models.SignalLevelMatch:
		return s.weights.LevelMatch
	case models.SignalSpecialtyMatch:
		return s.weights.SpecialtyMatch
	case models.SignalTechStackMatch:
		return s.weights.TechStackMatch
	case models.SignalFunctionMatch:
		return s.weights.FunctionMatch
	case models.SignalTrajectoryFit:
		return s.weights.TrajectoryFit
	case models.SignalCompanyPedigree:
		return s.weights.CompanyPedigree
	case models.SignalSkillsExactMatch:
		return s.weights.SkillsExactMatch
	case models.SignalSkillsInferred:
		return s.weights.SkillsInferred
	case models.SignalSeniorityAlignment:
		return s.weights.SeniorityAlignment
	case models.SignalRecencyBoost:
		return s.weights.RecencyBoost
	case models.SignalCompanyRelevance:
		return s.weights.CompanyRelevance
	default:
		return 0
	}
}

// matchReasons generates templated explanation strings for signals that
// cross their fixed thresholds.
func (s *Scorer) matchReasons(
	signals models.SignalScores,
	profile *models.CandidateProfile,
	prediction *models.TrajectoryPrediction,
) []string {
	reasons := []string{}

	if above(signals.SkillsExactMatch, skillsExactReasonMin) {
		if skill := topSkill(profile); skill != "" {
			reasons = append(reasons, fmt.Sprintf("Strong skill match for %s", skill))
		} else {
			reasons = append(reasons, "Strong skill match")
		}
	}
	if above(signals.TechStackMatch, techStackReasonMin) {
		reasons = append(reasons, "Tech stack aligned with role requirements")
	}
	if above(signals.SpecialtyMatch, specialtyReasonMin) {
		reasons = append(reasons, "Specialty closely matches the search")
	}
	if above(signals.SeniorityAlignment, seniorityReasonMin) {
		reasons = append(reasons, "Seniority aligned with target level")
	}
	if above(signals.CompanyPedigree, companyPedigreeReasonMin) {
		reasons = append(reasons, "Experience at top-tier companies")
	}
	if above(signals.VectorSimilarity, vectorSimilarityReasonMin) {
		reasons = append(reasons, "Profile strongly similar to the search")
	}
	if prediction != nil && above(signals.TrajectoryFit, trajectoryReasonMin) {
		reasons = append(reasons, fmt.Sprintf("Career trajectory points to %s", prediction.NextRole))
	}

	return reasons
}

func above(v *float64, threshold float64) bool {
	return v != nil && *v > threshold
}

func topSkill(profile *models.CandidateProfile) string {
	if profile == nil || len(profile.Skills) == 0 {
		return ""
	}
	best := profile.Skills[0]
	for _, sk := range profile.Skills[1:] {
		if sk.Weight > best.Weight {
			best = sk
		}
	}
	return best.Name
}

func clamped(v float64) *float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}
