package shadow

import (
	"strings"

	"github.com/talentlake/talentrank/internal/models"
)

// ML-side hireability cutoffs on the [0,1] probability scale.
const (
	upwardHireabilityMin  = 0.7
	lateralHireabilityMin = 0.4
)

// JudgeFromPrediction maps model output to the three categorical
// judgments via fixed rules. This mapping is deliberately independent of
// the rule-based code path so agreement measurement is not circular.
func JudgeFromPrediction(pred models.TrajectoryPrediction, lastTitle string) models.TrajectoryJudgment {
	return models.TrajectoryJudgment{
		Direction: mlDirection(pred.Hireability / 100.0),
		Velocity:  mlVelocity(pred.TenureMonths),
		Type:      mlType(pred.NextRole, lastTitle),
	}
}

func mlDirection(hireability float64) string {
	switch {
	case hireability > upwardHireabilityMin:
		return models.DirectionUpward
	case hireability >= lateralHireabilityMin:
		return models.DirectionLateral
	default:
		return models.DirectionDownward
	}
}

func mlVelocity(tenure models.TenureRange) string {
	mean := float64(tenure.Min+tenure.Max) / 2.0
	switch {
	case mean < fastTenureMonths:
		return models.VelocityFast
	case mean > slowTenureMonths:
		return models.VelocitySlow
	default:
		return models.VelocityNormal
	}
}

func mlType(nextRole, lastTitle string) string {
	role := strings.ToLower(nextRole)
	last := strings.ToLower(lastTitle)

	roleDiscipline := discipline(role)
	lastDiscipline := discipline(last)
	if roleDiscipline != "" && lastDiscipline != "" && roleDiscipline != lastDiscipline {
		return models.TypeCareerPivot
	}

	if containsAny(role, leadershipKeywords) {
		return models.TypeLeadershipTrack
	}
	if containsAny(role, growthKeywords) {
		return models.TypeTechnicalGrowth
	}
	return models.TypeLateralMove
}
