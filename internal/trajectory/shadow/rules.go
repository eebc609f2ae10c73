// Package shadow validates the ML trajectory predictor against the
// legacy rule-based heuristic without ever touching the serving path.
package shadow

import (
	"strings"

	"github.com/talentlake/talentrank/internal/models"
)

// Tenure thresholds in months shared by both judgment paths. The paths
// themselves stay independent; only the constants are common.
const (
	fastTenureMonths = 24
	slowTenureMonths = 48
)

// seniority levels inferred from title keywords, most senior first so
// "senior director" resolves to director.
var levelKeywords = []struct {
	keyword string
	level   int
}{
	{"chief", 9},
	{"vice president", 8},
	{"vp", 8},
	{"director", 7},
	{"head of", 7},
	{"manager", 6},
	{"principal", 5},
	{"staff", 5},
	{"lead", 5},
	{"senior", 4},
	{"junior", 2},
	{"intern", 1},
	{"trainee", 1},
}

var leadershipKeywords = []string{
	"manager", "director", "head of", "vp", "vice president", "chief", "lead",
}

var growthKeywords = []string{
	"senior", "staff", "principal", "architect", "distinguished",
}

var disciplineKeywords = []string{
	"engineer", "developer", "scientist", "analyst", "designer",
	"product", "marketing", "sales", "operations", "finance", "recruiter",
}

// RuleBridge recomputes the three categorical trajectory judgments
// directly from raw history. It is deliberately ignorant of the model.
type RuleBridge struct{}

func NewRuleBridge() *RuleBridge {
	return &RuleBridge{}
}

// Judge derives direction, velocity, and type from the raw title
// sequence and tenure durations.
func (r *RuleBridge) Judge(titleSequence []string, tenureDurations []float64) models.TrajectoryJudgment {
	return models.TrajectoryJudgment{
		Direction: r.direction(titleSequence),
		Velocity:  r.velocity(tenureDurations),
		Type:      r.trajectoryType(titleSequence),
	}
}

// direction compares inferred seniority of the most recent transition.
func (r *RuleBridge) direction(titles []string) string {
	if len(titles) < 2 {
		return models.DirectionLateral
	}
	prev := titleLevel(titles[len(titles)-2])
	last := titleLevel(titles[len(titles)-1])
	switch {
	case last > prev:
		return models.DirectionUpward
	case last < prev:
		return models.DirectionDownward
	default:
		return models.DirectionLateral
	}
}

// velocity buckets the mean tenure per role.
func (r *RuleBridge) velocity(tenures []float64) string {
	if len(tenures) == 0 {
		return models.VelocityNormal
	}
	sum := 0.0
	for _, t := range tenures {
		sum += t
	}
	mean := sum / float64(len(tenures))
	switch {
	case mean < fastTenureMonths:
		return models.VelocityFast
	case mean > slowTenureMonths:
		return models.VelocitySlow
	default:
		return models.VelocityNormal
	}
}

// trajectoryType classifies the most recent move by title keywords.
func (r *RuleBridge) trajectoryType(titles []string) string {
	if len(titles) == 0 {
		return models.TypeLateralMove
	}
	last := strings.ToLower(titles[len(titles)-1])

	if len(titles) >= 2 {
		prev := strings.ToLower(titles[len(titles)-2])
		prevDiscipline := discipline(prev)
		lastDiscipline := discipline(last)
		if prevDiscipline != "" && lastDiscipline != "" && prevDiscipline != lastDiscipline {
			return models.TypeCareerPivot
		}
	}

	if containsAny(last, leadershipKeywords) {
		return models.TypeLeadershipTrack
	}
	if containsAny(last, growthKeywords) {
		return models.TypeTechnicalGrowth
	}
	return models.TypeLateralMove
}

func titleLevel(title string) int {
	lowered := strings.ToLower(title)
	for _, lk := range levelKeywords {
		if strings.Contains(lowered, lk.keyword) {
			return lk.level
		}
	}
	return 3 // mid-level default
}

func discipline(title string) string {
	for _, d := range disciplineKeywords {
		if strings.Contains(title, d) {
			return d
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
