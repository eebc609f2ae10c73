package search

import (
	"strings"

	"github.com/talentlake/talentrank/internal/bias"
	"github.com/talentlake/talentrank/internal/models"
)

// Company tier contribution to the pedigree signal. Removed entirely by
// the anonymizer, so these values never leak into anonymized output.
var tierPedigree = map[string]float64{
	models.TierFaang:      1.0,
	models.TierEnterprise: 0.7,
	models.TierStartup:    0.5,
	models.TierOther:      0.2,
}

var seniorityTerms = []string{
	"intern", "junior", "senior", "staff", "principal", "lead", "manager", "director",
}

// BuildSignals derives the profile-backed signals for one candidate. A
// signal whose source data is missing stays nil; it is never defaulted.
func BuildSignals(query string, profile *models.CandidateProfile) models.SignalScores {
	var signals models.SignalScores
	if profile == nil {
		return signals
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenize(queryLower)

	signals.SkillsExactMatch, signals.SkillsInferred = skillSignals(queryTokens, profile.Skills)
	signals.SpecialtyMatch = specialtySignal(queryLower, profile)
	signals.SeniorityAlignment = senioritySignal(queryLower, profile.Title)
	signals.LevelMatch = signals.SeniorityAlignment
	signals.FunctionMatch = functionSignal(queryLower, profile.Title)
	signals.TechStackMatch = techStackSignal(queryTokens, profile.Skills)

	if len(profile.Companies) > 0 {
		tier := bias.CompanyTier(profile.Companies)
		signals.CompanyPedigree = models.Float(tierPedigree[tier])
		signals.CompanyRelevance = companyRelevance(queryLower, profile.Companies)
	}

	if days, ok := metadataFloat(profile.Metadata, "lastActiveDays"); ok {
		boost := 1.0 - days/90.0
		if boost < 0 {
			boost = 0
		}
		signals.RecencyBoost = models.Float(boost)
	}

	return signals
}

// skillSignals scores exact skill-name hits and partial token overlap
// separately. Exact hits are weighted by skill endorsement weight.
func skillSignals(queryTokens map[string]bool, skills []models.SkillWeight) (exact, inferred *float64) {
	if len(skills) == 0 {
		return nil, nil
	}

	var exactSum, inferredBest float64
	var exactCount int
	for _, skill := range skills {
		name := strings.ToLower(skill.Name)
		if queryTokens[name] {
			exactCount++
			exactSum += skill.Weight
			continue
		}
		for _, token := range strings.Fields(name) {
			if queryTokens[token] && skill.Weight > inferredBest {
				inferredBest = skill.Weight
			}
		}
	}

	if exactCount > 0 {
		exact = models.Float(clamp01(exactSum / float64(exactCount) * scaleForHits(exactCount)))
	}
	if inferredBest > 0 {
		inferred = models.Float(clamp01(inferredBest * 0.6))
	}
	return exact, inferred
}

// scaleForHits rewards multiple exact skill hits without letting the
// average collapse toward a single strong skill.
func scaleForHits(hits int) float64 {
	switch {
	case hits >= 3:
		return 1.1
	case hits == 2:
		return 1.05
	default:
		return 1.0
	}
}

func specialtySignal(queryLower string, profile *models.CandidateProfile) *float64 {
	candidateSpec := bias.Specialty(profile.Skills, profile.Title)
	querySpec := bias.Specialty(nil, queryLower)
	if querySpec == models.SpecOther {
		return nil
	}
	if candidateSpec == querySpec {
		return models.Float(1.0)
	}
	// Fullstack candidates partially cover frontend or backend asks.
	if candidateSpec == models.SpecFullstack &&
		(querySpec == models.SpecFrontend || querySpec == models.SpecBackend) {
		return models.Float(0.7)
	}
	return models.Float(0.1)
}

func senioritySignal(queryLower, title string) *float64 {
	queryLevel := seniorityTerm(queryLower)
	if queryLevel == "" {
		return nil
	}
	if seniorityTerm(strings.ToLower(title)) == queryLevel {
		return models.Float(1.0)
	}
	return models.Float(0.3)
}

func seniorityTerm(s string) string {
	for _, term := range seniorityTerms {
		if strings.Contains(s, term) {
			return term
		}
	}
	return ""
}

func functionSignal(queryLower, title string) *float64 {
	if title == "" {
		return nil
	}
	titleLower := strings.ToLower(title)
	for _, fn := range []string{"engineer", "developer", "scientist", "analyst", "designer", "manager", "architect"} {
		if strings.Contains(queryLower, fn) {
			if strings.Contains(titleLower, fn) {
				return models.Float(1.0)
			}
			return models.Float(0.2)
		}
	}
	return nil
}

func techStackSignal(queryTokens map[string]bool, skills []models.SkillWeight) *float64 {
	if len(skills) == 0 {
		return nil
	}
	queryTechTerms := 0
	matched := 0
	for token := range queryTokens {
		if !isTechTerm(token) {
			continue
		}
		queryTechTerms++
		for _, skill := range skills {
			if strings.Contains(strings.ToLower(skill.Name), token) {
				matched++
				break
			}
		}
	}
	if queryTechTerms == 0 {
		return nil
	}
	return models.Float(float64(matched) / float64(queryTechTerms))
}

var techTerms = map[string]bool{
	"go": true, "golang": true, "java": true, "python": true, "rust": true,
	"react": true, "vue": true, "angular": true, "typescript": true,
	"kubernetes": true, "docker": true, "kafka": true, "postgres": true,
	"redis": true, "elasticsearch": true, "grpc": true, "aws": true,
	"gcp": true, "terraform": true, "spark": true, "pytorch": true,
	"tensorflow": true, "swift": true, "kotlin": true,
}

func isTechTerm(token string) bool {
	return techTerms[token]
}

func companyRelevance(queryLower string, companies []string) *float64 {
	for _, company := range companies {
		if c := strings.ToLower(company); c != "" && strings.Contains(queryLower, c) {
			return models.Float(1.0)
		}
	}
	return models.Float(0.0)
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/' || r == '+' || r == '(' || r == ')'
	}) {
		tokens[t] = true
	}
	return tokens
}

func metadataFloat(metadata map[string]interface{}, key string) (float64, bool) {
	if metadata == nil {
		return 0, false
	}
	switch v := metadata[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
