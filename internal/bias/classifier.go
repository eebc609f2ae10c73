package bias

import (
	"strings"
	"time"

	"github.com/talentlake/talentrank/internal/models"

	"github.com/google/uuid"
)

// Curated company lists for tier inference, matched case-insensitively
// by substring. Checked in priority order: faang beats enterprise beats
// startup.
var faangCompanies = []string{
	"google", "alphabet", "meta", "facebook", "amazon", "apple", "netflix", "microsoft",
}

var enterpriseCompanies = []string{
	"ibm", "oracle", "sap", "salesforce", "cisco", "intel", "accenture",
	"deloitte", "adobe", "vmware", "dell", "hp",
}

var startupCompanies = []string{
	"stripe", "airbnb", "plaid", "figma", "notion", "databricks",
	"snowflake", "vercel", "ramp", "brex",
}

var frontendSkills = []string{
	"react", "vue", "angular", "css", "html", "javascript", "typescript", "svelte",
}

var backendSkills = []string{
	"go", "java", "python", "rust", "postgres", "mysql", "kafka", "grpc",
	"node", "spring", "django",
}

// Classifier infers the coarse fairness dimensions attached to every
// selection event.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify builds a SelectionEvent for one selection decision. The
// dimensions are deterministic given the same profile; only the event
// id and timestamp vary between calls.
func (c *Classifier) Classify(eventType models.EventType, profile models.CandidateProfile, searchID, tenantID, userHash string, rank *int, score *float64) models.SelectionEvent {
	return models.SelectionEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		CandidateID: profile.CandidateID,
		SearchID:    searchID,
		TenantID:    tenantID,
		UserHash:    userHash,
		Dimensions: models.EventDimensions{
			CompanyTier:    CompanyTier(profile.Companies),
			ExperienceBand: ExperienceBand(profile.YearsExperience),
			Specialty:      Specialty(profile.Skills, profile.Title),
		},
		Rank:      rank,
		Score:     score,
		Timestamp: time.Now().UTC(),
	}
}

// CompanyTier returns the highest-priority tier matched by any company
// in the history.
func CompanyTier(companies []string) string {
	lowered := make([]string, len(companies))
	for i, c := range companies {
		lowered[i] = strings.ToLower(c)
	}

	for _, c := range lowered {
		if containsAny(c, faangCompanies) {
			return models.TierFaang
		}
	}
	for _, c := range lowered {
		if containsAny(c, enterpriseCompanies) {
			return models.TierEnterprise
		}
	}
	for _, c := range lowered {
		if containsAny(c, startupCompanies) {
			return models.TierStartup
		}
	}
	return models.TierOther
}

// ExperienceBand buckets years of experience with inclusive lower
// boundaries, so exactly 3 years falls in "3-7". Unknown experience
// defaults to the middle band.
func ExperienceBand(years *float64) string {
	if years == nil {
		return models.Band3to7
	}
	switch y := *years; {
	case y < 3:
		return models.Band0to3
	case y < 7:
		return models.Band3to7
	case y < 15:
		return models.Band7to15
	default:
		return models.Band15Plus
	}
}

// Specialty infers the candidate's discipline, preferring an explicit
// title over the skills list. Fullstack requires both frontend and
// backend indicative skills.
func Specialty(skills []models.SkillWeight, title string) string {
	if title != "" {
		if s := specialtyFromTitle(strings.ToLower(title)); s != models.SpecOther {
			return s
		}
	}
	return specialtyFromSkills(skills)
}

func specialtyFromTitle(title string) string {
	switch {
	case strings.Contains(title, "frontend") || strings.Contains(title, "front-end") || strings.Contains(title, "front end"):
		return models.SpecFrontend
	case strings.Contains(title, "backend") || strings.Contains(title, "back-end") || strings.Contains(title, "back end"):
		return models.SpecBackend
	case strings.Contains(title, "fullstack") || strings.Contains(title, "full-stack") || strings.Contains(title, "full stack"):
		return models.SpecFullstack
	case strings.Contains(title, "devops") || strings.Contains(title, "sre") || strings.Contains(title, "platform"):
		return models.SpecDevops
	case strings.Contains(title, "machine learning") || strings.Contains(title, " ml ") || strings.HasSuffix(title, " ml"):
		return models.SpecML
	case strings.Contains(title, "mobile") || strings.Contains(title, "ios") || strings.Contains(title, "android"):
		return models.SpecMobile
	case strings.Contains(title, "data"):
		return models.SpecData
	default:
		return models.SpecOther
	}
}

// matchesSkill matches whole skill tokens, so "javascript" does not
// register as a "java" backend skill.
func matchesSkill(name string, skills []string) bool {
	for _, token := range strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '.' || r == '/' || r == '-'
	}) {
		for _, skill := range skills {
			if token == skill {
				return true
			}
		}
	}
	return false
}

func specialtyFromSkills(skills []models.SkillWeight) string {
	var hasFrontend, hasBackend bool
	for _, s := range skills {
		name := strings.ToLower(s.Name)
		if matchesSkill(name, frontendSkills) {
			hasFrontend = true
		}
		if matchesSkill(name, backendSkills) {
			hasBackend = true
		}
	}
	switch {
	case hasFrontend && hasBackend:
		return models.SpecFullstack
	case hasFrontend:
		return models.SpecFrontend
	case hasBackend:
		return models.SpecBackend
	default:
		return models.SpecOther
	}
}
