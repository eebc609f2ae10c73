// Package bias holds the anonymization transform and the selection
// event classifier. Both are pure and synchronous.
package bias

import (
	"regexp"
	"strings"

	"github.com/talentlake/talentrank/internal/models"
)

// Company and school names scrubbed from match reasons. Substring
// scrubbing is best effort; it is a redaction aid, not a privacy
// boundary.
var redactedCompanyNames = []string{
	"google", "alphabet", "meta", "facebook", "amazon", "apple", "netflix",
	"microsoft", "ibm", "oracle", "salesforce", "uber", "airbnb", "stripe",
	"linkedin", "twitter", "tesla", "nvidia", "intel", "cisco", "adobe",
}

var redactedSchoolNames = []string{
	"stanford", "mit", "berkeley", "harvard", "carnegie mellon", "caltech",
	"oxford", "cambridge", "princeton", "cornell", "waterloo",
}

var locationPhrases = []string{
	"based in", "located in",
}

var yearPattern = regexp.MustCompile(`\b\d{4}\b`)

// Anonymizer strips direct identifiers and company-identifying signals
// from scored candidates.
type Anonymizer struct{}

func NewAnonymizer() *Anonymizer {
	return &Anonymizer{}
}

// Anonymize removes name, title, headline, location, country, and
// free-form metadata, excludes the company signals from both the signal
// bundle and the applied weights, and scrubs match reasons. All other
// fields pass through unchanged.
func (a *Anonymizer) Anonymize(c models.ScoredCandidate) models.AnonymizedCandidate {
	signals := c.SignalScores
	signals.CompanyPedigree = nil
	signals.CompanyRelevance = nil

	var weights map[string]float64
	if c.WeightsApplied != nil {
		weights = make(map[string]float64, len(c.WeightsApplied))
		for name, w := range c.WeightsApplied {
			if name == models.SignalCompanyPedigree || name == models.SignalCompanyRelevance {
				continue
			}
			weights[name] = w
		}
	}

	return models.AnonymizedCandidate{
		CandidateID:     c.CandidateID,
		Score:           c.Score,
		SignalScores:    signals,
		WeightsApplied:  weights,
		MatchReasons:    a.scrubReasons(c.MatchReasons),
		Skills:          c.Skills,
		Industries:      c.Industries,
		YearsExperience: c.YearsExperience,
		MLTrajectory:    c.MLTrajectory,
	}
}

// AnonymizeAll applies Anonymize to every candidate in ranked order.
func (a *Anonymizer) AnonymizeAll(candidates []models.ScoredCandidate) []models.AnonymizedCandidate {
	out := make([]models.AnonymizedCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, a.Anonymize(c))
	}
	return out
}

// scrubReasons drops reasons naming a company, a school, or a location,
// and rewrites 4-digit years in the survivors.
func (a *Anonymizer) scrubReasons(reasons []string) []string {
	if reasons == nil {
		return nil
	}
	out := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		lowered := strings.ToLower(reason)
		if containsAny(lowered, redactedCompanyNames) ||
			containsAny(lowered, redactedSchoolNames) ||
			containsAny(lowered, locationPhrases) {
			continue
		}
		out = append(out, yearPattern.ReplaceAllString(reason, "[year]"))
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
