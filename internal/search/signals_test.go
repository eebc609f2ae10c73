package search

import (
	"testing"

	"github.com/talentlake/talentrank/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSignalsNilProfile(t *testing.T) {
	signals := BuildSignals("senior golang engineer", nil)
	assert.Equal(t, models.SignalScores{}, signals)
}

func TestBuildSignalsSkillMatches(t *testing.T) {
	profile := &models.CandidateProfile{
		CandidateID: "cand-1",
		Skills: []models.SkillWeight{
			{Name: "go", Weight: 0.9},
			{Name: "apache kafka", Weight: 0.7},
		},
	}

	signals := BuildSignals("go kafka engineer", profile)

	require.NotNil(t, signals.SkillsExactMatch, "exact skill name hit expected")
	assert.InDelta(t, 0.9, *signals.SkillsExactMatch, 1e-9)
	require.NotNil(t, signals.SkillsInferred, "partial token hit on apache kafka expected")
	assert.InDelta(t, 0.42, *signals.SkillsInferred, 1e-9)
}

func TestBuildSignalsAbsentSourcesStayNil(t *testing.T) {
	profile := &models.CandidateProfile{CandidateID: "cand-1"}

	signals := BuildSignals("someone great", profile)

	assert.Nil(t, signals.SkillsExactMatch)
	assert.Nil(t, signals.SkillsInferred)
	assert.Nil(t, signals.TechStackMatch)
	assert.Nil(t, signals.CompanyPedigree)
	assert.Nil(t, signals.CompanyRelevance)
	assert.Nil(t, signals.SeniorityAlignment)
	assert.Nil(t, signals.RecencyBoost)
	assert.Nil(t, signals.VectorSimilarity)
	assert.Nil(t, signals.TrajectoryFit)
}

func TestBuildSignalsSpecialty(t *testing.T) {
	backend := &models.CandidateProfile{Title: "Backend Engineer"}
	fullstack := &models.CandidateProfile{Title: "Full-Stack Engineer"}

	exact := BuildSignals("backend engineer with go", backend)
	require.NotNil(t, exact.SpecialtyMatch)
	assert.Equal(t, 1.0, *exact.SpecialtyMatch)

	partial := BuildSignals("backend engineer with go", fullstack)
	require.NotNil(t, partial.SpecialtyMatch)
	assert.Equal(t, 0.7, *partial.SpecialtyMatch)

	noAsk := BuildSignals("great colleague", backend)
	assert.Nil(t, noAsk.SpecialtyMatch)
}

func TestBuildSignalsSeniorityAlignment(t *testing.T) {
	senior := &models.CandidateProfile{Title: "Senior Software Engineer"}
	junior := &models.CandidateProfile{Title: "Junior Developer"}

	match := BuildSignals("senior engineer", senior)
	require.NotNil(t, match.SeniorityAlignment)
	assert.Equal(t, 1.0, *match.SeniorityAlignment)

	mismatch := BuildSignals("senior engineer", junior)
	require.NotNil(t, mismatch.SeniorityAlignment)
	assert.Equal(t, 0.3, *mismatch.SeniorityAlignment)
}

func TestBuildSignalsCompanyPedigreeByTier(t *testing.T) {
	faang := &models.CandidateProfile{Companies: []string{"Google"}}
	unknown := &models.CandidateProfile{Companies: []string{"Acme Corp"}}

	f := BuildSignals("engineer", faang)
	require.NotNil(t, f.CompanyPedigree)
	assert.Equal(t, 1.0, *f.CompanyPedigree)

	u := BuildSignals("engineer", unknown)
	require.NotNil(t, u.CompanyPedigree)
	assert.Equal(t, 0.2, *u.CompanyPedigree)
}

func TestBuildSignalsCompanyRelevance(t *testing.T) {
	profile := &models.CandidateProfile{Companies: []string{"Stripe"}}

	named := BuildSignals("engineers from stripe", profile)
	require.NotNil(t, named.CompanyRelevance)
	assert.Equal(t, 1.0, *named.CompanyRelevance)

	unnamed := BuildSignals("payments engineer", profile)
	require.NotNil(t, unnamed.CompanyRelevance)
	assert.Equal(t, 0.0, *unnamed.CompanyRelevance)
}

func TestBuildSignalsTechStack(t *testing.T) {
	profile := &models.CandidateProfile{
		Skills: []models.SkillWeight{
			{Name: "Go", Weight: 0.9},
			{Name: "PostgreSQL", Weight: 0.8},
		},
	}

	signals := BuildSignals("go postgres kubernetes", profile)
	require.NotNil(t, signals.TechStackMatch)
	// go and postgres hit, kubernetes does not.
	assert.InDelta(t, 2.0/3.0, *signals.TechStackMatch, 1e-9)
}

func TestBuildSignalsRecencyBoost(t *testing.T) {
	profile := &models.CandidateProfile{
		Metadata: map[string]interface{}{"lastActiveDays": 9.0},
	}

	signals := BuildSignals("engineer", profile)
	require.NotNil(t, signals.RecencyBoost)
	assert.InDelta(t, 0.9, *signals.RecencyBoost, 1e-9)

	stale := BuildSignals("engineer", &models.CandidateProfile{
		Metadata: map[string]interface{}{"lastActiveDays": 365.0},
	})
	require.NotNil(t, stale.RecencyBoost)
	assert.Equal(t, 0.0, *stale.RecencyBoost)
}
