package models

// CandidateRankEntry merges one candidate's positions from the two
// retrieval legs. At least one rank must be present; ranks are 1-based.
type CandidateRankEntry struct {
	CandidateID string   `json:"candidateId"`
	VectorRank  *int     `json:"vectorRank,omitempty"`
	TextRank    *int     `json:"textRank,omitempty"`
	VectorScore *float64 `json:"vectorScore,omitempty"`
	TextScore   *float64 `json:"textScore,omitempty"`
}

// FusedCandidate is the output of rank fusion. RRFScore sums the
// reciprocal-rank contributions of whichever ranks are present.
type FusedCandidate struct {
	CandidateID string   `json:"candidateId"`
	RRFScore    float64  `json:"rrfScore"`
	VectorScore *float64 `json:"vectorScore,omitempty"`
	TextScore   *float64 `json:"textScore,omitempty"`
}

// SkillWeight pairs a skill name with its endorsement weight.
type SkillWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// SignalScores carries the named relevance signals, each normalized to
// [0,1]. A nil field means the upstream source was unavailable; it is
// never defaulted to zero.
type SignalScores struct {
	FusedBase          *float64 `json:"fusedBase,omitempty"`
	VectorSimilarity   *float64 `json:"vectorSimilarity,omitempty"`
	LevelMatch         *float64 `json:"levelMatch,omitempty"`
	SpecialtyMatch     *float64 `json:"specialtyMatch,omitempty"`
	TechStackMatch     *float64 `json:"techStackMatch,omitempty"`
	FunctionMatch      *float64 `json:"functionMatch,omitempty"`
	TrajectoryFit      *float64 `json:"trajectoryFit,omitempty"`
	CompanyPedigree    *float64 `json:"companyPedigree,omitempty"`
	SkillsExactMatch   *float64 `json:"skillsExactMatch,omitempty"`
	SkillsInferred     *float64 `json:"skillsInferred,omitempty"`
	SeniorityAlignment *float64 `json:"seniorityAlignment,omitempty"`
	RecencyBoost       *float64 `json:"recencyBoost,omitempty"`
	CompanyRelevance   *float64 `json:"companyRelevance,omitempty"`
}

// Signal name constants, matching the JSON field names above.
const (
	SignalFusedBase          = "fusedBase"
	SignalVectorSimilarity   = "vectorSimilarity"
	SignalLevelMatch         = "levelMatch"
	SignalSpecialtyMatch     = "specialtyMatch"
	SignalTechStackMatch     = "techStackMatch"
	SignalFunctionMatch      = "functionMatch"
	SignalTrajectoryFit      = "trajectoryFit"
	SignalCompanyPedigree    = "companyPedigree"
	SignalSkillsExactMatch   = "skillsExactMatch"
	SignalSkillsInferred     = "skillsInferred"
	SignalSeniorityAlignment = "seniorityAlignment"
	SignalRecencyBoost       = "recencyBoost"
	SignalCompanyRelevance   = "companyRelevance"
)

// Each visits the present signals in a fixed order.
func (s SignalScores) Each(fn func(name string, value float64)) {
	visit := func(name string, v *float64) {
		if v != nil {
			fn(name, *v)
		}
	}
	visit(SignalFusedBase, s.FusedBase)
	visit(SignalVectorSimilarity, s.VectorSimilarity)
	visit(SignalLevelMatch, s.LevelMatch)
	visit(SignalSpecialtyMatch, s.SpecialtyMatch)
	visit(SignalTechStackMatch, s.TechStackMatch)
	visit(SignalFunctionMatch, s.FunctionMatch)
	visit(SignalTrajectoryFit, s.TrajectoryFit)
	visit(SignalCompanyPedigree, s.CompanyPedigree)
	visit(SignalSkillsExactMatch, s.SkillsExactMatch)
	visit(SignalSkillsInferred, s.SkillsInferred)
	visit(SignalSeniorityAlignment, s.SeniorityAlignment)
	visit(SignalRecencyBoost, s.RecencyBoost)
	visit(SignalCompanyRelevance, s.CompanyRelevance)
}

// CandidateProfile is the feature bundle assembled from external sources
// for scoring, anonymization, and selection classification.
type CandidateProfile struct {
	CandidateID     string                 `json:"candidateId"`
	FullName        string                 `json:"fullName,omitempty"`
	Title           string                 `json:"title,omitempty"`
	Headline        string                 `json:"headline,omitempty"`
	Location        string                 `json:"location,omitempty"`
	Country         string                 `json:"country,omitempty"`
	Companies       []string               `json:"companies,omitempty"`
	TitleHistory    []string               `json:"titleHistory,omitempty"` // chronological
	TenureMonths    []float64              `json:"tenureMonths,omitempty"`
	Skills          []SkillWeight          `json:"skills,omitempty"`
	Industries      []string               `json:"industries,omitempty"`
	YearsExperience *float64               `json:"yearsExperience,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// ScoredCandidate is the top-level ranked result.
type ScoredCandidate struct {
	CandidateID     string                 `json:"candidateId"`
	Score           float64                `json:"score"`
	SignalScores    SignalScores           `json:"signalScores"`
	WeightsApplied  map[string]float64     `json:"weightsApplied"`
	MatchReasons    []string               `json:"matchReasons"`
	FullName        string                 `json:"fullName,omitempty"`
	Title           string                 `json:"title,omitempty"`
	Headline        string                 `json:"headline,omitempty"`
	Location        string                 `json:"location,omitempty"`
	Country         string                 `json:"country,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	Skills          []SkillWeight          `json:"skills,omitempty"`
	Industries      []string               `json:"industries,omitempty"`
	YearsExperience *float64               `json:"yearsExperience,omitempty"`
	MLTrajectory    *TrajectoryPrediction  `json:"mlTrajectory,omitempty"`
}

// AnonymizedCandidate is a ScoredCandidate with direct identifiers and
// company-identifying signals removed. Everything else is preserved
// verbatim.
type AnonymizedCandidate struct {
	CandidateID     string                `json:"candidateId"`
	Score           float64               `json:"score"`
	SignalScores    SignalScores          `json:"signalScores"`
	WeightsApplied  map[string]float64    `json:"weightsApplied"`
	MatchReasons    []string              `json:"matchReasons"`
	Skills          []SkillWeight         `json:"skills,omitempty"`
	Industries      []string              `json:"industries,omitempty"`
	YearsExperience *float64              `json:"yearsExperience,omitempty"`
	MLTrajectory    *TrajectoryPrediction `json:"mlTrajectory,omitempty"`
}

// Float returns a pointer to v, for building optional signal fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building optional rank fields.
func Int(v int) *int { return &v }
