// Package fusion combines the two retrieval legs into one ranked list
// using Reciprocal Rank Fusion.
package fusion

import (
	"sort"

	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"
)

const (
	// DefaultK flattens score differences between neighboring ranks;
	// smaller values sharpen top-rank dominance.
	DefaultK = 60

	MethodRRF          = "rrf"
	MethodLegacyLinear = "legacy_linear"
)

// Config holds the fusion parameters.
type Config struct {
	K            int
	LegacyLinear bool
	VectorWeight float64 // legacy fallback only
	TextWeight   float64 // legacy fallback only
}

// Engine fuses vector-ranked and text-ranked candidate lists.
type Engine struct {
	config Config
	logger logger.Logger
}

func NewEngine(config Config, log logger.Logger) *Engine {
	if config.K < 1 {
		// k <= 0 would invert the rank contribution; clamp rather than fail.
		config.K = 1
	}
	return &Engine{
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "rank-fusion"}),
	}
}

// Method reports which fusion formula the engine applies.
func (e *Engine) Method() string {
	if e.config.LegacyLinear {
		return MethodLegacyLinear
	}
	return MethodRRF
}

// Fuse merges the two ranked lists into a single list ordered by
// descending score. Candidates appearing in either list are scored: the
// fused set is the union, never the intersection. A missing rank
// contributes exactly 0. Ties are broken by candidateId for
// reproducibility.
func (e *Engine) Fuse(vectorResults, textResults []models.RankedRef) []models.FusedCandidate {
	entries := mergeEntries(vectorResults, textResults)

	fused := make([]models.FusedCandidate, 0, len(entries))
	for _, entry := range entries {
		var score float64
		if e.config.LegacyLinear {
			score = e.legacyLinearScore(entry)
		} else {
			score = e.rrfScore(entry)
		}
		fused = append(fused, models.FusedCandidate{
			CandidateID: entry.CandidateID,
			RRFScore:    score,
			VectorScore: entry.VectorScore,
			TextScore:   entry.TextScore,
		})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].RRFScore != fused[j].RRFScore {
			return fused[i].RRFScore > fused[j].RRFScore
		}
		return fused[i].CandidateID < fused[j].CandidateID
	})

	e.logger.Debug("fusion completed", map[string]interface{}{
		"vectorCount": len(vectorResults),
		"textCount":   len(textResults),
		"fusedCount":  len(fused),
		"method":      e.Method(),
	})

	return fused
}

// rrfScore computes 1/(k+rank) per present rank.
func (e *Engine) rrfScore(entry models.CandidateRankEntry) float64 {
	score := 0.0
	if entry.VectorRank != nil {
		score += 1.0 / float64(e.config.K+*entry.VectorRank)
	}
	if entry.TextRank != nil {
		score += 1.0 / float64(e.config.K+*entry.TextRank)
	}
	return score
}

// legacyLinearScore is the pre-RRF weighted sum kept selectable so
// operators can roll back without a data-shape change.
func (e *Engine) legacyLinearScore(entry models.CandidateRankEntry) float64 {
	score := 0.0
	if entry.VectorScore != nil {
		score += e.config.VectorWeight * *entry.VectorScore
	}
	if entry.TextScore != nil {
		score += e.config.TextWeight * *entry.TextScore
	}
	return score
}

// mergeEntries builds the union of the two lists, keyed by candidate.
func mergeEntries(vectorResults, textResults []models.RankedRef) []models.CandidateRankEntry {
	byID := make(map[string]*models.CandidateRankEntry, len(vectorResults)+len(textResults))
	order := make([]string, 0, len(vectorResults)+len(textResults))

	for _, ref := range vectorResults {
		rank := ref.Rank
		score := ref.RawScore
		byID[ref.CandidateID] = &models.CandidateRankEntry{
			CandidateID: ref.CandidateID,
			VectorRank:  &rank,
			VectorScore: &score,
		}
		order = append(order, ref.CandidateID)
	}

	for _, ref := range textResults {
		rank := ref.Rank
		score := ref.RawScore
		if entry, ok := byID[ref.CandidateID]; ok {
			entry.TextRank = &rank
			entry.TextScore = &score
			continue
		}
		byID[ref.CandidateID] = &models.CandidateRankEntry{
			CandidateID: ref.CandidateID,
			TextRank:    &rank,
			TextScore:   &score,
		}
		order = append(order, ref.CandidateID)
	}

	entries := make([]models.CandidateRankEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, *byID[id])
	}
	return entries
}
