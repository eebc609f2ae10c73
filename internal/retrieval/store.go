// Package retrieval executes the two ranked retrieval legs and serves
// candidate feature profiles.
package retrieval

import (
	"context"

	"github.com/talentlake/talentrank/internal/models"
)

// RetrievalStore produces the two pre-ranked candidate lists consumed
// by rank fusion. Ranks are 1-based and unique within each list; the
// store's internals are opaque to the ranking core.
type RetrievalStore interface {
	VectorSearch(ctx context.Context, embedding []float64, tenantID string, limit int) ([]models.RankedRef, error)
	TextSearch(ctx context.Context, query, tenantID string, limit int) ([]models.RankedRef, error)
}

// ProfileSource resolves candidate feature profiles for scoring and
// selection classification. The bool reports whether the profile was
// served from a cache rather than the backing store.
type ProfileSource interface {
	Profile(ctx context.Context, candidateID string) (*models.CandidateProfile, bool, error)
}
