package retrieval

import (
	"context"
	"encoding/json"
	"time"

	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"

	"github.com/redis/go-redis/v9"
)

const profileKeyPrefix = "candidate:profile:"

// CachedProfileSource fronts a ProfileSource with a Redis cache. Cache
// failures fall through to the underlying source; a lookup is never
// failed because the cache is down.
type CachedProfileSource struct {
	source ProfileSource
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProfileSource(source ProfileSource, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedProfileSource {
	return &CachedProfileSource{
		source: source,
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "profile-cache"}),
	}
}

func (c *CachedProfileSource) Profile(ctx context.Context, candidateID string) (*models.CandidateProfile, bool, error) {
	key := profileKeyPrefix + candidateID

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var profile models.CandidateProfile
		if unmarshalErr := json.Unmarshal([]byte(cached), &profile); unmarshalErr == nil {
			return &profile, true, nil
		}
		// Corrupt entry, fall through and repopulate.
	} else if err != redis.Nil {
		c.logger.Warn("profile cache read failed", map[string]interface{}{
			"candidate_id": candidateID,
			"error":        err.Error(),
		})
	}

	profile, _, err := c.source.Profile(ctx, candidateID)
	if err != nil || profile == nil {
		return profile, false, err
	}

	if data, marshalErr := json.Marshal(profile); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("profile cache write failed", map[string]interface{}{
				"candidate_id": candidateID,
				"error":        setErr.Error(),
			})
		}
	}
	return profile, false, nil
}
