package shadow

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/talentlake/talentrank/internal/models"

	"github.com/redis/go-redis/v9"
)

// ComparisonStore persists flushed comparison batches. Implementations
// must tolerate concurrent Append and Recent calls.
type ComparisonStore interface {
	Append(ctx context.Context, comparisons []models.ShadowComparison) error
	Recent(ctx context.Context, limit int) ([]models.ShadowComparison, error)
}

// MemoryStore retains the most recent comparisons in a bounded ring.
type MemoryStore struct {
	mu          sync.Mutex
	comparisons []models.ShadowComparison
	maxRetained int
}

func NewMemoryStore(maxRetained int) *MemoryStore {
	if maxRetained <= 0 {
		maxRetained = 10000
	}
	return &MemoryStore{maxRetained: maxRetained}
}

func (s *MemoryStore) Append(_ context.Context, comparisons []models.ShadowComparison) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comparisons = append(s.comparisons, comparisons...)
	if overflow := len(s.comparisons) - s.maxRetained; overflow > 0 {
		s.comparisons = s.comparisons[overflow:]
	}
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]models.ShadowComparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.comparisons)
	if limit <= 0 || limit > n {
		limit = n
	}

	// Most recent first.
	out := make([]models.ShadowComparison, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.comparisons[i])
	}
	return out, nil
}

const redisComparisonsKey = "shadow:comparisons"

// RedisStore keeps a bounded list of JSON-encoded comparisons, newest
// first.
type RedisStore struct {
	client      *redis.Client
	maxRetained int
}

func NewRedisStore(client *redis.Client, maxRetained int) *RedisStore {
	if maxRetained <= 0 {
		maxRetained = 10000
	}
	return &RedisStore{client: client, maxRetained: maxRetained}
}

func (s *RedisStore) Append(ctx context.Context, comparisons []models.ShadowComparison) error {
	if len(comparisons) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(comparisons))
	for _, c := range comparisons {
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, redisComparisonsKey, values...)
	pipe.LTrim(ctx, redisComparisonsKey, 0, int64(s.maxRetained-1))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]models.ShadowComparison, error) {
	if limit <= 0 {
		limit = s.maxRetained
	}

	raw, err := s.client.LRange(ctx, redisComparisonsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	out := make([]models.ShadowComparison, 0, len(raw))
	for _, item := range raw {
		var c models.ShadowComparison
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
