package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/talentlake/talentrank/internal/common/errors"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchStore runs both retrieval legs against one candidate
// index. The vector leg uses kNN over the profile embedding; the text
// leg uses a boosted multi_match. Both legs filter by tenant.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchStore {
	return &ElasticsearchStore{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "retrieval-store"}),
	}
}

func (s *ElasticsearchStore) VectorSearch(ctx context.Context, embedding []float64, tenantID string, limit int) ([]models.RankedRef, error) {
	body := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "profile_embedding",
			"query_vector":   embedding,
			"k":              limit,
			"num_candidates": limit * 4,
			"filter":         tenantFilter(tenantID),
		},
		"_source": false,
		"size":    limit,
	}
	return s.search(ctx, body)
}

func (s *ElasticsearchStore) TextSearch(ctx context.Context, query, tenantID string, limit int) ([]models.RankedRef, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  query,
							"fields": []string{"title^3", "headline^2", "skills.name^2", "summary"},
							"type":   "best_fields",
						},
					},
				},
				"filter": []interface{}{tenantFilter(tenantID)},
			},
		},
		"_source": false,
		"size":    limit,
	}
	return s.search(ctx, body)
}

func (s *ElasticsearchStore) search(ctx context.Context, body map[string]interface{}) ([]models.RankedRef, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.NewRetrievalFailedError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewRetrievalTimeoutError(err)
		}
		return nil, errors.NewRetrievalFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Error("elasticsearch search failed", map[string]interface{}{
			"status": res.Status(),
			"index":  s.index,
		})
		return nil, errors.NewRetrievalFailedError(fmt.Errorf("elasticsearch returned %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID    string  `json:"_id"`
				Score float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewRetrievalFailedError(err)
	}

	refs := make([]models.RankedRef, 0, len(parsed.Hits.Hits))
	for i, hit := range parsed.Hits.Hits {
		refs = append(refs, models.RankedRef{
			CandidateID: hit.ID,
			Rank:        i + 1,
			RawScore:    hit.Score,
		})
	}
	return refs, nil
}

// Profile fetches one candidate document as a feature profile. The
// store itself never serves from cache.
func (s *ElasticsearchStore) Profile(ctx context.Context, candidateID string) (*models.CandidateProfile, bool, error) {
	req := esapi.GetRequest{
		Index:      s.index,
		DocumentID: candidateID,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, false, errors.NewRetrievalFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, false, nil
	}
	if res.IsError() {
		return nil, false, errors.NewRetrievalFailedError(fmt.Errorf("elasticsearch returned %s", res.Status()))
	}

	var doc struct {
		Source models.CandidateProfile `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, false, errors.NewRetrievalFailedError(err)
	}
	doc.Source.CandidateID = candidateID
	return &doc.Source, false, nil
}

func tenantFilter(tenantID string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{"tenant_id": tenantID},
	}
}
