// Package search orchestrates one ranking pass: retrieval, fusion,
// per-candidate enrichment, scoring, and optional anonymization.
package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/talentlake/talentrank/internal/bias"
	"github.com/talentlake/talentrank/internal/common/config"
	"github.com/talentlake/talentrank/internal/common/errors"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/common/metrics"
	"github.com/talentlake/talentrank/internal/models"
	"github.com/talentlake/talentrank/internal/ranking/fusion"
	"github.com/talentlake/talentrank/internal/ranking/scoring"
	"github.com/talentlake/talentrank/internal/retrieval"

	"github.com/google/uuid"
)

const enrichmentWorkers = 8

// PredictionClient is the trajectory lookup consumed per candidate. It
// never returns an error; unavailability resolves to a nil prediction.
type PredictionClient interface {
	Predict(ctx context.Context, req models.TrajectoryPredictionRequest) *models.TrajectoryPrediction
	IsAvailable() bool
}

// Service executes search requests end to end. It is stateless across
// requests; all mutable state lives in its collaborators.
type Service struct {
	config     *config.Config
	store      retrieval.RetrievalStore
	profiles   retrieval.ProfileSource
	fusion     *fusion.Engine
	trajectory PredictionClient
	anonymizer *bias.Anonymizer
	classifier *bias.Classifier
	emitter    *bias.Emitter
	logger     logger.Logger
}

func NewService(
	cfg *config.Config,
	store retrieval.RetrievalStore,
	profiles retrieval.ProfileSource,
	fusionEngine *fusion.Engine,
	trajectory PredictionClient,
	emitter *bias.Emitter,
	log logger.Logger,
) *Service {
	return &Service{
		config:     cfg,
		store:      store,
		profiles:   profiles,
		fusion:     fusionEngine,
		trajectory: trajectory,
		anonymizer: bias.NewAnonymizer(),
		classifier: bias.NewClassifier(),
		emitter:    emitter,
		logger:     log.WithFields(map[string]interface{}{"component": "search-service"}),
	}
}

// Search runs one ranking pass. Retrieval failure is fatal for the
// request; every downstream degradation is absorbed.
func (s *Service) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 || limit > s.config.Retrieval.CandidateLimit {
		limit = s.config.Retrieval.CandidateLimit
	}

	requestID := uuid.New().String()
	log := s.logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"tenant_id":  req.TenantID,
	})

	retrievalStart := time.Now()
	vectorResults, textResults, err := s.retrieve(ctx, req)
	if err != nil {
		log.Error("retrieval failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	retrievalMs := time.Since(retrievalStart).Milliseconds()

	fusionStart := time.Now()
	fused := s.fusion.Fuse(vectorResults, textResults)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	fusionMs := time.Since(fusionStart).Milliseconds()
	metrics.FusedCandidates.Observe(float64(len(fused)))

	enrichStart := time.Now()
	scorer := scoring.NewScorer(s.config.WeightsForTenant(req.TenantID), s.logger)
	results, profilesByID, cacheHit := s.enrich(ctx, req, fused, scorer)
	enrichMs := time.Since(enrichStart).Milliseconds()

	s.emitShownEvents(req, requestID, results, profilesByID)

	response := &models.SearchResponse{
		Total:     len(results),
		CacheHit:  cacheHit,
		RequestID: requestID,
		Timings: models.Timings{
			RetrievalMs: retrievalMs,
			FusionMs:    fusionMs,
			// Prediction and scoring are interleaved per candidate; both
			// report the enrichment window.
			PredictionMs: enrichMs,
			ScoringMs:    enrichMs,
			TotalMs:      time.Since(start).Milliseconds(),
		},
	}

	if req.Anonymize {
		response.Results = s.anonymizer.AnonymizeAll(results)
		response.Metadata = &models.ResponseMetadata{
			Anonymized:   true,
			AnonymizedAt: time.Now().UTC().Format(time.RFC3339),
		}
	} else {
		response.Results = results
		if req.Debug {
			response.Debug = &models.SearchDebug{
				VectorResults: vectorResults,
				TextResults:   textResults,
				FusionMethod:  s.fusion.Method(),
			}
		}
	}

	metrics.SearchDuration.WithLabelValues(req.TenantID).Observe(time.Since(start).Seconds())
	log.Info("search completed", map[string]interface{}{
		"results":  len(results),
		"total_ms": response.Timings.TotalMs,
	})
	return response, nil
}

func validateRequest(req models.SearchRequest) error {
	if req.TenantID == "" {
		return errors.NewInvalidRequestError("tenantId is required")
	}
	if req.Query == "" && len(req.QueryEmbedding) == 0 {
		return errors.NewInvalidRequestError("query or queryEmbedding is required")
	}
	return nil
}

// retrieve runs whichever retrieval legs the request enables, in
// parallel. A failure on either leg fails the request.
func (s *Service) retrieve(ctx context.Context, req models.SearchRequest) ([]models.RankedRef, []models.RankedRef, error) {
	var (
		wg            sync.WaitGroup
		vectorResults []models.RankedRef
		textResults   []models.RankedRef
		vectorErr     error
		textErr       error
	)
	perMethodCap := s.config.Retrieval.CandidateLimit

	if len(req.QueryEmbedding) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vectorResults, vectorErr = s.store.VectorSearch(ctx, req.QueryEmbedding, req.TenantID, perMethodCap)
		}()
	}
	if req.Query != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			textResults, textErr = s.store.TextSearch(ctx, req.Query, req.TenantID, perMethodCap)
		}()
	}
	wg.Wait()

	if vectorErr != nil {
		return nil, nil, vectorErr
	}
	if textErr != nil {
		return nil, nil, textErr
	}
	return vectorResults, textResults, nil
}

// enrich resolves profiles, trajectory predictions, and signal bundles,
// scores every fused candidate, and orders the list by descending final
// score with candidateId as the tie-break. The reported cache flag is
// true only when every profile lookup was served from the cache.
func (s *Service) enrich(
	ctx context.Context,
	req models.SearchRequest,
	fused []models.FusedCandidate,
	scorer *scoring.Scorer,
) ([]models.ScoredCandidate, map[string]*models.CandidateProfile, bool) {
	results := make([]models.ScoredCandidate, len(fused))
	profiles := make([]*models.CandidateProfile, len(fused))
	cacheHits := make([]bool, len(fused))

	// The fused score anchors the final ranking as its own signal,
	// normalized against the best fused score in this result set.
	var maxBase float64
	for _, c := range fused {
		if c.RRFScore > maxBase {
			maxBase = c.RRFScore
		}
	}

	sem := make(chan struct{}, enrichmentWorkers)
	var wg sync.WaitGroup
	for i, candidate := range fused {
		wg.Add(1)
		go func(i int, candidate models.FusedCandidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			profile, fromCache := s.profileFor(ctx, candidate.CandidateID)
			prediction := s.predictFor(ctx, candidate.CandidateID, profile)
			signals := BuildSignals(req.Query, profile)
			if maxBase > 0 {
				signals.FusedBase = models.Float(candidate.RRFScore / maxBase)
			}

			profiles[i] = profile
			cacheHits[i] = fromCache
			results[i] = scorer.Score(candidate, signals, profile, prediction)
		}(i, candidate)
	}
	wg.Wait()

	byID := make(map[string]*models.CandidateProfile, len(fused))
	allCached := len(fused) > 0
	for i, p := range profiles {
		if p != nil {
			byID[fused[i].CandidateID] = p
		}
		if !cacheHits[i] {
			allCached = false
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CandidateID < results[j].CandidateID
	})

	return results, byID, allCached
}

// profileFor degrades to nil on lookup failure; a missing profile only
// costs the candidate its profile-backed signals.
func (s *Service) profileFor(ctx context.Context, candidateID string) (*models.CandidateProfile, bool) {
	profile, fromCache, err := s.profiles.Profile(ctx, candidateID)
	if err != nil {
		s.logger.Warn("profile lookup failed", map[string]interface{}{
			"candidate_id": candidateID,
			"error":        err.Error(),
		})
		return nil, false
	}
	return profile, fromCache
}

func (s *Service) predictFor(ctx context.Context, candidateID string, profile *models.CandidateProfile) *models.TrajectoryPrediction {
	if s.trajectory == nil || profile == nil || len(profile.TitleHistory) == 0 {
		return nil
	}
	return s.trajectory.Predict(ctx, models.TrajectoryPredictionRequest{
		CandidateID:     candidateID,
		TitleSequence:   profile.TitleHistory,
		TenureDurations: profile.TenureMonths,
	})
}

// emitShownEvents publishes one fire-and-forget "shown" event per
// returned candidate with a resolved profile.
func (s *Service) emitShownEvents(
	req models.SearchRequest,
	searchID string,
	results []models.ScoredCandidate,
	profiles map[string]*models.CandidateProfile,
) {
	if s.emitter == nil {
		return
	}
	for i, result := range results {
		profile, ok := profiles[result.CandidateID]
		if !ok {
			continue
		}
		event := s.classifier.Classify(
			models.EventShown, *profile, searchID, req.TenantID, "",
			models.Int(i+1), models.Float(result.Score),
		)
		s.emitter.Emit(event)
	}
}
