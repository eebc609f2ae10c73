// cmd/search-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/talentlake/talentrank/internal/bias"
	"github.com/talentlake/talentrank/internal/common/config"
	"github.com/talentlake/talentrank/internal/common/database"
	"github.com/talentlake/talentrank/internal/common/logger"
	"github.com/talentlake/talentrank/internal/common/observability"
	"github.com/talentlake/talentrank/internal/models"
	"github.com/talentlake/talentrank/internal/ranking/fusion"
	"github.com/talentlake/talentrank/internal/retrieval"
	"github.com/talentlake/talentrank/internal/search"
	"github.com/talentlake/talentrank/internal/server"
	"github.com/talentlake/talentrank/internal/trajectory/client"
	"github.com/talentlake/talentrank/internal/trajectory/predictor"
	"github.com/talentlake/talentrank/internal/trajectory/shadow"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// localPredictionClient serves predictions from the in-process model.
// It honors the client contract: callers never see an error.
type localPredictionClient struct {
	predictor *predictor.Predictor
}

func (c *localPredictionClient) Predict(_ context.Context, req models.TrajectoryPredictionRequest) *models.TrajectoryPrediction {
	pred, err := c.predictor.Predict(req)
	if err != nil {
		return nil
	}
	return &pred
}

func (c *localPredictionClient) IsAvailable() bool { return true }

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting search service...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Retrieval ---
	store := retrieval.NewElasticsearchStore(esClient.Client, cfg.Retrieval.Index, log)
	profiles := retrieval.NewCachedProfileSource(
		store, redisClient.Client, config.GetDuration(cfg.Retrieval.CacheTTL), log,
	)

	// --- Trajectory predictor (in-process model, optional) ---
	var (
		trajectoryPredictor *predictor.Predictor
		predictorReady      = true
	)
	if cfg.Trajectory.ModelPath != "" {
		artifacts, loadErr := predictor.LoadArtifacts(cfg.Trajectory.ModelPath)
		if loadErr != nil {
			// A predictor without its vocabulary or calibration must report
			// not-ready rather than serve guesses. Search keeps running
			// without the trajectory signal.
			zapLog.Error("trajectory model load failed", zap.Error(loadErr))
			predictorReady = false
		} else {
			trajectoryPredictor = predictor.New(predictor.Config{
				ConfidenceThreshold: cfg.Trajectory.ConfidenceThreshold,
			}, artifacts, log)
			zapLog.Info("trajectory model loaded",
				zap.String("version", trajectoryPredictor.ModelVersion()),
			)
		}
	}

	// --- Shadow validation harness ---
	var harness *shadow.Harness
	if cfg.Shadow.Enabled {
		var comparisonStore shadow.ComparisonStore
		if cfg.Shadow.Store == "redis" {
			comparisonStore = shadow.NewRedisStore(redisClient.Client, cfg.Shadow.MaxRetained)
		} else {
			comparisonStore = shadow.NewMemoryStore(cfg.Shadow.MaxRetained)
		}
		harness = shadow.NewHarness(shadow.Config{
			BatchSize:             cfg.Shadow.BatchSize,
			FlushInterval:         config.GetDuration(cfg.Shadow.FlushInterval),
			DirectionAgreementMin: cfg.Shadow.Promotion.DirectionAgreementMin,
			VelocityAgreementMin:  cfg.Shadow.Promotion.VelocityAgreementMin,
			MinComparisons:        cfg.Shadow.Promotion.MinComparisons,
		}, comparisonStore, log)
		defer harness.Close()

		if trajectoryPredictor != nil {
			trajectoryPredictor.SetObserver(harness)
		}
		zapLog.Info("shadow validation enabled", zap.String("store", cfg.Shadow.Store))
	}

	// --- Prediction path: in-process model when loaded, remote service
	// otherwise ---
	var predictionClient search.PredictionClient
	if trajectoryPredictor != nil {
		predictionClient = &localPredictionClient{predictor: trajectoryPredictor}
	} else if cfg.Trajectory.Enabled {
		remote, clientErr := client.NewClient(client.Config{
			BaseURL:          cfg.Trajectory.ServiceURL,
			Enabled:          cfg.Trajectory.Enabled,
			Timeout:          config.GetDuration(cfg.Trajectory.Timeout),
			FailureThreshold: cfg.Trajectory.Breaker.FailureThreshold,
			Cooldown:         config.GetDuration(cfg.Trajectory.Breaker.Cooldown),
		}, log)
		if clientErr != nil {
			zapLog.Fatal("trajectory client init failed", zap.Error(clientErr))
		}
		defer remote.Close()
		predictionClient = remote
	}

	// --- Selection event emitter ---
	emitter := bias.NewEmitter(bias.NewPostgresSink(pg.DB), log)

	// --- Search pipeline ---
	fusionEngine := fusion.NewEngine(fusion.Config{
		K:            cfg.Fusion.K,
		LegacyLinear: cfg.Fusion.LegacyLinear,
		VectorWeight: cfg.Fusion.VectorWeight,
		TextWeight:   cfg.Fusion.TextWeight,
	}, log)
	searchService := search.NewService(cfg, store, profiles, fusionEngine, predictionClient, emitter, log)

	// --- HTTP server ---
	var shadowReader server.ShadowReader
	if harness != nil {
		shadowReader = harness
	}
	srv := server.New(cfg.Server, cfg.App, searchService, shadowReader, func() bool {
		return predictorReady
	}, log)
	srv.SetRecorder(obs)

	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil {
			zapLog.Error("http server stopped", zap.Error(serveErr))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Search service stopped")
}
