package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like TRAJECTORY_SERVICE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay (config.production.yaml etc.), optional.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks upward looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 5000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}

	// Retrieval defaults
	if cfg.Retrieval.Index == "" {
		cfg.Retrieval.Index = "candidates"
	}
	if cfg.Retrieval.CandidateLimit == 0 {
		cfg.Retrieval.CandidateLimit = 100
	}
	if cfg.Retrieval.CacheTTL == 0 {
		cfg.Retrieval.CacheTTL = 300000
	}

	// Fusion defaults
	if cfg.Fusion.K == 0 {
		cfg.Fusion.K = 60
	}
	if cfg.Fusion.VectorWeight == 0 && cfg.Fusion.TextWeight == 0 {
		cfg.Fusion.VectorWeight = 0.6
		cfg.Fusion.TextWeight = 0.4
	}

	// Scoring defaults: the documented default weight table.
	if cfg.Scoring.Weights == (SignalWeights{}) {
		cfg.Scoring.Weights = DefaultSignalWeights()
	}

	// Trajectory defaults
	if cfg.Trajectory.Timeout == 0 {
		cfg.Trajectory.Timeout = 100
	}
	if cfg.Trajectory.ConfidenceThreshold == 0 {
		cfg.Trajectory.ConfidenceThreshold = 0.6
	}
	if cfg.Trajectory.Breaker.FailureThreshold == 0 {
		cfg.Trajectory.Breaker.FailureThreshold = 3
	}
	if cfg.Trajectory.Breaker.Cooldown == 0 {
		cfg.Trajectory.Breaker.Cooldown = 30000
	}

	// Shadow defaults
	if cfg.Shadow.BatchSize == 0 {
		cfg.Shadow.BatchSize = 100
	}
	if cfg.Shadow.FlushInterval == 0 {
		cfg.Shadow.FlushInterval = 30000
	}
	if cfg.Shadow.Store == "" {
		cfg.Shadow.Store = "memory"
	}
	if cfg.Shadow.MaxRetained == 0 {
		cfg.Shadow.MaxRetained = 10000
	}
	if cfg.Shadow.Promotion.DirectionAgreementMin == 0 {
		cfg.Shadow.Promotion.DirectionAgreementMin = 0.85
	}
	if cfg.Shadow.Promotion.VelocityAgreementMin == 0 {
		cfg.Shadow.Promotion.VelocityAgreementMin = 0.80
	}
	if cfg.Shadow.Promotion.MinComparisons == 0 {
		cfg.Shadow.Promotion.MinComparisons = 1000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// DefaultSignalWeights is the documented default weight table applied when
// neither the tenant nor the query supplies an override.
func DefaultSignalWeights() SignalWeights {
	return SignalWeights{
		FusedBase:          0.25,
		VectorSimilarity:   0.25,
		LevelMatch:         0.10,
		SpecialtyMatch:     0.10,
		TechStackMatch:     0.10,
		FunctionMatch:      0.05,
		TrajectoryFit:      0.10,
		CompanyPedigree:    0.05,
		SkillsExactMatch:   0.10,
		SkillsInferred:     0.05,
		SeniorityAlignment: 0.05,
		RecencyBoost:       0.03,
		CompanyRelevance:   0.02,
	}
}

// validateConfig validates critical configuration fields. Weight tables are
// validated here so a malformed tenant override fails at startup, not at
// query time.
func validateConfig(cfg *Config) error {
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}
	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Fusion.K < 1 {
		cfg.Fusion.K = 1
	}

	if cfg.Trajectory.Enabled && cfg.Trajectory.ServiceURL == "" {
		return fmt.Errorf("trajectory.service_url is required when trajectory is enabled")
	}
	if cfg.Trajectory.ConfidenceThreshold < 0 || cfg.Trajectory.ConfidenceThreshold > 1 {
		return fmt.Errorf("trajectory.confidence_threshold must be in [0,1]")
	}

	if err := validateWeights("scoring.weights", cfg.Scoring.Weights); err != nil {
		return err
	}
	for tenant, w := range cfg.Tenants {
		if err := validateWeights(fmt.Sprintf("tenants.%s", tenant), w); err != nil {
			return err
		}
	}

	switch cfg.Shadow.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("shadow.store must be \"memory\" or \"redis\", got %q", cfg.Shadow.Store)
	}

	return nil
}

func validateWeights(path string, w SignalWeights) error {
	fields := map[string]float64{
		"fused_base":          w.FusedBase,
		"vector_similarity":   w.VectorSimilarity,
		"level_match":         w.LevelMatch,
		"specialty_match":     w.SpecialtyMatch,
		"tech_stack_match":    w.TechStackMatch,
		"function_match":      w.FunctionMatch,
		"trajectory_fit":      w.TrajectoryFit,
		"company_pedigree":    w.CompanyPedigree,
		"skills_exact_match":  w.SkillsExactMatch,
		"skills_inferred":     w.SkillsInferred,
		"seniority_alignment": w.SeniorityAlignment,
		"recency_boost":       w.RecencyBoost,
		"company_relevance":   w.CompanyRelevance,
	}
	for name, v := range fields {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s.%s must be in [0,1], got %v", path, name, v)
		}
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
