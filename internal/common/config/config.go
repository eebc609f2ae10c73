package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig                `mapstructure:"app"`
	Server     ServerConfig             `mapstructure:"server"`
	Database   DatabaseConfig           `mapstructure:"database"`
	Retrieval  RetrievalConfig          `mapstructure:"retrieval"`
	Fusion     FusionConfig             `mapstructure:"fusion"`
	Scoring    ScoringConfig            `mapstructure:"scoring"`
	Trajectory TrajectoryConfig         `mapstructure:"trajectory"`
	Shadow     ShadowConfig             `mapstructure:"shadow"`
	Tenants    map[string]SignalWeights `mapstructure:"tenants"`
	Logging    LoggingConfig            `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Ranking Configuration ---

// RetrievalConfig controls the two retrieval legs executed per search.
type RetrievalConfig struct {
	Index          string `mapstructure:"index"`
	CandidateLimit int    `mapstructure:"candidate_limit"` // per-method cap
	CacheTTL       int    `mapstructure:"cache_ttl"`       // milliseconds, candidate feature cache
}

// FusionConfig holds the rank-fusion parameters.
type FusionConfig struct {
	K            int     `mapstructure:"k"` // RRF constant, sharpens top-rank dominance when small
	LegacyLinear bool    `mapstructure:"legacy_linear"`
	VectorWeight float64 `mapstructure:"vector_weight"` // legacy fallback only
	TextWeight   float64 `mapstructure:"text_weight"`   // legacy fallback only
}

// SignalWeights is the typed per-tenant weight table. Every field is a
// multiplier in [0,1]; a zero value means the signal carries no weight.
type SignalWeights struct {
	FusedBase          float64 `mapstructure:"fused_base" json:"fusedBase"`
	VectorSimilarity   float64 `mapstructure:"vector_similarity" json:"vectorSimilarity"`
	LevelMatch         float64 `mapstructure:"level_match" json:"levelMatch"`
	SpecialtyMatch     float64 `mapstructure:"specialty_match" json:"specialtyMatch"`
	TechStackMatch     float64 `mapstructure:"tech_stack_match" json:"techStackMatch"`
	FunctionMatch      float64 `mapstructure:"function_match" json:"functionMatch"`
	TrajectoryFit      float64 `mapstructure:"trajectory_fit" json:"trajectoryFit"`
	CompanyPedigree    float64 `mapstructure:"company_pedigree" json:"companyPedigree"`
	SkillsExactMatch   float64 `mapstructure:"skills_exact_match" json:"skillsExactMatch"`
	SkillsInferred     float64 `mapstructure:"skills_inferred" json:"skillsInferred"`
	SeniorityAlignment float64 `mapstructure:"seniority_alignment" json:"seniorityAlignment"`
	RecencyBoost       float64 `mapstructure:"recency_boost" json:"recencyBoost"`
	CompanyRelevance   float64 `mapstructure:"company_relevance" json:"companyRelevance"`
}

// ScoringConfig holds the default weight table and reason thresholds.
type ScoringConfig struct {
	Weights SignalWeights `mapstructure:"weights"`
}

// TrajectoryConfig configures the prediction client and predictor.
type TrajectoryConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	ServiceURL          string        `mapstructure:"service_url"`
	Timeout             int           `mapstructure:"timeout"` // milliseconds
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	ModelPath           string        `mapstructure:"model_path"`
	Breaker             BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the per-instance circuit breaker.
type BreakerConfig struct {
	FailureThreshold int `mapstructure:"failure_threshold"`
	Cooldown         int `mapstructure:"cooldown"` // milliseconds
}

// ShadowConfig configures the shadow validation harness.
type ShadowConfig struct {
	Enabled       bool            `mapstructure:"enabled"`
	BatchSize     int             `mapstructure:"batch_size"`
	FlushInterval int             `mapstructure:"flush_interval"` // milliseconds
	Store         string          `mapstructure:"store"`          // "memory" or "redis"
	MaxRetained   int             `mapstructure:"max_retained"`
	Promotion     PromotionConfig `mapstructure:"promotion"`
}

// PromotionConfig holds the independently inspectable promotion thresholds.
type PromotionConfig struct {
	DirectionAgreementMin float64 `mapstructure:"direction_agreement_min"`
	VelocityAgreementMin  float64 `mapstructure:"velocity_agreement_min"`
	MinComparisons        int     `mapstructure:"min_comparisons"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// WeightsForTenant returns the tenant weight table, falling back to the
// default table when the tenant has no override.
func (c *Config) WeightsForTenant(tenantID string) SignalWeights {
	if w, ok := c.Tenants[tenantID]; ok {
		return w
	}
	return c.Scoring.Weights
}
