// Package config defines the configuration structures for PriviQ.  Loading
// lives in loader.go and defaults in defaults.go; this file holds plain data
// types and validation only.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// GRPCConfig holds gRPC server tunables.
type GRPCConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	Port             int  `mapstructure:"port"`
	EnableReflection bool `mapstructure:"enable_reflection"`
}

// EngineConfig holds the risk-engine tunables.
type EngineConfig struct {
	// MatchMode is "substring" (default) or "word".
	MatchMode string `mapstructure:"match_mode"`

	// HighThreshold and ModerateThreshold bound the unique-weighted score
	// levels.  HighThreshold must exceed ModerateThreshold.
	HighThreshold     int `mapstructure:"high_threshold"`
	ModerateThreshold int `mapstructure:"moderate_threshold"`

	SummarySentences      int `mapstructure:"summary_sentences"`
	RiskySummarySentences int `mapstructure:"risky_summary_sentences"`

	// LexiconPath optionally points at a YAML lexicon replacing the built-in
	// tables.
	LexiconPath string `mapstructure:"lexicon_path"`

	// AnalysisTimeout bounds a full-report analysis.
	AnalysisTimeout time.Duration `mapstructure:"analysis_timeout"`
}

// SourceConfig holds document-fetch parameters.
type SourceConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	// AllowPrivateHosts lets URL fetches reach loopback and private networks.
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts"`
}

// RedisConfig holds Redis connection parameters for the document cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds analysis-job messaging parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	ClientID     string        `mapstructure:"client_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// MinIOConfig holds object-storage parameters for stored policy documents.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

// SpeechConfig holds the translation and text-to-speech collaborator settings.
type SpeechConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	TranslationModel string        `mapstructure:"translation_model"`
	SpeechModel      string        `mapstructure:"speech_model"`
	Voice            string        `mapstructure:"voice"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds per-client HTTP rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// WorkerConfig holds job-consumer parameters.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	// HealthPort serves /healthz, /readyz and metrics for the worker process.
	HealthPort int `mapstructure:"health_port"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	GRPC      GRPCConfig        `mapstructure:"grpc"`
	Log       logging.LogConfig `mapstructure:"log"`
	Engine    EngineConfig      `mapstructure:"engine"`
	Source    SourceConfig      `mapstructure:"source"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Kafka     KafkaConfig       `mapstructure:"kafka"`
	MinIO     MinIOConfig       `mapstructure:"minio"`
	Speech    SpeechConfig      `mapstructure:"speech"`
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Worker    WorkerConfig      `mapstructure:"worker"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535) {
		return fmt.Errorf("config: grpc.port %d is out of range [1, 65535]", c.GRPC.Port)
	}
	if c.GRPC.Enabled && c.GRPC.Port == c.Server.Port {
		return fmt.Errorf("config: grpc.port must differ from server.port")
	}

	// Engine
	switch c.Engine.MatchMode {
	case MatchModeSubstring, MatchModeWord:
	default:
		return fmt.Errorf("config: engine.match_mode %q is invalid; expected substring|word", c.Engine.MatchMode)
	}
	if c.Engine.ModerateThreshold < 1 {
		return fmt.Errorf("config: engine.moderate_threshold must be ≥ 1, got %d", c.Engine.ModerateThreshold)
	}
	if c.Engine.HighThreshold <= c.Engine.ModerateThreshold {
		return fmt.Errorf("config: engine.high_threshold (%d) must exceed engine.moderate_threshold (%d)",
			c.Engine.HighThreshold, c.Engine.ModerateThreshold)
	}
	if c.Engine.SummarySentences < 1 {
		return fmt.Errorf("config: engine.summary_sentences must be ≥ 1, got %d", c.Engine.SummarySentences)
	}
	if c.Engine.RiskySummarySentences < 1 {
		return fmt.Errorf("config: engine.risky_summary_sentences must be ≥ 1, got %d", c.Engine.RiskySummarySentences)
	}

	// Source
	if c.Source.FetchTimeout <= 0 {
		return fmt.Errorf("config: source.fetch_timeout must be positive")
	}

	// Optional infrastructure
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
	}
	if c.MinIO.Enabled && (c.MinIO.Endpoint == "" || c.MinIO.Bucket == "") {
		return fmt.Errorf("config: minio.endpoint and minio.bucket are required when minio is enabled")
	}
	if c.Speech.Enabled && c.Speech.APIKey == "" {
		return fmt.Errorf("config: speech.api_key is required when speech is enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("config: rate_limit requires requests_per_second > 0 and burst ≥ 1")
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be ≥ 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
