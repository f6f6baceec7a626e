package config

import (
	"time"

	"github.com/spf13/viper"
)

// Match modes accepted by engine.match_mode.
const (
	MatchModeSubstring = "substring"
	MatchModeWord      = "word"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxBodySize     = 2 << 20

	DefaultGRPCPort = 9090

	DefaultHighThreshold         = 15
	DefaultModerateThreshold     = 7
	DefaultSummarySentences      = 3
	DefaultRiskySummarySentences = 3
	DefaultAnalysisTimeout       = 30 * time.Second

	DefaultFetchTimeout = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0"
	DefaultMaxBodyBytes = 5 << 20
	DefaultCacheTTL     = time.Hour

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "priviq:"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "priviq-worker"
	DefaultKafkaClientID     = "priviq"
	DefaultKafkaBatchTimeout = 10 * time.Millisecond
	DefaultKafkaMaxRetries   = 3
	DefaultKafkaRetryBackoff = 500 * time.Millisecond

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "policies"

	DefaultTranslationModel = "gpt-4o-mini"
	DefaultSpeechModel      = "tts-1"
	DefaultVoice            = "alloy"
	DefaultSpeechTimeout    = 30 * time.Second

	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20

	DefaultMetricsNamespace = "priviq"
	DefaultMetricsPath      = "/metrics"

	DefaultWorkerConcurrency = 4
	DefaultWorkerHealthPort  = 8081

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with its default.
// Explicitly configured values are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.MatchMode == "" {
		cfg.Engine.MatchMode = MatchModeSubstring
	}
	if cfg.Engine.HighThreshold == 0 {
		cfg.Engine.HighThreshold = DefaultHighThreshold
	}
	if cfg.Engine.ModerateThreshold == 0 {
		cfg.Engine.ModerateThreshold = DefaultModerateThreshold
	}
	if cfg.Engine.SummarySentences == 0 {
		cfg.Engine.SummarySentences = DefaultSummarySentences
	}
	if cfg.Engine.RiskySummarySentences == 0 {
		cfg.Engine.RiskySummarySentences = DefaultRiskySummarySentences
	}
	if cfg.Engine.AnalysisTimeout == 0 {
		cfg.Engine.AnalysisTimeout = DefaultAnalysisTimeout
	}

	// ── Source ────────────────────────────────────────────────────────────────
	if cfg.Source.FetchTimeout == 0 {
		cfg.Source.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = DefaultUserAgent
	}
	if cfg.Source.MaxBodyBytes == 0 {
		cfg.Source.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Source.CacheTTL == 0 {
		cfg.Source.CacheTTL = DefaultCacheTTL
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = DefaultKafkaClientID
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = DefaultKafkaRetryBackoff
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Speech ────────────────────────────────────────────────────────────────
	if cfg.Speech.TranslationModel == "" {
		cfg.Speech.TranslationModel = DefaultTranslationModel
	}
	if cfg.Speech.SpeechModel == "" {
		cfg.Speech.SpeechModel = DefaultSpeechModel
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = DefaultVoice
	}
	if cfg.Speech.Timeout == 0 {
		cfg.Speech.Timeout = DefaultSpeechTimeout
	}

	// ── Rate limit / metrics / worker ─────────────────────────────────────────
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// registerKeys seeds v with every known key so that AutomaticEnv can resolve
// PRIVIQ_* overrides during Unmarshal even when no config file sets them.
// Booleans default to their documented values here; everything else is filled
// by ApplyDefaults.
func registerKeys(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.mode", "")
	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", 0)
	v.SetDefault("grpc.enable_reflection", false)
	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "")
	v.SetDefault("engine.match_mode", "")
	v.SetDefault("engine.high_threshold", 0)
	v.SetDefault("engine.moderate_threshold", 0)
	v.SetDefault("engine.summary_sentences", 0)
	v.SetDefault("engine.risky_summary_sentences", 0)
	v.SetDefault("engine.lexicon_path", "")
	v.SetDefault("source.user_agent", "")
	v.SetDefault("source.allow_private_hosts", false)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.group_id", "")
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "")
	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.base_url", "")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("worker.concurrency", 0)
	v.SetDefault("worker.health_port", 0)
}
