// Package bootstrap assembles the analysis stack from configuration. The API
// server, the job worker and the CLI share it so every entry point resolves
// documents and scores them the same way.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/config"
	"github.com/turtacn/PriviQ/internal/infrastructure/database/redis"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/internal/infrastructure/speech"
	"github.com/turtacn/PriviQ/internal/infrastructure/storage/minio"
	"github.com/turtacn/PriviQ/internal/intelligence/lexicon"
	"github.com/turtacn/PriviQ/internal/intelligence/policyrisk"
)

// Components is the assembled stack. Redis, Objects and Speech are nil when
// disabled in configuration.
type Components struct {
	Config    *config.Config
	Logger    logging.Logger
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics
	Engine    *policyrisk.Engine
	Redis     *redis.Client
	Locks     *redis.LockFactory
	Objects   *minio.Client
	Speech    *speech.Client
	Service   analysis.Service

	closers []func() error
}

// New connects the enabled collaborators and builds the analysis service.
// On error every connection opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (_ *Components, err error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &Components{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	c.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	c.Metrics = prometheus.NewAppMetrics(c.Collector)

	if c.Engine, err = NewEngine(cfg.Engine); err != nil {
		return nil, err
	}

	var docCache source.DocumentCache
	if cfg.Redis.Enabled {
		c.Redis, err = redis.NewClient(&redis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, log.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.closers = append(c.closers, c.Redis.Close)
		cache := redis.NewRedisCache(c.Redis, log.Named("cache"), redis.WithPrefix(cfg.Redis.KeyPrefix))
		docCache = redis.NewDocumentCache(cache, cfg.Source.CacheTTL)
		c.Locks = redis.NewLockFactory(c.Redis, cfg.Redis.KeyPrefix+"lock:", log.Named("lock"))
	}

	var objects source.ObjectReader
	if cfg.MinIO.Enabled {
		c.Objects, err = minio.NewClient(ctx, minio.Config{
			Endpoint:     cfg.MinIO.Endpoint,
			AccessKey:    cfg.MinIO.AccessKey,
			SecretKey:    cfg.MinIO.SecretKey,
			Bucket:       cfg.MinIO.Bucket,
			UseSSL:       cfg.MinIO.UseSSL,
			Region:       cfg.MinIO.Region,
			CreateBucket: true,
		}, log.Named("minio"))
		if err != nil {
			return nil, fmt.Errorf("minio: %w", err)
		}
		objects = c.Objects
	}

	deps := analysis.Deps{
		Engine:  c.Engine,
		Metrics: c.Metrics,
		Logger:  log,
		Timeout: cfg.Engine.AnalysisTimeout,
	}
	if cfg.Speech.Enabled {
		c.Speech, err = speech.NewClient(speech.Config{
			APIKey:           cfg.Speech.APIKey,
			BaseURL:          cfg.Speech.BaseURL,
			TranslationModel: cfg.Speech.TranslationModel,
			SpeechModel:      cfg.Speech.SpeechModel,
			Voice:            cfg.Speech.Voice,
			Timeout:          cfg.Speech.Timeout,
		}, log.Named("speech"))
		if err != nil {
			return nil, fmt.Errorf("speech: %w", err)
		}
		deps.Translator = c.Speech
		deps.Synthesizer = c.Speech
	}

	fetcherOpts := []source.FetcherOption{source.WithFetchMetrics(c.Metrics)}
	if docCache != nil {
		fetcherOpts = append(fetcherOpts, source.WithDocumentCache(docCache))
	}
	fetcher := source.NewFetcher(source.FetcherConfig{
		UserAgent:    cfg.Source.UserAgent,
		Timeout:      cfg.Source.FetchTimeout,
		MaxBodyBytes: cfg.Source.MaxBodyBytes,

		AllowPrivateHosts: cfg.Source.AllowPrivateHosts,
	}, log.Named("fetch"), fetcherOpts...)
	deps.Resolver = source.NewResolver(fetcher, objects, c.Metrics, log.Named("source"))

	if c.Service, err = analysis.NewService(deps); err != nil {
		return nil, err
	}
	return c, nil
}

// NewEngine loads the configured lexicon and applies the engine tunables.
func NewEngine(cfg config.EngineConfig) (*policyrisk.Engine, error) {
	lex, err := lexicon.LoadOrDefault(cfg.LexiconPath)
	if err != nil {
		return nil, err
	}
	mode, err := policyrisk.ParseMatchMode(cfg.MatchMode)
	if err != nil {
		return nil, err
	}
	opts := []policyrisk.Option{policyrisk.WithMatchMode(mode)}
	if cfg.HighThreshold > 0 && cfg.ModerateThreshold > 0 {
		opts = append(opts, policyrisk.WithThresholds(cfg.HighThreshold, cfg.ModerateThreshold))
	}
	if cfg.SummarySentences > 0 {
		opts = append(opts, policyrisk.WithSummarySentences(cfg.SummarySentences))
	}
	if cfg.RiskySummarySentences > 0 {
		opts = append(opts, policyrisk.WithRiskySummarySentences(cfg.RiskySummarySentences))
	}
	return policyrisk.New(lex, nil, opts...)
}

// Close releases every open connection in reverse order.
func (c *Components) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
