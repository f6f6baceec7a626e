// Command apiserver serves the PriviQ HTTP and gRPC APIs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/bootstrap"
	"github.com/turtacn/PriviQ/internal/config"
	"github.com/turtacn/PriviQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/PriviQ/internal/interfaces/grpc"
	"github.com/turtacn/PriviQ/internal/interfaces/grpc/services"
	httpserver "github.com/turtacn/PriviQ/internal/interfaces/http"
	"github.com/turtacn/PriviQ/internal/interfaces/http/handlers"
	"github.com/turtacn/PriviQ/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const (
	jobSourceName  = "priviq-apiserver"
	startupTimeout = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: PRIVIQ_* environment)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort, *grpcPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort, grpcPort int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}
	if grpcPort > 0 {
		cfg.GRPC.Port = grpcPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	logging.SetDefault(logger)

	logger.Info("starting PriviQ API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.GRPC.Port),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	comps, err := bootstrap.New(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close() //nolint:errcheck

	var (
		jobs     handlers.JobEnqueuer
		topics   *kafka.TopicManager
		producer *kafka.Producer
	)
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			ClientID:     cfg.Kafka.ClientID,
			MaxRetries:   cfg.Kafka.MaxRetries,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger.Named("kafka"))
		if err != nil {
			return err
		}
		defer producer.Close() //nolint:errcheck

		topics, err = kafka.NewTopicManager(cfg.Kafka.Brokers, logger.Named("kafka"))
		if err != nil {
			return err
		}
		defer topics.Close() //nolint:errcheck
		if err := topics.EnsureTopics(startCtx, kafka.DefaultTopics()); err != nil {
			return err
		}
		jobs = analysis.NewJobPublisher(producer, jobSourceName, comps.Metrics, logger)
	}

	var rateLimit *middleware.RateLimitConfig
	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		rl.SkipPaths = append(rl.SkipPaths, cfg.Metrics.Path)
		rateLimit = &rl
	}

	routerCfg := httpserver.RouterConfig{
		Mode:           cfg.Server.Mode,
		Analysis:       handlers.NewAnalysisHandler(comps.Service, logger),
		Jobs:           handlers.NewJobHandler(jobs, logger),
		Health:         handlers.NewHealthHandler(version, healthCheckers(comps, topics)...),
		Logger:         logger,
		Metrics:        comps.Metrics,
		RateLimit:      rateLimit,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodySize:    cfg.Server.MaxBodySize,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsHandler = comps.Collector.Handler()
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	httpSrv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)

	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg.GRPC,
			grpcserver.WithLogger(logger.Named("grpc")),
			grpcserver.WithMetrics(comps.Metrics),
		)
		if err != nil {
			return err
		}
		grpcSrv.RegisterService(&services.PolicyAnalysisServiceDesc, services.NewPolicyService(comps.Service, logger))
	}

	if configPath != "" {
		err := config.Watch(configPath, func(next *config.Config) {
			if logging.SetLevel(logger, next.Log.Level) {
				logger.Info("log level updated", logging.String("level", next.Log.Level))
			}
		}, func(err error) {
			logger.Warn("ignoring invalid config revision", logging.Err(err))
		})
		if err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	errCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()
	if grpcSrv != nil {
		go func() {
			if err := grpcSrv.Start(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("server failed", logging.Err(serveErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	if err := httpSrv.Stop(ctx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	if grpcSrv != nil {
		if err := grpcSrv.Stop(ctx); err != nil {
			logger.Error("gRPC server shutdown error", logging.Err(err))
		}
	}

	logger.Info("PriviQ API server stopped")
	return serveErr
}
