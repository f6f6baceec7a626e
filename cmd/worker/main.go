// Command worker consumes analysis jobs from Kafka and publishes the
// finished reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/bootstrap"
	"github.com/turtacn/PriviQ/internal/config"
	"github.com/turtacn/PriviQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var version = "dev"

const (
	jobSourceName   = "priviq-worker"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: PRIVIQ_* environment)")
	workers := flag.Int("workers", 0, "number of concurrent consumers (overrides worker.concurrency)")
	flag.Parse()

	if err := run(*configPath, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Worker.Concurrency = workers
	}
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka.enabled must be true to run the worker")
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	logging.SetDefault(logger)

	logger.Info("starting PriviQ worker",
		logging.String("version", version),
		logging.Int("workers", cfg.Worker.Concurrency),
		logging.String("group_id", cfg.Kafka.GroupID),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	comps, err := bootstrap.New(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close() //nolint:errcheck

	topics, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger.Named("kafka"))
	if err != nil {
		return err
	}
	if err := topics.EnsureTopics(startCtx, kafka.DefaultTopics()); err != nil {
		topics.Close() //nolint:errcheck
		return err
	}
	topics.Close() //nolint:errcheck

	// One producer carries both completed reports and dead letters.
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		ClientID:     cfg.Kafka.ClientID,
		MaxRetries:   cfg.Kafka.MaxRetries,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	}, logger.Named("kafka"))
	if err != nil {
		return err
	}
	defer producer.Close() //nolint:errcheck

	var locks analysis.JobLocker
	if comps.Locks != nil {
		locks = comps.Locks
	}
	handler := analysis.NewJobHandler(comps.Service, producer, locks, jobSourceName, comps.Metrics, logger)

	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			c.Close() //nolint:errcheck
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topics:  []string{kafka.TopicAnalysisRequested},
			RetryConfig: kafka.RetryConfig{
				MaxRetries:      cfg.Kafka.MaxRetries,
				RetryBackoff:    cfg.Kafka.RetryBackoff,
				DeadLetterTopic: kafka.TopicDeadLetterPolicy,
			},
		}, producer, logger.Named("kafka").With(logging.Int("consumer", i)))
		if err != nil {
			return err
		}
		c.Subscribe(kafka.TopicAnalysisRequested, handler.Handle)
		consumers = append(consumers, c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, c := range consumers {
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	healthSrv := startHealthServer(cfg, comps, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", logging.String("signal", sig.String()))

	// Close waits for the in-flight message of each consumer.
	var wg sync.WaitGroup
	for _, c := range consumers {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Close(); err != nil {
				logger.Warn("consumer close failed", logging.Err(err))
			}
		}(c)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("all consumers finished")
	case <-time.After(shutdownTimeout):
		logger.Warn("shutdown timeout exceeded, forcing exit")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := healthSrv.Shutdown(stopCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}

	logger.Info("PriviQ worker stopped")
	return nil
}

// startHealthServer exposes probes and, when enabled, metrics.
func startHealthServer(cfg *config.Config, comps *bootstrap.Components, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if comps.Redis != nil {
			if err := comps.Redis.Ping(r.Context()); err != nil {
				http.Error(w, "redis: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready")) //nolint:errcheck
	})
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, comps.Collector.Handler())
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("health server listening", logging.Int("port", cfg.Worker.HealthPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv
}
