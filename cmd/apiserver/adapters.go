package main

import (
	"context"
	"fmt"

	"github.com/turtacn/PriviQ/internal/bootstrap"
	"github.com/turtacn/PriviQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/PriviQ/internal/interfaces/http/handlers"
)

// healthCheckers exposes the connected collaborators to /readyz. topics is
// nil when Kafka is disabled.
func healthCheckers(c *bootstrap.Components, topics *kafka.TopicManager) []handlers.HealthChecker {
	var checkers []handlers.HealthChecker
	if c.Redis != nil {
		checkers = append(checkers, handlers.CheckFunc{ComponentName: "redis", Fn: c.Redis.Ping})
	}
	if c.Objects != nil {
		checkers = append(checkers, handlers.CheckFunc{ComponentName: "minio", Fn: c.Objects.HealthCheck})
	}
	if topics != nil {
		checkers = append(checkers, handlers.CheckFunc{
			ComponentName: "kafka",
			Fn: func(ctx context.Context) error {
				ok, err := topics.TopicExists(ctx, kafka.TopicAnalysisRequested)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("topic %s not found", kafka.TopicAnalysisRequested)
				}
				return nil
			},
		})
	}
	return checkers
}
