// Package events publishes scrape-run lifecycle events to a Redis stream so
// downstream consumers (dashboards, alerting) can follow runs without polling
// the ingestion endpoint. Runs are ephemeral, so events publish directly
// after delivery; there is no durable outbox to relay from.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/marketlens/price-intel-scraper/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// StreamName is the Redis stream scrape events are appended to.
	StreamName = "scraper:runs"

	// EventTypeRunCompleted is published once per finished run.
	EventTypeRunCompleted = "RUN_COMPLETED"
)

// RedisClient is the slice of go-redis the publisher needs, kept as an
// interface for testing.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
}

// RunCompletedPayload is the event envelope for a finished scrape run.
type RunCompletedPayload struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Summary   models.RunSummary      `json:"summary"`
	Delivery  *models.DeliveryReport `json:"delivery,omitempty"`
}

// Publisher appends events to the scrape stream.
type Publisher struct {
	redis  RedisClient
	logger *slog.Logger
}

func NewPublisher(client RedisClient, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		redis:  client,
		logger: logger.With("component", "event_publisher"),
	}
}

// PublishRunCompleted emits one RUN_COMPLETED event. Publishing is best
// effort from the pipeline's perspective; a failure is returned for logging
// but must not fail the run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, summary models.RunSummary, delivery *models.DeliveryReport) error {
	payload := RunCompletedPayload{
		EventID:   uuid.New().String(),
		EventType: EventTypeRunCompleted,
		Timestamp: time.Now().UTC(),
		Summary:   summary,
		Delivery:  delivery,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]interface{}{
			"event_id":   payload.EventID,
			"event_type": payload.EventType,
			"payload":    string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("published run event",
		"event_id", payload.EventID,
		"run_id", summary.RunID,
		"records", summary.Records,
	)
	return nil
}
