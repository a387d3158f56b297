// Package messaging carries the engine's inbound and outbound message topics
// over Redis pub/sub, behind narrow transport-agnostic contracts.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/domain"
)

// eventEnvelope frames an outbound analytics event with its partition key.
type eventEnvelope struct {
	Key   string                `json:"key"`
	Event domain.AnalyticsEvent `json:"event"`
}

// RedisPublisher emits derived analytics events on an outbound topic.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

var _ domain.EventPublisher = (*RedisPublisher)(nil)

// NewRedisPublisher builds a publisher over the shared Redis client.
func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, logger: logger}
}

// Publish serializes the event and emits it on the topic, keyed by event id.
func (p *RedisPublisher) Publish(ctx context.Context, topic, key string, event domain.AnalyticsEvent) error {
	payload, err := json.Marshal(eventEnvelope{Key: key, Event: event})
	if err != nil {
		return &domain.PublishError{Topic: topic, Err: err}
	}

	if err := p.client.Publish(ctx, topic, payload).Err(); err != nil {
		return &domain.PublishError{Topic: topic, Err: err}
	}

	p.logger.Debug("published analytics event",
		zap.String("topic", topic),
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType))
	return nil
}
