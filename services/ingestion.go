package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/domain"
	"github.com/finsight/analytics-engine/messaging"
	"github.com/finsight/analytics-engine/normalizer"
)

// IngestionService is the low-latency inbound path: normalize, persist, and
// on success emit one derived analytics event. Unusable payloads are dropped
// with a diagnostic signal so upstream event-shape drift never crashes the
// pipeline.
type IngestionService struct {
	store     domain.TimeSeriesStore
	publisher domain.EventPublisher
	batcher   *RecordBatcher
	topic     string
	logger    *zap.Logger

	dropped atomic.Int64
}

var _ messaging.MessageHandler = (*IngestionService)(nil)

// NewIngestionService wires the ingestion path. The batcher is optional; when
// present, direct API ingestion goes through it instead of single writes.
func NewIngestionService(
	store domain.TimeSeriesStore,
	publisher domain.EventPublisher,
	batcher *RecordBatcher,
	topic string,
	logger *zap.Logger,
) (*IngestionService, error) {
	if store == nil {
		return nil, fmt.Errorf("time-series store cannot be nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher cannot be nil")
	}
	if topic == "" {
		return nil, fmt.Errorf("analytics events topic cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IngestionService{
		store:     store,
		publisher: publisher,
		batcher:   batcher,
		topic:     topic,
		logger:    logger,
	}, nil
}

// HandleMessage processes one inbound broker message. Only persistence
// failures are returned; malformed payloads are consumed silently.
func (s *IngestionService) HandleMessage(ctx context.Context, source string, payload []byte) error {
	var raw map[string]any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &raw); err != nil {
			s.drop(source, len(payload))
			return nil
		}
	}

	record, ok := normalizer.Normalize(raw, source)
	if !ok {
		s.drop(source, len(payload))
		return nil
	}

	if err := s.store.WriteRecord(ctx, record); err != nil {
		return err
	}

	// Write succeeded; a lost notification is acceptable, a lost write is not.
	event := domain.AnalyticsEvent{
		EventID:        uuid.NewString(),
		EventType:      eventTypeForSource(source),
		EventTimestamp: time.Now().UTC(),
		AnalyticsData: map[string]any{
			"measurement": record.Measurement,
			"timestamp":   record.Timestamp,
			"tags":        record.Tags,
			"fields":      record.Fields,
		},
	}
	if err := s.publisher.Publish(ctx, s.topic, event.EventID, event); err != nil {
		s.logger.Warn("analytics event publish failed",
			zap.String("source", source), zap.Error(err))
	}

	return nil
}

// Ingest accepts a raw payload from the direct API path and enqueues it to
// the buffered batch writer. Unusable payloads are dropped, not errors.
func (s *IngestionService) Ingest(ctx context.Context, raw map[string]any, source string) (bool, error) {
	record, ok := normalizer.Normalize(raw, source)
	if !ok {
		s.drop(source, len(raw))
		return false, nil
	}

	if s.batcher != nil {
		return true, s.batcher.Enqueue(record)
	}
	return true, s.store.WriteRecord(ctx, record)
}

// Dropped reports how many unusable payloads were discarded since start.
func (s *IngestionService) Dropped() int64 {
	return s.dropped.Load()
}

func (s *IngestionService) drop(source string, size int) {
	s.dropped.Add(1)
	s.logger.Warn("dropped unusable ingestion payload",
		zap.String("source", source),
		zap.Int("payload_size", size))
}

func eventTypeForSource(source string) string {
	switch source {
	case normalizer.SourceTransactionService:
		return domain.EventTypeTransactionProcessed
	case normalizer.SourceRiskService:
		return domain.EventTypeRiskProcessed
	default:
		return domain.EventTypeMetricProcessed
	}
}
