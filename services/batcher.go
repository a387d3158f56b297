package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/domain"
)

// ErrBufferFull is returned when the record buffer channel is full.
var ErrBufferFull = errors.New("record buffer is full")

// ErrStopped is returned when the batcher has been shut down and no longer
// accepts records.
var ErrStopped = errors.New("record batcher is stopped")

const flushTimeout = 30 * time.Second

// RecordBatcher buffers measurement records and flushes them to the store in
// columnar batches. One derived analytics event is published per flushed
// batch, only after the batch write succeeds.
type RecordBatcher struct {
	recordChan    chan domain.MeasurementRecord
	batchSize     int
	flushInterval time.Duration
	store         domain.TimeSeriesStore
	publisher     domain.EventPublisher
	topic         string
	logger        *zap.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	isRunning    bool
	stopped      bool
	currentBatch []domain.MeasurementRecord
}

// NewRecordBatcher creates a batcher with the given buffer capacity, batch
// size and flush interval.
func NewRecordBatcher(
	capacity int,
	batchSize int,
	flushIntervalSeconds int,
	store domain.TimeSeriesStore,
	publisher domain.EventPublisher,
	topic string,
	logger *zap.Logger,
) *RecordBatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RecordBatcher{
		recordChan:    make(chan domain.MeasurementRecord, capacity),
		batchSize:     batchSize,
		flushInterval: time.Duration(flushIntervalSeconds) * time.Second,
		store:         store,
		publisher:     publisher,
		topic:         topic,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		currentBatch:  make([]domain.MeasurementRecord, 0, batchSize),
	}
}

// Start launches the background worker goroutine.
func (b *RecordBatcher) Start() {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		return
	}
	b.isRunning = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.worker()
	b.logger.Info("record batcher started",
		zap.Int("batch_size", b.batchSize),
		zap.Duration("flush_interval", b.flushInterval))
}

// Enqueue adds a record to the buffer channel without blocking. Returns
// ErrBufferFull when the channel is saturated and ErrStopped after shutdown,
// when buffered records would no longer be flushed.
func (b *RecordBatcher) Enqueue(record domain.MeasurementRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return ErrStopped
	}
	select {
	case b.recordChan <- record:
		return nil
	default:
		return ErrBufferFull
	}
}

func (b *RecordBatcher) worker() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.flushRemaining()
			return

		case record := <-b.recordChan:
			b.mu.Lock()
			b.currentBatch = append(b.currentBatch, record)
			shouldFlush := len(b.currentBatch) >= b.batchSize
			b.mu.Unlock()

			if shouldFlush {
				b.flushBatch()
			}

		case <-ticker.C:
			b.mu.Lock()
			hasRecords := len(b.currentBatch) > 0
			b.mu.Unlock()

			if hasRecords {
				b.flushBatch()
			}
		}
	}
}

func (b *RecordBatcher) flushBatch() {
	b.mu.Lock()
	if len(b.currentBatch) == 0 {
		b.mu.Unlock()
		return
	}
	batch := make([]domain.MeasurementRecord, len(b.currentBatch))
	copy(batch, b.currentBatch)
	b.currentBatch = b.currentBatch[:0]
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := b.store.WriteRecords(ctx, batch); err != nil {
		b.logger.Error("batch flush failed",
			zap.Int("records", len(batch)), zap.Error(err))
		return
	}

	b.logger.Debug("batch flushed", zap.Int("records", len(batch)))

	// The batch is durable; announce it downstream.
	event := domain.AnalyticsEvent{
		EventID:        uuid.NewString(),
		EventType:      domain.EventTypeMetricProcessed,
		EventTimestamp: time.Now().UTC(),
		AnalyticsData:  map[string]any{"record_count": len(batch)},
	}
	if err := b.publisher.Publish(ctx, b.topic, event.EventID, event); err != nil {
		b.logger.Warn("batch event publish failed", zap.Error(err))
	}
}

// flushRemaining drains the channel and flushes everything during shutdown.
func (b *RecordBatcher) flushRemaining() {
	b.flushBatch()

	drained := 0
	for {
		select {
		case record := <-b.recordChan:
			b.mu.Lock()
			b.currentBatch = append(b.currentBatch, record)
			b.mu.Unlock()
			drained++
		default:
			if drained > 0 {
				b.logger.Info("drained buffered records during shutdown", zap.Int("records", drained))
				b.flushBatch()
			}
			return
		}
	}
}

// Shutdown gracefully stops the batcher, flushing remaining records. Records
// enqueued before the stop are drained; later Enqueue calls fail.
func (b *RecordBatcher) Shutdown() error {
	b.mu.Lock()
	if !b.isRunning {
		b.stopped = true
		b.mu.Unlock()
		return nil
	}
	b.isRunning = false
	b.stopped = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	b.logger.Info("record batcher stopped")
	return nil
}

// BufferSize returns the current number of records in the buffer channel.
func (b *RecordBatcher) BufferSize() int {
	return len(b.recordChan)
}
