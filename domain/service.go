package domain

import (
	"context"
	"time"
)

// AnalyticsService is the engine's query API.
type AnalyticsService interface {
	// GetDashboardData serves a dashboard analytics request through the
	// query cache; results are bounded-stale.
	GetDashboardData(ctx context.Context, request *AnalyticsRequest) (*AnalyticsResponse, error)
	// GenerateReport always performs a full read and aggregation, persists
	// an audit record and publishes one completion event.
	GenerateReport(ctx context.Context, request *AnalyticsRequest) (*AnalyticsResponse, error)
}

// TimeSeriesStore is the engine's sole interface to durable time-series
// storage.
type TimeSeriesStore interface {
	// WriteRecord durably appends one record.
	WriteRecord(ctx context.Context, record MeasurementRecord) error
	// WriteRecords durably appends a batch of records.
	WriteRecords(ctx context.Context, records []MeasurementRecord) error
	// ReadRange returns records in [from, to) ordered by timestamp
	// ascending, optionally filtered to one measurement.
	ReadRange(ctx context.Context, measurement string, from, to time.Time) ([]MeasurementRecord, error)
}

// EventPublisher emits derived analytics events to the outbound transport.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event AnalyticsEvent) error
}
