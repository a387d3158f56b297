package domain

import "time"

// Derived event types emitted on the analytics events topic.
const (
	EventTypeTransactionProcessed = "TRANSACTION_ANALYTICS_PROCESSED"
	EventTypeRiskProcessed        = "RISK_ANALYTICS_PROCESSED"
	EventTypeMetricProcessed      = "METRIC_ANALYTICS_PROCESSED"
	EventTypeReportGenerated      = "REPORT_GENERATED"
)

// AnalyticsEvent is the engine's own output event, produced only after the
// triggering persistence write succeeds.
type AnalyticsEvent struct {
	EventID        string         `json:"event_id" example:"b9f1c2aa-4f2e-4f5d-9c3b-0d8e1a2b3c4d"`
	EventType      string         `json:"event_type" example:"TRANSACTION_ANALYTICS_PROCESSED"`
	EventTimestamp time.Time      `json:"event_timestamp" example:"2025-11-22T10:00:00Z"`
	AnalyticsData  map[string]any `json:"analytics_data" swaggertype:"object"`
}
