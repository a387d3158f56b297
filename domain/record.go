package domain

import "time"

// Measurement names for the engine's logical series.
const (
	MeasurementTransactionMetrics   = "transaction_metrics"
	MeasurementRiskAssessmentEvents = "risk_assessment_events"
	MeasurementGenericMetrics       = "generic_metrics"
	MeasurementAnalyticsReports     = "analytics_reports"
	MeasurementAnalyticsAudit       = "analytics_audit"
)

// MeasurementRecord is one durable analytics fact. Records are immutable once
// persisted; they are superseded by new records, never updated.
type MeasurementRecord struct {
	Measurement string            `json:"measurement" example:"transaction_metrics"`
	Timestamp   time.Time         `json:"timestamp" example:"2025-11-22T10:00:00Z"`
	Tags        map[string]string `json:"tags"`
	Fields      map[string]any    `json:"fields" swaggertype:"object"`
}

// NewMeasurementRecord builds a record with the invariants enforced:
// measurement and timestamp are always present, tags/fields are never nil.
func NewMeasurementRecord(measurement string, ts time.Time, tags map[string]string, fields map[string]any) MeasurementRecord {
	if tags == nil {
		tags = map[string]string{}
	}
	if fields == nil {
		fields = map[string]any{}
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return MeasurementRecord{
		Measurement: measurement,
		Timestamp:   ts.UTC(),
		Tags:        tags,
		Fields:      fields,
	}
}
