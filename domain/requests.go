package domain

import "time"

// TimeRange selects the query window for an analytics request.
type TimeRange string

const (
	TimeRangeLastHour   TimeRange = "LAST_HOUR"
	TimeRangeLast24H    TimeRange = "LAST_24_HOURS"
	TimeRangeLast7Days  TimeRange = "LAST_7_DAYS"
	TimeRangeLast30Days TimeRange = "LAST_30_DAYS"
	TimeRangeCustom     TimeRange = "CUSTOM_RANGE"
)

// Valid reports whether the token is one of the known time ranges.
func (t TimeRange) Valid() bool {
	switch t {
	case TimeRangeLastHour, TimeRangeLast24H, TimeRangeLast7Days, TimeRangeLast30Days, TimeRangeCustom:
		return true
	}
	return false
}

// AnalyticsRequest is a query intent for the dashboard or report path.
// It is never persisted.
type AnalyticsRequest struct {
	MetricType string            `json:"metric_type" example:"TRANSACTION_VOLUME"`
	TimeRange  TimeRange         `json:"time_range" example:"LAST_24_HOURS"`
	StartDate  *time.Time        `json:"start_date,omitempty" example:"2025-11-21T00:00:00Z"`
	EndDate    *time.Time        `json:"end_date,omitempty" example:"2025-11-22T00:00:00Z"`
	Dimensions []string          `json:"dimensions,omitempty" example:"channel,currency"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// Window resolves the request to a half-open interval [from, to).
// Enum tokens resolve relative to now; CUSTOM_RANGE uses the explicit dates.
func (r *AnalyticsRequest) Window(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch r.TimeRange {
	case TimeRangeLastHour:
		return now.Add(-time.Hour), now
	case TimeRangeLast7Days:
		return now.AddDate(0, 0, -7), now
	case TimeRangeLast30Days:
		return now.AddDate(0, 0, -30), now
	case TimeRangeCustom:
		// Validation requires both dates; unvalidated callers fall back to
		// the default window instead of panicking.
		if r.StartDate == nil || r.EndDate == nil {
			return now.Add(-24 * time.Hour), now
		}
		return r.StartDate.UTC(), r.EndDate.UTC()
	default:
		return now.Add(-24 * time.Hour), now
	}
}

// Measurement maps the metric type onto the logical series it reads,
// or "" when the analysis spans all measurements.
func (r *AnalyticsRequest) Measurement() string {
	switch r.MetricType {
	case "TRANSACTION_VOLUME", "TRANSACTION_METRICS":
		return MeasurementTransactionMetrics
	case "RISK_ASSESSMENT", "FRAUD_DETECTION":
		return MeasurementRiskAssessmentEvents
	default:
		return ""
	}
}
