package validations

import (
	"strings"

	"github.com/finsight/analytics-engine/domain"
)

// ValidateAnalyticsRequest checks a query-API request before any store, cache
// or broker access. Failures are domain validation errors, never faults.
func ValidateAnalyticsRequest(request *domain.AnalyticsRequest) error {
	if request == nil {
		return domain.NewValidationError("request", "analytics request cannot be nil")
	}
	if strings.TrimSpace(request.MetricType) == "" {
		return domain.NewValidationError("metric_type", "metric type is required")
	}
	if request.TimeRange != "" && !request.TimeRange.Valid() {
		return domain.NewValidationError("time_range", "unknown time range token")
	}
	if request.TimeRange == domain.TimeRangeCustom {
		if request.StartDate == nil || request.EndDate == nil {
			return domain.NewValidationError("start_date", "start date and end date are required for a custom range")
		}
		if !request.StartDate.Before(*request.EndDate) {
			return domain.NewValidationError("start_date", "start date must be before end date")
		}
	}
	for _, dim := range request.Dimensions {
		if strings.TrimSpace(dim) == "" {
			return domain.NewValidationError("dimensions", "dimension names cannot be empty")
		}
	}
	for key := range request.Filters {
		if strings.TrimSpace(key) == "" {
			return domain.NewValidationError("filters", "filter keys cannot be empty")
		}
	}
	return nil
}
