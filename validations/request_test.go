package validations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/analytics-engine/domain"
)

func TestValidateAnalyticsRequest(t *testing.T) {
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	tests := []struct {
		name      string
		request   *domain.AnalyticsRequest
		wantField string
	}{
		{
			name:      "nil request",
			request:   nil,
			wantField: "request",
		},
		{
			name:      "missing metric type",
			request:   &domain.AnalyticsRequest{TimeRange: domain.TimeRangeLastHour},
			wantField: "metric_type",
		},
		{
			name:      "blank metric type",
			request:   &domain.AnalyticsRequest{MetricType: "   "},
			wantField: "metric_type",
		},
		{
			name:      "unknown time range token",
			request:   &domain.AnalyticsRequest{MetricType: "TRANSACTION_VOLUME", TimeRange: "LAST_FORTNIGHT"},
			wantField: "time_range",
		},
		{
			name:      "custom range without dates",
			request:   &domain.AnalyticsRequest{MetricType: "TRANSACTION_VOLUME", TimeRange: domain.TimeRangeCustom},
			wantField: "start_date",
		},
		{
			name: "custom range with only start date",
			request: &domain.AnalyticsRequest{
				MetricType: "TRANSACTION_VOLUME",
				TimeRange:  domain.TimeRangeCustom,
				StartDate:  &start,
			},
			wantField: "start_date",
		},
		{
			name: "inverted custom range",
			request: &domain.AnalyticsRequest{
				MetricType: "TRANSACTION_VOLUME",
				TimeRange:  domain.TimeRangeCustom,
				StartDate:  &end,
				EndDate:    &start,
			},
			wantField: "start_date",
		},
		{
			name: "equal custom range bounds",
			request: &domain.AnalyticsRequest{
				MetricType: "TRANSACTION_VOLUME",
				TimeRange:  domain.TimeRangeCustom,
				StartDate:  &start,
				EndDate:    &start,
			},
			wantField: "start_date",
		},
		{
			name: "empty dimension name",
			request: &domain.AnalyticsRequest{
				MetricType: "TRANSACTION_VOLUME",
				TimeRange:  domain.TimeRangeLastHour,
				Dimensions: []string{"channel", " "},
			},
			wantField: "dimensions",
		},
		{
			name: "empty filter key",
			request: &domain.AnalyticsRequest{
				MetricType: "TRANSACTION_VOLUME",
				TimeRange:  domain.TimeRangeLastHour,
				Filters:    map[string]string{"": "web"},
			},
			wantField: "filters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnalyticsRequest(tt.request)
			require.Error(t, err)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestValidateAnalyticsRequestAcceptsValidRequests(t *testing.T) {
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	valid := []*domain.AnalyticsRequest{
		{MetricType: "TRANSACTION_VOLUME", TimeRange: domain.TimeRangeLastHour},
		{MetricType: "RISK_ASSESSMENT", TimeRange: domain.TimeRangeLast30Days},
		{MetricType: "TRANSACTION_VOLUME"}, // empty range falls back to the default window
		{
			MetricType: "TRANSACTION_VOLUME",
			TimeRange:  domain.TimeRangeCustom,
			StartDate:  &start,
			EndDate:    &end,
			Dimensions: []string{"channel", "currency"},
			Filters:    map[string]string{"currency": "EUR"},
		},
	}

	for _, request := range valid {
		assert.NoError(t, ValidateAnalyticsRequest(request))
	}
}
