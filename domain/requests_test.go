package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowResolvesHalfOpenIntervals(t *testing.T) {
	now := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		timeRange TimeRange
		wantFrom  time.Time
	}{
		{TimeRangeLastHour, now.Add(-time.Hour)},
		{TimeRangeLast24H, now.Add(-24 * time.Hour)},
		{TimeRangeLast7Days, now.AddDate(0, 0, -7)},
		{TimeRangeLast30Days, now.AddDate(0, 0, -30)},
		{"", now.Add(-24 * time.Hour)}, // unset ranges default to a day
	}

	for _, tt := range tests {
		request := &AnalyticsRequest{TimeRange: tt.timeRange}
		from, to := request.Window(now)
		assert.Equal(t, tt.wantFrom, from)
		assert.Equal(t, now, to)
	}
}

func TestWindowCustomRangeUsesExplicitDates(t *testing.T) {
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)

	request := &AnalyticsRequest{TimeRange: TimeRangeCustom, StartDate: &start, EndDate: &end}
	from, to := request.Window(time.Now())
	assert.Equal(t, start, from)
	assert.Equal(t, end, to)
}

func TestWindowCustomRangeMissingDatesFallsBack(t *testing.T) {
	now := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	partial := []*AnalyticsRequest{
		{TimeRange: TimeRangeCustom},
		{TimeRange: TimeRangeCustom, StartDate: &start},
		{TimeRange: TimeRangeCustom, EndDate: &start},
	}
	for _, request := range partial {
		from, to := request.Window(now)
		assert.Equal(t, now.Add(-24*time.Hour), from)
		assert.Equal(t, now, to)
	}
}

func TestMeasurementMapsMetricTypes(t *testing.T) {
	tests := map[string]string{
		"TRANSACTION_VOLUME":  MeasurementTransactionMetrics,
		"TRANSACTION_METRICS": MeasurementTransactionMetrics,
		"RISK_ASSESSMENT":     MeasurementRiskAssessmentEvents,
		"FRAUD_DETECTION":     MeasurementRiskAssessmentEvents,
		"COMPLIANCE_SUMMARY":  "",
	}

	for metricType, want := range tests {
		request := &AnalyticsRequest{MetricType: metricType}
		assert.Equal(t, want, request.Measurement(), metricType)
	}
}

func TestTimeRangeValid(t *testing.T) {
	assert.True(t, TimeRangeLastHour.Valid())
	assert.True(t, TimeRangeCustom.Valid())
	assert.False(t, TimeRange("LAST_FORTNIGHT").Valid())
	assert.False(t, TimeRange("").Valid())
}
