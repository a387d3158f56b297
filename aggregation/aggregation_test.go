package aggregation

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/analytics-engine/domain"
)

var baseTime = time.Date(2025, 11, 22, 10, 0, 0, 0, time.UTC)

func transactionRecord(offset time.Duration, channel string, amount float64, riskLevel string) domain.MeasurementRecord {
	tags := map[string]string{"channel": channel}
	if riskLevel != "" {
		tags["risk_level"] = riskLevel
	}
	return domain.NewMeasurementRecord(
		domain.MeasurementTransactionMetrics,
		baseTime.Add(offset),
		tags,
		map[string]any{"transaction_id": "tx-1", "amount": amount},
	)
}

func TestAggregateEmptyInputProducesZeroFilledResult(t *testing.T) {
	result := Aggregate(nil, []string{"channel"})

	assert.Equal(t, 0, result.TotalRecords)
	assert.Empty(t, result.MeasurementSummary)
	assert.Equal(t, 0, result.StatisticalAnalysis.SampleSize)
	assert.Equal(t, 0.0, result.StatisticalAnalysis.DataQuality)
	assert.Empty(t, result.TrendAnalysis.Direction)
	assert.Empty(t, result.Insights)
	require.Contains(t, result.DimensionalAnalysis, "channel")
	assert.Empty(t, result.DimensionalAnalysis["channel"])
}

func TestAggregateIsDeterministic(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 120.50, "LOW"),
		transactionRecord(30*time.Minute, "mobile", 75.25, "HIGH"),
		transactionRecord(90*time.Minute, "web", 310.00, ""),
		transactionRecord(2*time.Hour, "branch", 42.10, "MEDIUM"),
	}

	first := Aggregate(records, []string{"channel", "risk_level"})
	second := Aggregate(records, []string{"channel", "risk_level"})

	assert.True(t, reflect.DeepEqual(first, second), "repeated aggregation must produce identical output")
}

func TestAggregateMeasurementSummary(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 100.004, ""),
		transactionRecord(time.Minute, "web", 200.001, ""),
	}

	result := Aggregate(records, nil)

	summary, ok := result.MeasurementSummary[domain.MeasurementTransactionMetrics]
	require.True(t, ok)
	assert.Equal(t, 2, summary.RecordCount)
	// Currency-like amounts keep at most two decimal places.
	assert.Equal(t, 300.01, summary.AmountTotal)
	assert.Equal(t, baseTime, summary.FirstTimestamp)
	assert.Equal(t, baseTime.Add(time.Minute), summary.LastTimestamp)
}

func TestAggregateDimensionalBreakdown(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 100, ""),
		transactionRecord(time.Minute, "web", 50, ""),
		transactionRecord(2*time.Minute, "mobile", 25, ""),
	}

	result := Aggregate(records, []string{"channel"})

	groups := result.DimensionalAnalysis["channel"]
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups["web"].RecordCount)
	assert.Equal(t, 66.7, groups["web"].Share)
	assert.Equal(t, 150.0, groups["web"].AmountTotal)
	assert.Equal(t, 33.3, groups["mobile"].Share)
}

func TestAggregateGroupsRecordsMissingTheDimensionTag(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 10, ""),
		domain.NewMeasurementRecord(domain.MeasurementGenericMetrics, baseTime, nil, map[string]any{"event_id": "e1"}),
	}

	result := Aggregate(records, []string{"channel"})

	groups := result.DimensionalAnalysis["channel"]
	assert.Equal(t, 1, groups["unknown"].RecordCount)
}

func TestAggregateDataQuality(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 10, ""),
		// No fields at all: incomplete.
		domain.NewMeasurementRecord(domain.MeasurementGenericMetrics, baseTime, nil, nil),
	}

	result := Aggregate(records, nil)

	assert.Equal(t, 2, result.StatisticalAnalysis.SampleSize)
	assert.Equal(t, 50.0, result.StatisticalAnalysis.DataQuality)
}

func TestAggregateTrendIncreasing(t *testing.T) {
	var records []domain.MeasurementRecord
	records = append(records, transactionRecord(0, "web", 10, ""))
	for i := 0; i < 3; i++ {
		records = append(records, transactionRecord(time.Hour+time.Duration(i)*time.Minute, "web", 10, ""))
	}

	result := Aggregate(records, nil)

	assert.Equal(t, "hour", result.TrendAnalysis.Granularity)
	assert.Equal(t, TrendIncreasing, result.TrendAnalysis.Direction)
	assert.Len(t, result.TrendAnalysis.Buckets, 2)
}

func TestAggregateTrendDailyGranularityForLongSpans(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 10, ""),
		transactionRecord(24*time.Hour, "web", 10, ""),
		transactionRecord(72*time.Hour, "web", 10, ""),
	}

	result := Aggregate(records, nil)

	assert.Equal(t, "day", result.TrendAnalysis.Granularity)
}

func TestAggregateTrendOmittedForSingleBucket(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 10, ""),
		transactionRecord(5*time.Minute, "web", 10, ""),
	}

	result := Aggregate(records, nil)

	assert.Empty(t, result.TrendAnalysis.Direction)
	assert.Empty(t, result.TrendAnalysis.Buckets)
}

func TestAggregateHighRiskInsight(t *testing.T) {
	var records []domain.MeasurementRecord
	for i := 0; i < 8; i++ {
		records = append(records, transactionRecord(time.Duration(i)*time.Minute, "web", 10, "LOW"))
	}
	records = append(records, transactionRecord(9*time.Minute, "web", 10, "HIGH"))
	records = append(records, transactionRecord(10*time.Minute, "web", 10, "CRITICAL"))

	result := Aggregate(records, nil)

	require.NotEmpty(t, result.Insights)
	assert.Contains(t, result.Insights[0], "High-risk activity elevated")
	assert.Contains(t, result.Insights[0], "20.0%")
}

func TestAggregateHighValueInsight(t *testing.T) {
	records := []domain.MeasurementRecord{
		transactionRecord(0, "web", 50000, ""),
		transactionRecord(time.Minute, "web", 10, ""),
	}

	result := Aggregate(records, nil)

	found := false
	for _, insight := range result.Insights {
		if strings.Contains(insight, "High-value transactions") {
			found = true
		}
	}
	assert.True(t, found, "expected a high-value insight, got %v", result.Insights)
}
