// Package aggregation computes dimensional breakdowns, summary statistics and
// trend indicators over measurement records. Everything here is pure and
// deterministic: the same records and dimension list always produce identical
// output, with no wall-clock or randomness dependence.
package aggregation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsight/analytics-engine/domain"
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendFlat       = "flat"
)

// Thresholds feeding the generated insight strings.
const (
	highRiskShareThreshold  = 10.0    // percent of records with high/critical risk
	highValueThreshold      = 10000.0 // amount above which a record counts as high-value
	highValueShareThreshold = 25.0    // percent of amount-bearing records
	dataQualityThreshold    = 90.0    // percent of complete records
	trendFlatBand           = 10.0    // percent change treated as flat
)

// Result is the output of one aggregation pass.
type Result struct {
	TotalRecords        int                                  `json:"total_records"`
	MeasurementSummary  map[string]MeasurementSummary        `json:"measurement_summary"`
	DimensionalAnalysis map[string]map[string]DimensionGroup `json:"dimensional_analysis"`
	StatisticalAnalysis Statistics                           `json:"statistical_analysis"`
	TrendAnalysis       Trend                                `json:"trend_analysis"`
	Insights            []string                             `json:"insights"`
}

// MeasurementSummary summarizes one logical series.
type MeasurementSummary struct {
	RecordCount    int       `json:"record_count"`
	AmountTotal    float64   `json:"amount_total"`
	AverageScore   float64   `json:"average_score"`
	FirstTimestamp time.Time `json:"first_timestamp"`
	LastTimestamp  time.Time `json:"last_timestamp"`
}

// DimensionGroup is one group within a requested dimension breakdown.
type DimensionGroup struct {
	RecordCount int     `json:"record_count"`
	Share       float64 `json:"share_percent"`
	AmountTotal float64 `json:"amount_total"`
}

// Statistics is the statistical analysis block.
type Statistics struct {
	SampleSize  int     `json:"sample_size"`
	DataQuality float64 `json:"data_quality_percent"`
	AmountMean  float64 `json:"amount_mean"`
	AmountMin   float64 `json:"amount_min"`
	AmountMax   float64 `json:"amount_max"`
	ScoreMean   float64 `json:"score_mean"`
}

// Trend is the directional trend block. It is zero-valued, not an error, when
// the window spans fewer than two natural buckets.
type Trend struct {
	Granularity string        `json:"granularity,omitempty"`
	Direction   string        `json:"direction,omitempty"`
	Buckets     []TrendBucket `json:"buckets,omitempty"`
}

// TrendBucket is one natural time bucket with its record count.
type TrendBucket struct {
	Start       time.Time `json:"start"`
	RecordCount int       `json:"record_count"`
}

// Aggregate computes the full result over the given records, grouped by the
// requested dimensions. Empty input produces a valid zero-filled result.
func Aggregate(records []domain.MeasurementRecord, dimensions []string) Result {
	sorted := make([]domain.MeasurementRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	result := Result{
		TotalRecords:        len(sorted),
		MeasurementSummary:  summarizeMeasurements(sorted),
		DimensionalAnalysis: analyzeDimensions(sorted, dimensions),
		StatisticalAnalysis: computeStatistics(sorted),
		TrendAnalysis:       computeTrend(sorted),
		Insights:            []string{},
	}
	result.Insights = deriveInsights(sorted, result)
	return result
}

func summarizeMeasurements(records []domain.MeasurementRecord) map[string]MeasurementSummary {
	type acc struct {
		count      int
		amount     decimal.Decimal
		scoreSum   float64
		scoreCount int
		first      time.Time
		last       time.Time
	}

	accs := map[string]*acc{}
	for _, record := range records {
		a, ok := accs[record.Measurement]
		if !ok {
			a = &acc{amount: decimal.Zero, first: record.Timestamp, last: record.Timestamp}
			accs[record.Measurement] = a
		}
		a.count++
		if amount, ok := numericField(record, "amount"); ok {
			a.amount = a.amount.Add(decimal.NewFromFloat(amount))
		}
		if score, ok := numericField(record, "score"); ok {
			a.scoreSum += score
			a.scoreCount++
		}
		if record.Timestamp.Before(a.first) {
			a.first = record.Timestamp
		}
		if record.Timestamp.After(a.last) {
			a.last = record.Timestamp
		}
	}

	summary := make(map[string]MeasurementSummary, len(accs))
	for measurement, a := range accs {
		averageScore := 0.0
		if a.scoreCount > 0 {
			averageScore = round2(a.scoreSum / float64(a.scoreCount))
		}
		summary[measurement] = MeasurementSummary{
			RecordCount:    a.count,
			AmountTotal:    roundedTotal(a.amount),
			AverageScore:   averageScore,
			FirstTimestamp: a.first,
			LastTimestamp:  a.last,
		}
	}
	return summary
}

func analyzeDimensions(records []domain.MeasurementRecord, dimensions []string) map[string]map[string]DimensionGroup {
	analysis := make(map[string]map[string]DimensionGroup, len(dimensions))
	total := len(records)

	for _, dimension := range dimensions {
		type acc struct {
			count  int
			amount decimal.Decimal
		}
		accs := map[string]*acc{}

		for _, record := range records {
			value := record.Tags[dimension]
			if value == "" {
				value = "unknown"
			}
			a, ok := accs[value]
			if !ok {
				a = &acc{amount: decimal.Zero}
				accs[value] = a
			}
			a.count++
			if amount, ok := numericField(record, "amount"); ok {
				a.amount = a.amount.Add(decimal.NewFromFloat(amount))
			}
		}

		groups := make(map[string]DimensionGroup, len(accs))
		for value, a := range accs {
			share := 0.0
			if total > 0 {
				share = round1(float64(a.count) / float64(total) * 100)
			}
			groups[value] = DimensionGroup{
				RecordCount: a.count,
				Share:       share,
				AmountTotal: roundedTotal(a.amount),
			}
		}
		analysis[dimension] = groups
	}
	return analysis
}

// computeStatistics includes the sample size and a data-quality indicator:
// the fraction of records carrying a measurement, timestamp and any fields.
func computeStatistics(records []domain.MeasurementRecord) Statistics {
	stats := Statistics{SampleSize: len(records)}
	if len(records) == 0 {
		return stats
	}

	complete := 0
	amountSum := decimal.Zero
	amountCount := 0
	scoreSum := 0.0
	scoreCount := 0
	amountMin := math.Inf(1)
	amountMax := math.Inf(-1)

	for _, record := range records {
		if record.Measurement != "" && !record.Timestamp.IsZero() && len(record.Fields) > 0 {
			complete++
		}
		if amount, ok := numericField(record, "amount"); ok {
			amountSum = amountSum.Add(decimal.NewFromFloat(amount))
			amountCount++
			amountMin = math.Min(amountMin, amount)
			amountMax = math.Max(amountMax, amount)
		}
		if score, ok := numericField(record, "score"); ok {
			scoreSum += score
			scoreCount++
		}
	}

	stats.DataQuality = round1(float64(complete) / float64(len(records)) * 100)
	if amountCount > 0 {
		stats.AmountMean = roundedTotal(amountSum.Div(decimal.NewFromInt(int64(amountCount))))
		stats.AmountMin = round2(amountMin)
		stats.AmountMax = round2(amountMax)
	}
	if scoreCount > 0 {
		stats.ScoreMean = round2(scoreSum / float64(scoreCount))
	}
	return stats
}

// computeTrend buckets records into natural hour or day buckets and compares
// the two halves of the window. Fewer than two buckets yields the zero Trend.
func computeTrend(records []domain.MeasurementRecord) Trend {
	if len(records) < 2 {
		return Trend{}
	}

	first := records[0].Timestamp
	last := records[len(records)-1].Timestamp
	span := last.Sub(first)

	granularity := "hour"
	step := time.Hour
	if span > 48*time.Hour {
		granularity = "day"
		step = 24 * time.Hour
	}

	counts := map[time.Time]int{}
	for _, record := range records {
		counts[record.Timestamp.UTC().Truncate(step)]++
	}

	start := first.UTC().Truncate(step)
	end := last.UTC().Truncate(step)
	if start.Equal(end) {
		return Trend{}
	}

	var buckets []TrendBucket
	for t := start; !t.After(end); t = t.Add(step) {
		buckets = append(buckets, TrendBucket{Start: t, RecordCount: counts[t]})
	}

	half := len(buckets) / 2
	firstHalf, secondHalf := 0, 0
	for i, bucket := range buckets {
		if i < half {
			firstHalf += bucket.RecordCount
		} else {
			secondHalf += bucket.RecordCount
		}
	}

	direction := TrendFlat
	if firstHalf > 0 {
		changePercent := float64(secondHalf-firstHalf) / float64(firstHalf) * 100
		if changePercent > trendFlatBand {
			direction = TrendIncreasing
		} else if changePercent < -trendFlatBand {
			direction = TrendDecreasing
		}
	} else if secondHalf > 0 {
		direction = TrendIncreasing
	}

	return Trend{Granularity: granularity, Direction: direction, Buckets: buckets}
}

// deriveInsights turns the computed statistics into human-readable insight
// strings using fixed thresholds, in a fixed order.
func deriveInsights(records []domain.MeasurementRecord, result Result) []string {
	insights := []string{}
	total := len(records)
	if total == 0 {
		return insights
	}

	highRisk := 0
	highValue := 0
	amountBearing := 0
	for _, record := range records {
		switch strings.ToUpper(record.Tags["risk_level"]) {
		case "HIGH", "CRITICAL":
			highRisk++
		}
		if amount, ok := numericField(record, "amount"); ok {
			amountBearing++
			if amount > highValueThreshold {
				highValue++
			}
		}
	}

	if share := round1(float64(highRisk) / float64(total) * 100); share > highRiskShareThreshold {
		insights = append(insights, fmt.Sprintf("High-risk activity elevated: %.1f%% of observed records carry a high or critical risk level", share))
	}
	if amountBearing > 0 {
		if share := round1(float64(highValue) / float64(amountBearing) * 100); share > highValueShareThreshold {
			insights = append(insights, fmt.Sprintf("High-value transactions elevated: %.1f%% of amount-bearing records exceed %.0f", share, highValueThreshold))
		}
	}
	if result.StatisticalAnalysis.DataQuality < dataQualityThreshold {
		insights = append(insights, fmt.Sprintf("Data quality degraded: only %.1f%% of records carry complete required fields", result.StatisticalAnalysis.DataQuality))
	}
	if direction := result.TrendAnalysis.Direction; direction == TrendIncreasing || direction == TrendDecreasing {
		insights = append(insights, fmt.Sprintf("Record volume is %s across the observed window", direction))
	}
	return insights
}

func numericField(record domain.MeasurementRecord, name string) (float64, bool) {
	value, ok := record.Fields[name]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// roundedTotal renders a decimal sum with at most two decimal places.
func roundedTotal(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
