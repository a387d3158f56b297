// Package normalizer reshapes raw inbound event payloads into canonical
// measurement records. It is a pure transform: unusable payloads are skipped,
// never turned into ingestion failures.
package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/finsight/analytics-engine/domain"
)

// Ingestion source tags.
const (
	SourceTransactionService = "transaction-service"
	SourceRiskService        = "risk-assessment-service"
)

var identityKeys = []string{
	"transaction_id", "transactionId",
	"assessment_id", "assessmentId",
	"event_id", "eventId", "id",
}

var subjectKeys = []string{"user_id", "userId", "customer_id", "customerId", "account_id", "accountId"}

var tagKeys = []string{"channel", "currency", "risk_level", "riskLevel", "status"}

// Normalize validates and reshapes a raw event into a measurement record.
// Nil, empty, or unidentifiable payloads return ok=false: a deliberate no-op,
// distinct from any error path.
func Normalize(raw map[string]any, source string) (domain.MeasurementRecord, bool) {
	if len(raw) == 0 {
		return domain.MeasurementRecord{}, false
	}

	identity, identityKey := firstString(raw, identityKeys...)
	if identity == "" {
		return domain.MeasurementRecord{}, false
	}

	tags := map[string]string{}
	if source != "" {
		tags["source"] = source
	}
	for _, key := range tagKeys {
		if value, _ := firstString(raw, key); value != "" {
			tags[canonicalTag(key)] = value
		}
	}
	if eventType, _ := firstString(raw, "transaction_type", "transactionType", "event_type", "eventType", "type"); eventType != "" {
		tags["type"] = eventType
	}

	fields := map[string]any{
		identityKey: identity,
	}
	if subject, _ := firstString(raw, subjectKeys...); subject != "" {
		fields["subject_id"] = subject
	}
	if amount, ok := firstNumber(raw, "amount", "value"); ok {
		fields["amount"] = amount
	}
	if score, ok := firstNumber(raw, "risk_score", "riskScore", "score"); ok {
		fields["score"] = score
	}
	if duration, ok := firstNumber(raw, "duration_ms", "durationMs", "duration"); ok {
		fields["duration_ms"] = duration
	}

	return domain.NewMeasurementRecord(measurementFor(raw, source), extractTimestamp(raw), tags, fields), true
}

func measurementFor(raw map[string]any, source string) string {
	switch source {
	case SourceTransactionService:
		return domain.MeasurementTransactionMetrics
	case SourceRiskService:
		return domain.MeasurementRiskAssessmentEvents
	}
	if measurement, _ := firstString(raw, "measurement", "metric_name", "metricName"); measurement != "" {
		return measurement
	}
	return domain.MeasurementGenericMetrics
}

// extractTimestamp accepts unix seconds, unix milliseconds, or RFC3339.
// Events without a usable timestamp are stamped at ingestion time.
func extractTimestamp(raw map[string]any) time.Time {
	for _, key := range []string{"timestamp", "event_time", "eventTime", "occurred_at", "occurredAt"} {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if numeric, ok := asNumber(value); ok && numeric > 0 {
			if numeric > 1e12 { // milliseconds
				return time.UnixMilli(int64(numeric)).UTC()
			}
			return time.Unix(int64(numeric), 0).UTC()
		}
		if text, ok := value.(string); ok {
			if parsed, err := time.Parse(time.RFC3339, text); err == nil {
				return parsed.UTC()
			}
		}
	}
	return time.Now().UTC()
}

func canonicalTag(key string) string {
	switch key {
	case "riskLevel":
		return "risk_level"
	}
	return key
}

func firstString(raw map[string]any, keys ...string) (string, string) {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed, canonicalIdentityKey(key)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), canonicalIdentityKey(key)
		case int:
			return strconv.Itoa(v), canonicalIdentityKey(key)
		case int64:
			return strconv.FormatInt(v, 10), canonicalIdentityKey(key)
		case json.Number:
			return v.String(), canonicalIdentityKey(key)
		}
	}
	return "", ""
}

// canonicalIdentityKey folds camelCase aliases onto the snake_case field name.
func canonicalIdentityKey(key string) string {
	switch key {
	case "transactionId":
		return "transaction_id"
	case "assessmentId":
		return "assessment_id"
	case "eventId", "id":
		return "event_id"
	}
	return key
}

func firstNumber(raw map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			if numeric, ok := asNumber(value); ok {
				return numeric, true
			}
		}
	}
	return 0, false
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		if parsed, err := v.Float64(); err == nil {
			return parsed, true
		}
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
