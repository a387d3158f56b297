package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/aggregation"
	"github.com/finsight/analytics-engine/cache"
	"github.com/finsight/analytics-engine/config"
	"github.com/finsight/analytics-engine/domain"
	"github.com/finsight/analytics-engine/validations"
)

// auditTimeout bounds the post-response audit write and event publish.
const auditTimeout = 10 * time.Second

var _ domain.AnalyticsService = (*analyticsService)(nil)

type analyticsService struct {
	store      domain.TimeSeriesStore
	queryCache *cache.QueryCache
	publisher  domain.EventPublisher
	cfg        config.AnalyticsConfig
	topic      string
	logger     *zap.Logger
	now        func() time.Time
}

// NewAnalyticsService wires the report generator. Every collaborator is
// required; a missing one fails construction with a named-dependency error.
func NewAnalyticsService(
	store domain.TimeSeriesStore,
	queryCache *cache.QueryCache,
	publisher domain.EventPublisher,
	cfg config.AnalyticsConfig,
	topic string,
	logger *zap.Logger,
) (domain.AnalyticsService, error) {
	if store == nil {
		return nil, fmt.Errorf("time-series store cannot be nil")
	}
	if queryCache == nil {
		return nil, fmt.Errorf("query cache cannot be nil")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher cannot be nil")
	}
	if topic == "" {
		return nil, fmt.Errorf("analytics events topic cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &analyticsService{
		store:      store,
		queryCache: queryCache,
		publisher:  publisher,
		cfg:        cfg,
		topic:      topic,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// GetDashboardData serves the cached fast path: validate, cache lookup, and
// on a miss one deadline-bounded read+aggregate. The audit write and the
// derived event are handled off the request path.
func (s *analyticsService) GetDashboardData(ctx context.Context, request *domain.AnalyticsRequest) (*domain.AnalyticsResponse, error) {
	if err := validations.ValidateAnalyticsRequest(request); err != nil {
		return nil, domain.NewAnalyticsError("get dashboard data", err)
	}

	response, hit, err := s.queryCache.GetOrCompute(ctx, request, func() (*domain.AnalyticsResponse, error) {
		return s.computeDashboard(ctx, request)
	})
	if err != nil {
		return nil, domain.NewAnalyticsError("get dashboard data", err)
	}

	if !hit {
		go func() {
			_ = s.persistAndPublish(request, response, "dashboard", false)
		}()
	}

	return response, nil
}

// GenerateReport is the uncached path: full read and aggregation plus
// recommendation synthesis, a synchronous result and audit write, and one
// completion event. A store failure aborts before anything is published.
func (s *analyticsService) GenerateReport(ctx context.Context, request *domain.AnalyticsRequest) (*domain.AnalyticsResponse, error) {
	if err := validations.ValidateAnalyticsRequest(request); err != nil {
		return nil, domain.NewAnalyticsError("generate report", err)
	}

	from, to := request.Window(s.now())
	records, err := s.store.ReadRange(ctx, request.Measurement(), from, to)
	if err != nil {
		return nil, domain.NewAnalyticsError("generate report", err)
	}
	records = filterRecords(records, request.Filters)

	result := aggregation.Aggregate(records, request.Dimensions)
	response := s.buildResponse(domain.ReportIDPrefixReport, request, from, to, result, deriveRecommendations(result))

	if err := s.persistAndPublish(request, response, "report", true); err != nil {
		return nil, domain.NewAnalyticsError("generate report", err)
	}

	return response, nil
}

func (s *analyticsService) computeDashboard(ctx context.Context, request *domain.AnalyticsRequest) (*domain.AnalyticsResponse, error) {
	// The read+aggregate sequence is bounded by the dashboard SLA; a blown
	// deadline surfaces from the store adapter as a store failure.
	ctx, cancel := context.WithTimeout(ctx, s.cfg.DashboardTimeout)
	defer cancel()

	from, to := request.Window(s.now())
	records, err := s.store.ReadRange(ctx, request.Measurement(), from, to)
	if err != nil {
		return nil, err
	}
	records = filterRecords(records, request.Filters)

	result := aggregation.Aggregate(records, request.Dimensions)
	return s.buildResponse(domain.ReportIDPrefixDashboard, request, from, to, result, nil), nil
}

func (s *analyticsService) buildResponse(prefix string, request *domain.AnalyticsRequest, from, to time.Time, result aggregation.Result, recommendations []string) *domain.AnalyticsResponse {
	data := map[string]any{
		"summary": map[string]any{
			"metric_type":   request.MetricType,
			"time_range":    string(request.TimeRange),
			"window_start":  from,
			"window_end":    to,
			"total_records": result.TotalRecords,
		},
		"measurement_summary":  result.MeasurementSummary,
		"dimensional_analysis": result.DimensionalAnalysis,
		"statistical_analysis": result.StatisticalAnalysis,
		"trend_analysis":       result.TrendAnalysis,
		"insights":             result.Insights,
	}
	if recommendations != nil {
		data["recommendations"] = recommendations
	}

	return &domain.AnalyticsResponse{
		ReportID:    prefix + uuid.NewString(),
		Status:      domain.StatusSuccess,
		GeneratedAt: s.now().UTC(),
		Data:        data,
	}
}

// persistAndPublish is the explicit two-step pipeline behind both paths: the
// completion event is emitted only once the store write has succeeded.
// includeResult additionally persists the report output itself.
func (s *analyticsService) persistAndPublish(request *domain.AnalyticsRequest, response *domain.AnalyticsResponse, callingContext string, includeResult bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	if includeResult {
		if err := s.store.WriteRecord(ctx, resultRecord(request, response)); err != nil {
			s.logger.Error("report result write failed",
				zap.String("report_id", response.ReportID), zap.Error(err))
			return err
		}
	}

	if err := s.store.WriteRecord(ctx, auditRecord(request, response, callingContext)); err != nil {
		s.logger.Error("audit write failed",
			zap.String("report_id", response.ReportID), zap.Error(err))
		return err
	}

	event := domain.AnalyticsEvent{
		EventID:        uuid.NewString(),
		EventType:      domain.EventTypeReportGenerated,
		EventTimestamp: s.now().UTC(),
		AnalyticsData: map[string]any{
			"report_id":   response.ReportID,
			"metric_type": request.MetricType,
			"context":     callingContext,
			"status":      response.Status,
		},
	}
	if err := s.publisher.Publish(ctx, s.topic, event.EventID, event); err != nil {
		// The data is durable; a lost notification is acceptable.
		s.logger.Warn("analytics event publish failed",
			zap.String("report_id", response.ReportID), zap.Error(err))
	}

	return nil
}

func resultRecord(request *domain.AnalyticsRequest, response *domain.AnalyticsResponse) domain.MeasurementRecord {
	return domain.NewMeasurementRecord(domain.MeasurementAnalyticsReports, response.GeneratedAt,
		map[string]string{
			"metric_type": request.MetricType,
			"time_range":  string(request.TimeRange),
		},
		map[string]any{
			"report_id": response.ReportID,
			"status":    response.Status,
			"data":      response.Data,
		})
}

func auditRecord(request *domain.AnalyticsRequest, response *domain.AnalyticsResponse, callingContext string) domain.MeasurementRecord {
	return domain.NewMeasurementRecord(domain.MeasurementAnalyticsAudit, response.GeneratedAt,
		map[string]string{
			"metric_type": request.MetricType,
			"context":     callingContext,
		},
		map[string]any{
			"report_id": response.ReportID,
			"status":    response.Status,
		})
}

// filterRecords applies tag-equality constraints before aggregation.
func filterRecords(records []domain.MeasurementRecord, filters map[string]string) []domain.MeasurementRecord {
	if len(filters) == 0 {
		return records
	}
	filtered := make([]domain.MeasurementRecord, 0, len(records))
	for _, record := range records {
		matches := true
		for key, expected := range filters {
			if record.Tags[key] != expected {
				matches = false
				break
			}
		}
		if matches {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// deriveRecommendations synthesizes report-path recommendations from the
// aggregation result. Deterministic: same result, same recommendations.
func deriveRecommendations(result aggregation.Result) []string {
	recommendations := []string{}
	if result.TotalRecords == 0 {
		recommendations = append(recommendations, "No activity in the selected window; verify upstream event flow")
		return recommendations
	}
	if result.StatisticalAnalysis.DataQuality < 90.0 {
		recommendations = append(recommendations, "Review upstream event sources for incomplete payloads")
	}
	if result.TrendAnalysis.Direction == aggregation.TrendIncreasing {
		recommendations = append(recommendations, "Record volume is increasing; review capacity and alerting thresholds")
	}
	if len(result.Insights) > 0 {
		recommendations = append(recommendations, "Investigate flagged insights before the next reporting cycle")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "No action required")
	}
	return recommendations
}
