package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/config"
	"github.com/finsight/analytics-engine/domain"
)

const scheduledReportTimeout = time.Minute

// ReportScheduler runs the recurring compliance/business report. An empty
// schedule disables it.
type ReportScheduler struct {
	service   domain.AnalyticsService
	schedule  string
	metric    string
	logger    *zap.Logger
	scheduler *cron.Cron
}

// NewReportScheduler validates the cron expression up front so a bad
// schedule fails at boot, not at first trigger.
func NewReportScheduler(service domain.AnalyticsService, cfg config.AnalyticsConfig, logger *zap.Logger) (*ReportScheduler, error) {
	if service == nil {
		return nil, fmt.Errorf("analytics service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReportSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReportSchedule); err != nil {
			return nil, fmt.Errorf("invalid report schedule %q: %w", cfg.ReportSchedule, err)
		}
	}

	return &ReportScheduler{
		service:  service,
		schedule: cfg.ReportSchedule,
		metric:   cfg.ReportMetric,
		logger:   logger,
	}, nil
}

// Start registers and launches the recurring job.
func (s *ReportScheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("scheduled reports disabled")
		return nil
	}

	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(s.schedule, s.run); err != nil {
		return fmt.Errorf("failed to register report schedule: %w", err)
	}
	s.scheduler.Start()

	s.logger.Info("scheduled reports enabled",
		zap.String("schedule", s.schedule),
		zap.String("metric_type", s.metric))
	return nil
}

// run generates one report. Failures are logged; the next run is unaffected.
func (s *ReportScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledReportTimeout)
	defer cancel()

	request := &domain.AnalyticsRequest{
		MetricType: s.metric,
		TimeRange:  domain.TimeRangeLast24H,
	}

	response, err := s.service.GenerateReport(ctx, request)
	if err != nil {
		s.logger.Error("scheduled report failed",
			zap.String("metric_type", s.metric), zap.Error(err))
		return
	}

	s.logger.Info("scheduled report generated",
		zap.String("report_id", response.ReportID),
		zap.String("metric_type", s.metric))
}

// Stop halts the scheduler, waiting for a running job to finish.
func (s *ReportScheduler) Stop() {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
}
