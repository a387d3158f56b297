package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/config"
)

func TestNewReportSchedulerValidatesAtBoot(t *testing.T) {
	store, publisher := newFakes()
	service := newTestService(t, store, publisher)

	_, err := NewReportScheduler(nil, config.AnalyticsConfig{}, zap.NewNop())
	assert.ErrorContains(t, err, "service")

	_, err = NewReportScheduler(service, config.AnalyticsConfig{ReportSchedule: "not a cron line"}, zap.NewNop())
	assert.ErrorContains(t, err, "invalid report schedule")

	scheduler, err := NewReportScheduler(service, config.AnalyticsConfig{ReportSchedule: "0 6 * * *"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, scheduler)
}

func TestReportSchedulerDisabledWithoutSchedule(t *testing.T) {
	store, publisher := newFakes()
	service := newTestService(t, store, publisher)

	scheduler, err := NewReportScheduler(service, config.AnalyticsConfig{ReportMetric: "COMPLIANCE_SUMMARY"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, scheduler.Start())
	scheduler.Stop()

	assert.Equal(t, 0, store.reads)
}

func TestReportSchedulerRunGeneratesOneReport(t *testing.T) {
	store, publisher := newFakes()
	service := newTestService(t, store, publisher)

	scheduler, err := NewReportScheduler(service, config.AnalyticsConfig{
		ReportSchedule: "0 6 * * *",
		ReportMetric:   "COMPLIANCE_SUMMARY",
	}, zap.NewNop())
	require.NoError(t, err)

	scheduler.run()

	assert.Equal(t, 1, store.reads)
	assert.Equal(t, 1, publisher.published())
}
