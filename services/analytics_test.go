package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsight/analytics-engine/aggregation"
	"github.com/finsight/analytics-engine/cache"
	"github.com/finsight/analytics-engine/config"
	"github.com/finsight/analytics-engine/domain"
)

// fakeStore records every call in order so tests can assert the
// write-then-publish sequencing alongside fakePublisher.
type fakeStore struct {
	mu      sync.Mutex
	calls   *callLog
	records []domain.MeasurementRecord
	written []domain.MeasurementRecord

	readErr  error
	writeErr error
	readGate chan struct{} // when set, ReadRange blocks until it is closed

	reads  int
	writes int
}

type fakePublisher struct {
	mu     sync.Mutex
	calls  *callLog
	events []domain.AnalyticsEvent
	topics []string

	publishErr error
}

// callLog is shared between the fakes to preserve cross-fake ordering.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (f *fakeStore) WriteRecord(_ context.Context, record domain.MeasurementRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.add("write:" + record.Measurement)
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.written = append(f.written, record)
	return nil
}

func (f *fakeStore) WriteRecords(ctx context.Context, records []domain.MeasurementRecord) error {
	for _, record := range records {
		if err := f.WriteRecord(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) ReadRange(_ context.Context, measurement string, _, _ time.Time) ([]domain.MeasurementRecord, error) {
	if f.readGate != nil {
		<-f.readGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.add("read:" + measurement)
	if f.readErr != nil {
		return nil, f.readErr
	}
	f.reads++
	return append([]domain.MeasurementRecord(nil), f.records...), nil
}

func (f *fakeStore) writtenMeasurements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	measurements := make([]string, 0, len(f.written))
	for _, record := range f.written {
		measurements = append(measurements, record.Measurement)
	}
	return measurements
}

func (f *fakePublisher) Publish(_ context.Context, topic, _ string, event domain.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls.add("publish:" + event.EventType)
	if f.publishErr != nil {
		return &domain.PublishError{Topic: topic, Err: f.publishErr}
	}
	f.events = append(f.events, event)
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakePublisher) published() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func newFakes() (*fakeStore, *fakePublisher) {
	log := &callLog{}
	return &fakeStore{calls: log}, &fakePublisher{calls: log}
}

func newTestService(t *testing.T, store *fakeStore, publisher *fakePublisher) domain.AnalyticsService {
	t.Helper()
	qc := cache.NewWithBackend(newMemCacheBackend(), config.CacheConfig{
		ShortTTL:  time.Minute,
		MediumTTL: 5 * time.Minute,
		LongTTL:   30 * time.Minute,
	}, zap.NewNop())
	service, err := NewAnalyticsService(store, qc, publisher, config.AnalyticsConfig{
		DashboardTimeout: 5 * time.Second,
	}, "analytics.events", zap.NewNop())
	require.NoError(t, err)
	return service
}

// memCacheBackend keeps cached responses in-process for service tests.
type memCacheBackend struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemCacheBackend() *memCacheBackend {
	return &memCacheBackend{entries: map[string]string{}}
}

func (m *memCacheBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	return value, ok, nil
}

func (m *memCacheBackend) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func transactionRecord(ts time.Time, channel string, amount float64) domain.MeasurementRecord {
	return domain.NewMeasurementRecord(domain.MeasurementTransactionMetrics, ts,
		map[string]string{"channel": channel, "source": "transaction-service"},
		map[string]any{"identity": "txn-1", "amount": amount})
}

func TestNewAnalyticsServiceRejectsMissingDependencies(t *testing.T) {
	store, publisher := newFakes()
	qc := cache.NewWithBackend(newMemCacheBackend(), config.CacheConfig{}, zap.NewNop())

	_, err := NewAnalyticsService(nil, qc, publisher, config.AnalyticsConfig{}, "t", zap.NewNop())
	assert.ErrorContains(t, err, "store")

	_, err = NewAnalyticsService(store, nil, publisher, config.AnalyticsConfig{}, "t", zap.NewNop())
	assert.ErrorContains(t, err, "cache")

	_, err = NewAnalyticsService(store, qc, nil, config.AnalyticsConfig{}, "t", zap.NewNop())
	assert.ErrorContains(t, err, "publisher")

	_, err = NewAnalyticsService(store, qc, publisher, config.AnalyticsConfig{}, "", zap.NewNop())
	assert.ErrorContains(t, err, "topic")
}

func TestGenerateReportRejectsInvalidRequestBeforeAnyIO(t *testing.T) {
	start := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	invalid := []*domain.AnalyticsRequest{
		nil,
		{MetricType: "", TimeRange: domain.TimeRangeLastHour},
		{MetricType: "TRANSACTION_VOLUME", TimeRange: "LAST_FORTNIGHT"},
		{MetricType: "TRANSACTION_VOLUME", TimeRange: domain.TimeRangeCustom},
		{MetricType: "TRANSACTION_VOLUME", TimeRange: domain.TimeRangeCustom, StartDate: &start, EndDate: &end},
	}

	for _, request := range invalid {
		store, publisher := newFakes()
		service := newTestService(t, store, publisher)

		_, err := service.GenerateReport(context.Background(), request)
		require.Error(t, err)

		var validationErr *domain.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Equal(t, 0, store.reads)
		assert.Equal(t, 0, store.writes)
		assert.Equal(t, 0, publisher.published())
	}
}

func TestGenerateReportInvertedCustomRangeNamesTheProblem(t *testing.T) {
	store, publisher := newFakes()
	service := newTestService(t, store, publisher)

	start := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	_, err := service.GenerateReport(context.Background(), &domain.AnalyticsRequest{
		MetricType: "TRANSACTION_VOLUME",
		TimeRange:  domain.TimeRangeCustom,
		StartDate:  &start,
		EndDate:    &end,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start date")
}

func TestGenerateReportWritesThenPublishes(t *testing.T) {
	store, publisher := newFakes()
	now := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	store.records = []domain.MeasurementRecord{
		transactionRecord(now.Add(-30*time.Minute), "web", 120),
		transactionRecord(now.Add(-20*time.Minute), "mobile", 80),
	}
	service := newTestService(t, store, publisher)

	response, err := service.GenerateReport(context.Background(), &domain.AnalyticsRequest{
		MetricType: "TRANSACTION_VOLUME",
		TimeRange:  domain.TimeRangeLastHour,
		Dimensions: []string{"channel"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(response.ReportID, domain.ReportIDPrefixReport))
	assert.Equal(t, domain.StatusSuccess, response.Status)
	assert.Contains(t, response.Data, "recommendations")

	// Result record, audit record, then exactly one completion event.
	assert.Equal(t, []string{
		domain.MeasurementAnalyticsReports,
		domain.MeasurementAnalyticsAudit,
	}, store.writtenMeasurements())
	require.Equal(t, 1, publisher.published())
	assert.Equal(t, domain.EventTypeReportGenerated, publisher.events[0].EventType)

	entries := store.calls.snapshot()
	require.Len(t, entries, 4)
	assert.Equal(t, "read:"+domain.MeasurementTransactionMetrics, entries[0])
	assert.Equal(t, "publish:"+domain.EventTypeReportGenerated, entries[3],
		"event must be published only after both writes")
}

func TestGenerateReportStoreFailurePreservesCauseAndPublishesNothing(t *testing.T) {
	store, publisher := newFakes()
	cause := errors.New("connection refused")
	store.readErr = domain.NewStoreError("read range", cause)
	service := newTestService(t, store, publisher)

	_, err := service.GenerateReport(context.Background(), &domain.AnalyticsRequest{
		MetricType: "TRANSACTION_VOLUME",
		TimeRange:  domain.TimeRangeLastHour,
	})
	require.Error(t, err)

	var storeErr *domain.StoreError
	assert.ErrorAs(t, err, &storeErr)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 0, store.writes)
	assert.Equal(t, 0, publisher.published())
}

func TestGenerateReportPublishFailureDoesNotFailTheReport(t *testing.T) {
	store, publisher := newFakes()
	publisher.publishErr = errors.New("broker unavailable")
	service := newTestService(t, store, publisher)

	response, err := service.GenerateReport(context.Background(), &domain.AnalyticsRequest{
		MetricType: "TRANSACTION_VOLUME",
		TimeRange:  domain.TimeRangeLastHour,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, response.Status)
	assert.Equal(t, 2, store.writes)
}

func TestGenerateReportAppliesTagFilters(t *testing.T) {
	store, publisher := newFakes()
	now := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	store.records = []domain.MeasurementRecord{
		transactionRecord(now.Add(-30*time.Minute), "web", 120),
		transactionRecord(now.Add(-20*time.Minute), "mobile", 80),
		transactionRecord(now.Add(-10*time.Minute), "mobile", 40),
	}
	service := newTestService(t, store, publisher)

	response, err := service.GenerateReport(context.Background(), &domain.AnalyticsRequest{
		MetricType: "TRANSACTION_VOLUME",
		TimeRange:  domain.TimeRangeLastHour,
		Filters:    map[string]string{"channel": "mobile"},
	})
	require.NoError(t, err)

	summary, ok := response.Data["summary"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, summary["total_records"])
}

func TestGetDashboardDataSecondCallServedFromCache(t *testing.T) {
	store, publisher := newFakes()
	now := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	store.records = []domain.MeasurementRecord{
		transactionRecord(now.Add(-5*time.Minute), "web", 50),
	}
	service := newTestService(t, store, publisher)

	request := &domain.AnalyticsRequest{
		MetricType: "TRANSACTION_VOLUME",
		TimeRange:  domain.TimeRangeLastHour,
	}

	first, err := service.GetDashboardData(context.Background(), request)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ReportID, domain.ReportIDPrefixDashboard))

	// The audit write and event run off the request path.
	require.Eventually(t, func() bool {
		return publisher.published() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, store.writtenMeasurements(), domain.MeasurementAnalyticsAudit)

	second, err := service.GetDashboardData(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, first.ReportID, second.ReportID)
	assert.Equal(t, 1, store.reads, "cache hit must not touch the store")
	assert.Equal(t, 1, publisher.published(), "cache hit must not emit another event")
}

func TestGetDashboardDataConcurrentMissesAuditOnce(t *testing.T) {
	store, publisher := newFakes()
	store.readGate = make(chan struct{})
	now := time.Date(2025, 11, 22, 12, 0, 0, 0, time.UTC)
	store.records = []domain.MeasurementRecord{
		transactionRecord(now.Add(-5*time.Minute), "web", 50),
	}
	service := newTestService(t, store, publisher)

	request := &domain.AnalyticsRequest{
		MetricType: "TRANSACTION_VOLUME",
		TimeRange:  domain.TimeRangeLastHour,
	}

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.GetDashboardData(context.Background(), request)
			assert.NoError(t, err)
		}()
	}

	// Let every caller pile up behind the blocked store read.
	time.Sleep(50 * time.Millisecond)
	close(store.readGate)
	wg.Wait()

	require.Eventually(t, func() bool {
		return publisher.published() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Any duplicated side effect would land shortly after the first.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, store.reads, "coalesced misses must share one read")
	assert.Equal(t, 1, publisher.published(), "one computation must emit one event")
	assert.Equal(t, []string{domain.MeasurementAnalyticsAudit}, store.writtenMeasurements(),
		"one computation must write one audit record")
}

func TestGetDashboardDataValidationFailureBeforeAnyIO(t *testing.T) {
	store, publisher := newFakes()
	service := newTestService(t, store, publisher)

	_, err := service.GetDashboardData(context.Background(), &domain.AnalyticsRequest{
		TimeRange: domain.TimeRangeLastHour,
	})
	require.Error(t, err)

	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, store.reads)
	assert.Equal(t, 0, publisher.published())
}

func TestDeriveRecommendationsDeterministic(t *testing.T) {
	result := aggregation.Result{
		TotalRecords: 10,
		StatisticalAnalysis: aggregation.Statistics{
			DataQuality: 80.0,
		},
		TrendAnalysis: aggregation.Trend{Direction: aggregation.TrendIncreasing},
		Insights:      []string{"something"},
	}

	first := deriveRecommendations(result)
	second := deriveRecommendations(result)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestDeriveRecommendationsEmptyWindow(t *testing.T) {
	recommendations := deriveRecommendations(aggregation.Result{})
	require.Len(t, recommendations, 1)
	assert.Contains(t, recommendations[0], "No activity")
}
