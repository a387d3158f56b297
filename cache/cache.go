package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/finsight/analytics-engine/config"
	"github.com/finsight/analytics-engine/domain"
)

const keyPrefix = "analytics_dashboard:"

// Backend is the storage behind the query cache. A miss is (_, false, nil);
// backend failures degrade to a miss, never to a caller-visible error.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// QueryCache memoizes dashboard analytics responses keyed by the normalized
// request parameters, with bounded staleness. Concurrent misses on the same
// key are coalesced into a single computation.
type QueryCache struct {
	backend Backend
	group   singleflight.Group
	cfg     config.CacheConfig
	logger  *zap.Logger
}

// New builds a query cache over Redis.
func New(client *redis.Client, cfg config.CacheConfig, logger *zap.Logger) *QueryCache {
	return NewWithBackend(&redisBackend{client: client}, cfg, logger)
}

// NewWithBackend builds a query cache over an arbitrary backend.
func NewWithBackend(backend Backend, cfg config.CacheConfig, logger *zap.Logger) *QueryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryCache{backend: backend, cfg: cfg, logger: logger}
}

// GetOrCompute returns the cached response for the request, or runs compute
// exactly once per key and stores the result. The second return value reports
// whether the response came from the cache; when concurrent identical misses
// are coalesced, only the caller whose computation ran reports a miss, so
// miss-triggered side effects happen once per computation.
func (c *QueryCache) GetOrCompute(ctx context.Context, request *domain.AnalyticsRequest, compute func() (*domain.AnalyticsResponse, error)) (*domain.AnalyticsResponse, bool, error) {
	key := Key(request)

	if cached, ok := c.lookup(ctx, key); ok {
		return cached, true, nil
	}

	// The closure runs in exactly one caller's goroutine; coalesced waiters
	// never execute it, so only the computing caller observes computed=true.
	computed := false
	value, err, _ := c.group.Do(key, func() (any, error) {
		// A waiter may arrive just after the winner stored its result.
		if cached, ok := c.lookup(ctx, key); ok {
			return cached, nil
		}

		response, err := compute()
		if err != nil {
			return nil, err
		}

		c.store(ctx, key, request, response)
		computed = true
		return response, nil
	})
	if err != nil {
		return nil, false, err
	}

	return value.(*domain.AnalyticsResponse), !computed, nil
}

func (c *QueryCache) lookup(ctx context.Context, key string) (*domain.AnalyticsResponse, bool) {
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Debug("cache lookup failed, treating as miss", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var response domain.AnalyticsResponse
	if err := json.Unmarshal([]byte(raw), &response); err != nil {
		c.logger.Debug("cache entry undecodable, treating as miss", zap.Error(err))
		return nil, false
	}
	return &response, true
}

func (c *QueryCache) store(ctx context.Context, key string, request *domain.AnalyticsRequest, response *domain.AnalyticsResponse) {
	raw, err := json.Marshal(response)
	if err != nil {
		c.logger.Debug("cache encode failed, skipping store", zap.Error(err))
		return
	}
	if err := c.backend.Set(ctx, key, string(raw), c.TTLFor(request)); err != nil {
		c.logger.Debug("cache store failed", zap.Error(err))
	}
}

// TTLFor selects the staleness bound by the granularity of the request's
// time range: shorter for sub-hour windows, longer for multi-day windows.
func (c *QueryCache) TTLFor(request *domain.AnalyticsRequest) time.Duration {
	from, to := request.Window(time.Now())
	span := to.Sub(from)
	switch {
	case span <= time.Hour:
		return c.cfg.ShortTTL
	case span <= 24*time.Hour:
		return c.cfg.MediumTTL
	default:
		return c.cfg.LongTTL
	}
}

// Key derives a deterministic cache key from the full request: two
// structurally identical requests hash the same, any differing field misses.
func Key(request *domain.AnalyticsRequest) string {
	var b strings.Builder
	b.WriteString(request.MetricType)
	b.WriteByte('|')
	b.WriteString(string(request.TimeRange))
	b.WriteByte('|')
	if request.StartDate != nil {
		b.WriteString(request.StartDate.UTC().Format(time.RFC3339Nano))
	}
	b.WriteByte('|')
	if request.EndDate != nil {
		b.WriteString(request.EndDate.UTC().Format(time.RFC3339Nano))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(request.Dimensions, ","))
	b.WriteByte('|')

	filterKeys := make([]string, 0, len(request.Filters))
	for k := range request.Filters {
		filterKeys = append(filterKeys, k)
	}
	sort.Strings(filterKeys)
	for i, k := range filterKeys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(request.Filters[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// redisBackend stores cache entries in Redis with per-entry expiry.
type redisBackend struct {
	client *redis.Client
}

func (r *redisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.SetEx(ctx, key, value, ttl).Err()
}
