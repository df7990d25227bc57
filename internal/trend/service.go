package trend

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"market-map/internal/logger"
	"market-map/internal/metrics"
	"market-map/internal/store"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "trend:"

// Source: the external trend store.
type Source interface {
	TrendSeries(ctx context.Context, region string) ([]store.TrendPoint, error)
}

// Service: LRU -> Redis -> store. Redis is optional; its errors fall through to the store.
type Service struct {
	src Source
	rdb *redis.Client
	lru *LRU
	ttl time.Duration
}

// NewService: rdb may be nil.
func NewService(src Source, rdb *redis.Client, lruSize int, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{src: src, rdb: rdb, lru: NewLRU(lruSize, ttl), ttl: ttl}
}

// Points: raw history for a key. Store errors are returned unchanged (wrapped).
func (s *Service) Points(ctx context.Context, key string) ([]store.TrendPoint, error) {
	l := logger.L()
	metrics.TrendRequestsTotal.Inc()
	start := time.Now()
	defer func() { metrics.TrendDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000) }()

	if pts, ok := s.lru.Get(key); ok {
		metrics.TrendCacheHitsTotal.WithLabelValues("lru").Inc()
		return pts, nil
	}
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, redisPrefix+key).Bytes()
		switch {
		case err == nil:
			var pts []store.TrendPoint
			if jerr := json.Unmarshal(raw, &pts); jerr == nil {
				metrics.TrendCacheHitsTotal.WithLabelValues("redis").Inc()
				s.lru.Set(key, pts)
				return pts, nil
			}
			l.Warn("trend_cache_decode_error", "key", key)
		case errors.Is(err, redis.Nil):
		default:
			l.Warn("trend_cache_error", "key", key, "err", err)
		}
	}

	metrics.TrendCacheMissesTotal.Inc()
	if s.src == nil {
		metrics.TrendFailuresTotal.Inc()
		return nil, ErrNoStore
	}
	pts, err := s.src.TrendSeries(ctx, key)
	if err != nil {
		metrics.TrendFailuresTotal.Inc()
		l.Error("trend_fetch_error", "key", key, "err", err)
		return nil, err
	}
	s.lru.Set(key, pts)
	if s.rdb != nil {
		if b, jerr := json.Marshal(pts); jerr == nil {
			if err := s.rdb.Set(ctx, redisPrefix+key, string(b), s.ttl).Err(); err != nil {
				l.Warn("trend_cache_set_error", "key", key, "err", err)
			}
		}
	}
	return pts, nil
}

// Fetch: shaped series for key, titled with display.
func (s *Service) Fetch(ctx context.Context, key, display string) (Series, error) {
	pts, err := s.Points(ctx, key)
	if err != nil {
		return Series{}, err
	}
	if len(pts) == 0 {
		logger.L().Debug("trend_empty", "key", key)
	}
	return Shape(key, display, pts), nil
}

// Invalidate drops cached entries so the next fetch reaches the store.
func (s *Service) Invalidate(ctx context.Context, keys ...string) {
	s.lru.Purge()
	if s.rdb == nil || len(keys) == 0 {
		return
	}
	redisKeys := make([]string, len(keys))
	for i, k := range keys {
		redisKeys[i] = redisPrefix + k
	}
	if err := s.rdb.Del(ctx, redisKeys...).Err(); err != nil {
		logger.L().Warn("trend_cache_del_error", "err", err)
	}
}

var ErrNoStore = errors.New("trend store not configured")
