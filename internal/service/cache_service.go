package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

// CacheRepository is the snapshot store behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService holds dashboard snapshots. A broken store degrades to misses, never to failed requests.
type CacheService struct {
	store   CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	active  bool
}

// NewCacheService constructs a cache service. With enabled false every lookup misses.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		store:   repo,
		metrics: metrics,
		ttl:     defaultTTL,
		logger:  logger.With(zap.String("component", "snapshot-cache")),
		active:  enabled && repo != nil,
	}
}

// Enabled reports whether snapshots are stored at all.
func (s *CacheService) Enabled() bool {
	return s != nil && s.active
}

// Get decodes the snapshot under key into dest and reports a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	began := time.Now()
	err := s.store.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(began))
	switch {
	case hit:
		s.logger.Debug("snapshot hit", zap.String("key", key))
	case !errors.Is(err, appErrors.ErrCacheMiss):
		s.logger.Warn("snapshot read failed", zap.String("key", key), zap.Error(err))
	}
	return hit
}

// Set stores value under key. ttl <= 0 falls back to the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	began := time.Now()
	err := s.store.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(began))
	if err != nil {
		s.logger.Warn("snapshot write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every snapshot whose key matches pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.store.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("snapshot invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	s.logger.Debug("snapshots invalidated", zap.String("pattern", pattern))
}

// readThrough serves key from the cache or computes and stores it. The boolean reports a hit.
func readThrough[T any](ctx context.Context, cache *CacheService, key string, ttl time.Duration, compute func(context.Context) (*T, error)) (*T, bool, error) {
	var snapshot T
	if cache.Get(ctx, key, &snapshot) {
		return &snapshot, true, nil
	}
	fresh, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	cache.Set(ctx, key, fresh, ttl)
	return fresh, false, nil
}
