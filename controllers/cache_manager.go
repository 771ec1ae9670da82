package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	awspkg "storefront-service/pkg/aws"
	"storefront-service/services"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	CatalogVersionPrefix = "catalog:version:"
	CatalogListPrefix    = "catalog:list:"
	DefaultCacheTTL      = 10 * time.Minute
)

// CacheManager caches catalog listings under a per entity version. Bumping
// the version orphans every list cached before it. A nil client disables
// caching.
type CacheManager struct {
	redis   *redis.Client
	ttl     time.Duration
	metrics services.MetricsRecorder
}

func NewCacheManager(rdb *redis.Client, metrics services.MetricsRecorder) *CacheManager {
	return &CacheManager{redis: rdb, ttl: DefaultCacheTTL, metrics: metrics}
}

func (cm *CacheManager) Enabled() bool {
	return cm != nil && cm.redis != nil
}

// GetList decodes the cached listing of entity into dst. It also returns the
// version it looked under; a listing read from the store after a miss must be
// cached under that version, never a later one. Version 0 means unknown.
func (cm *CacheManager) GetList(ctx context.Context, entity string, dst any) (int64, bool) {
	if !cm.Enabled() {
		return 0, false
	}
	version, err := cm.getCacheVersion(ctx, entity)
	if err != nil {
		cm.record(awspkg.MetricCacheMisses, entity)
		return 0, false
	}

	cached, err := cm.redis.Get(ctx, listKey(entity, version)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("Failed to read cached listing", zap.String("entity", entity), zap.Error(err))
		}
		cm.record(awspkg.MetricCacheMisses, entity)
		return version, false
	}
	if err := json.Unmarshal(cached, dst); err != nil {
		zap.L().Warn("Failed to unmarshal cached listing", zap.String("entity", entity), zap.Error(err))
		cm.record(awspkg.MetricCacheMisses, entity)
		return version, false
	}
	cm.record(awspkg.MetricCacheHits, entity)
	return version, true
}

// SetListAsync caches a listing under version in the background. A write
// that bumped the version meanwhile leaves the entry orphaned.
func (cm *CacheManager) SetListAsync(entity string, version int64, list any) {
	if !cm.Enabled() || version <= 0 {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		b, err := json.Marshal(list)
		if err != nil {
			zap.L().Warn("Failed to marshal listing for cache", zap.String("entity", entity), zap.Error(err))
			return
		}
		if err := cm.redis.Set(bgCtx, listKey(entity, version), b, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache listing", zap.String("entity", entity), zap.Error(err))
		}
	}()
}

// Invalidate bumps the listing version of entity.
func (cm *CacheManager) Invalidate(ctx context.Context, entity string) error {
	if !cm.Enabled() {
		return nil
	}
	v, err := cm.redis.Incr(ctx, CatalogVersionPrefix+entity).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate %s cache: %w", entity, err)
	}
	zap.L().Debug("Cache invalidated", zap.String("entity", entity), zap.Int64("new_version", v))
	return nil
}

// invalidate is Invalidate for request handlers: failures are only logged.
func (cm *CacheManager) invalidate(ctx context.Context, entity string) {
	if err := cm.Invalidate(ctx, entity); err != nil {
		zap.L().Error("Failed to invalidate cache", zap.String("entity", entity), zap.Error(err))
	}
}

func (cm *CacheManager) getCacheVersion(ctx context.Context, entity string) (int64, error) {
	key := CatalogVersionPrefix + entity
	ver, err := cm.redis.Get(ctx, key).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if errors.Is(err, redis.Nil) {
		// SETNX so a concurrent Incr is not overwritten.
		if err := cm.redis.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return cm.redis.Get(ctx, key).Int64()
	}
	if err == nil {
		err = fmt.Errorf("invalid cache version %d", ver)
	}
	return 0, err
}

func (cm *CacheManager) record(metric, entity string) {
	if cm.metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cm.metrics.RecordCount(ctx, metric, map[string]string{"Entity": entity}); err != nil {
			zap.L().Debug("Failed to record cache metric", zap.String("metric", metric), zap.Error(err))
		}
	}()
}

func listKey(entity string, version int64) string {
	return fmt.Sprintf("%s%s:v:%d", CatalogListPrefix, entity, version)
}
