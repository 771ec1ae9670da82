package controllers

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"storefront-service/models"
	"storefront-service/services"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newUnreachableRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       "localhost:0",
		MaxRetries: -1,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
	})
}

func TestCacheManagerDisabled(t *testing.T) {
	var nilManager *CacheManager
	for _, cm := range []*CacheManager{nilManager, NewCacheManager(nil, nil)} {
		var out []models.Category
		version, hit := cm.GetList(context.Background(), services.EntityCategory, &out)
		assert.False(t, hit)
		assert.Zero(t, version)
		assert.NoError(t, cm.Invalidate(context.Background(), services.EntityCategory))
		cm.SetListAsync(services.EntityCategory, 1, out)
	}
}

func TestCacheManagerUnreachable(t *testing.T) {
	cm := NewCacheManager(newUnreachableRedisClient(), nil)

	var out []models.Category
	version, hit := cm.GetList(context.Background(), services.EntityCategory, &out)
	assert.False(t, hit)
	assert.Zero(t, version)
	assert.Error(t, cm.Invalidate(context.Background(), services.EntityCategory))
}

type failingMetrics struct{}

func (failingMetrics) RecordCount(context.Context, string, map[string]string) error {
	return errors.New("cloudwatch unreachable")
}

func (failingMetrics) RecordValue(context.Context, string, float64, map[string]string) error {
	return errors.New("cloudwatch unreachable")
}

func TestCacheManagerMetricsFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))

	cm := NewCacheManager(newUnreachableRedisClient(), failingMetrics{})
	var out []models.Category
	_, hit := cm.GetList(context.Background(), services.EntityCategory, &out)
	require.False(t, hit)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Failed to record cache metric").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	return rdb
}

func TestCacheManagerRoundTrip(t *testing.T) {
	cm := NewCacheManager(newTestRedis(t), nil)
	ctx := context.Background()

	var got []models.Category
	version, hit := cm.GetList(ctx, services.EntityCategory, &got)
	require.False(t, hit)
	require.Equal(t, int64(1), version)

	want := []models.Category{{Name: "Books", Description: "Paper"}}
	cm.SetListAsync(services.EntityCategory, version, want)

	require.Eventually(t, func() bool {
		_, hit := cm.GetList(ctx, services.EntityCategory, &got)
		return hit
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, want, got)

	require.NoError(t, cm.Invalidate(ctx, services.EntityCategory))
	got = nil
	_, hit = cm.GetList(ctx, services.EntityCategory, &got)
	assert.False(t, hit)

	// Other entities keep their version.
	version, _ = cm.GetList(ctx, services.EntityProduct, &[]models.Product{})
	cm.SetListAsync(services.EntityProduct, version, []models.Product{{Name: "Lamp"}})
	require.Eventually(t, func() bool {
		var p []models.Product
		_, hit := cm.GetList(ctx, services.EntityProduct, &p)
		return hit
	}, 2*time.Second, 20*time.Millisecond)
}

func TestCacheManagerListingReadBeforeWriteIsNotServed(t *testing.T) {
	rdb := newTestRedis(t)
	cm := NewCacheManager(rdb, nil)
	ctx := context.Background()

	// A listing request misses and reads the store.
	var got []models.Category
	version, hit := cm.GetList(ctx, services.EntityCategory, &got)
	require.False(t, hit)
	stale := []models.Category{{Name: "Books"}}

	// A create lands before the listing is cached.
	require.NoError(t, cm.Invalidate(ctx, services.EntityCategory))
	cm.SetListAsync(services.EntityCategory, version, stale)

	require.Eventually(t, func() bool {
		n, err := rdb.Exists(ctx, listKey(services.EntityCategory, version)).Result()
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)

	current, hit := cm.GetList(ctx, services.EntityCategory, &got)
	assert.False(t, hit)
	assert.Equal(t, version+1, current)
}
