//go:build integration

package health

import (
	"context"
	"os"
	"testing"
	"time"

	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/application/recalc"
	"clientbook-backend/internal/domain"
	"clientbook-backend/internal/infrastructure/lockstore"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCollect_RealRedis checks the recalculation lock and last run against a
// real Redis. Run with: REDIS_URL=... go test -tags=integration ./internal/application/health/... -v
func TestCollect_RealRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()
	ctx := context.Background()

	store := lockstore.NewRedis(rdb)
	store.Key = "lock:integration:" + time.Now().Format("150405.000000")
	t.Cleanup(func() {
		rdb.Del(context.Background(), store.Key, recalc.LastRunKey)
	})
	lock := locking.NewManager(store)

	run := recalc.Result{Success: true, ClientsUpdated: 3, Timestamp: time.Now().UTC(), TimeTakenMs: 12, Actor: "ops"}
	require.NoError(t, (&recalc.RedisRecorder{Client: rdb}).RecordRun(ctx, run))
	require.NoError(t, lock.Acquire(ctx, "ops"))

	c := &Collector{Rdb: rdb, Lock: lock}
	result := c.Collect(ctx)
	assert.Equal(t, "connected", result.Dependencies["redis"].Status)
	assert.NotNil(t, result.Dependencies["redis"].PingMs)

	require.NotNil(t, result.Recalculation.Lock)
	assert.Equal(t, domain.Locked, result.Recalculation.Lock.Status)
	assert.Equal(t, "ops", result.Recalculation.Lock.Holder)
	require.NotNil(t, result.Recalculation.LastRun)
	assert.Equal(t, 3, result.Recalculation.LastRun.ClientsUpdated)
	assert.Equal(t, "ops", result.Recalculation.LastRun.Actor)

	require.NoError(t, lock.Release(ctx))
	result = c.Collect(ctx)
	require.NotNil(t, result.Recalculation.Lock)
	assert.Equal(t, domain.Unlocked, result.Recalculation.Lock.Status)
}
