package lockstore

import (
	"context"
	"testing"
	"time"

	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRedis(t *testing.T) *Redis {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewRedis(rdb)
}

func setupGorm(t *testing.T) *Gorm {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.LockRecord{}))
	return &Gorm{DB: db}
}

func stores(t *testing.T) map[string]locking.SwapStore {
	return map[string]locking.SwapStore{
		"redis":  setupRedis(t),
		"gorm":   setupGorm(t),
		"memory": NewMemory(),
	}
}

func TestStore_MissingRecordReadsUnlocked(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec, err := s.ReadLock(context.Background())
			require.NoError(t, err)
			assert.Equal(t, domain.Unlocked, rec.Status)
			assert.False(t, rec.IsLocked())
		})
	}
}

func TestStore_WriteThenRead(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.WriteLock(ctx, domain.LockRecord{Status: domain.Locked, Holder: "X", Timestamp: at}))
			require.NoError(t, s.WriteLock(ctx, domain.LockRecord{Status: domain.Locked, Holder: "Y", Timestamp: at}))
			rec, err := s.ReadLock(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.Locked, rec.Status)
			assert.Equal(t, "Y", rec.Holder)
			assert.True(t, rec.Timestamp.Equal(at))
		})
	}
}

func TestStore_SwapDetectsConcurrentWrite(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			prev, err := s.ReadLock(ctx)
			require.NoError(t, err)

			first := domain.LockRecord{Status: domain.Locked, Holder: "first", Timestamp: at}
			ok, err := s.SwapLock(ctx, prev, first)
			require.NoError(t, err)
			assert.True(t, ok)

			// second writer still holds the stale read
			ok, err = s.SwapLock(ctx, prev, domain.LockRecord{Status: domain.Locked, Holder: "second", Timestamp: at})
			require.NoError(t, err)
			assert.False(t, ok)

			rec, _ := s.ReadLock(ctx)
			assert.Equal(t, "first", rec.Holder)

			ok, err = s.SwapLock(ctx, rec, domain.LockRecord{Status: domain.Unlocked, Timestamp: at.Add(time.Minute)})
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestManagerOverRedis_StaleOverride(t *testing.T) {
	s := setupRedis(t)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := start
	m := locking.NewManager(s)
	m.Now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Acquire(ctx, "X"))
	now = start.Add(10 * time.Second)
	assert.ErrorIs(t, m.Acquire(ctx, "Y"), locking.ErrLockHeld)
	now = start.Add(400 * time.Second)
	require.NoError(t, m.Acquire(ctx, "Y"))
	rec, _ := s.ReadLock(ctx)
	assert.Equal(t, "Y", rec.Holder)
}
