// Package lockstore persists the recalculation lock record.
package lockstore

import (
	"context"
	"encoding/json"
	"errors"

	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey holds the JSON-encoded lock record.
const DefaultRedisKey = "lock:" + domain.RecalculationLock

var errSwapLost = errors.New("lock record changed")

// Redis stores the lock record under a single key with no expiry; staleness
// is decided by the manager, not by a TTL.
type Redis struct {
	Client *redis.Client
	Key    string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client, Key: DefaultRedisKey}
}

func (r *Redis) key() string {
	if r.Key == "" {
		return DefaultRedisKey
	}
	return r.Key
}

func (r *Redis) ReadLock(ctx context.Context) (domain.LockRecord, error) {
	return readRecord(ctx, r.Client, r.key())
}

func (r *Redis) WriteLock(ctx context.Context, rec domain.LockRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, r.key(), b, 0).Err()
}

// SwapLock writes next only if the stored record still matches prev, using
// WATCH/MULTI so a concurrent writer aborts the transaction.
func (r *Redis) SwapLock(ctx context.Context, prev, next domain.LockRecord) (bool, error) {
	b, err := json.Marshal(next)
	if err != nil {
		return false, err
	}
	key := r.key()
	err = r.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readRecord(ctx, tx, key)
		if err != nil {
			return err
		}
		if !sameRecord(current, prev) {
			return errSwapLost
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errSwapLost), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

func readRecord(ctx context.Context, c redis.Cmdable, key string) (domain.LockRecord, error) {
	b, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return unlocked(), nil
	}
	if err != nil {
		return domain.LockRecord{}, err
	}
	var rec domain.LockRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.LockRecord{}, err
	}
	return rec, nil
}

func sameRecord(a, b domain.LockRecord) bool {
	return a.Status == b.Status && a.Holder == b.Holder && a.Timestamp.Equal(b.Timestamp)
}

func unlocked() domain.LockRecord {
	return domain.LockRecord{Name: domain.RecalculationLock, Status: domain.Unlocked}
}

var _ locking.SwapStore = (*Redis)(nil)
