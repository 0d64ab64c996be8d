package recalc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// LastRunKey holds the JSON of the most recent Result.
const LastRunKey = "health:global:last_recalculation"

// RedisRecorder stores the last Result in Redis for the health endpoint.
type RedisRecorder struct {
	Client *redis.Client
}

func (r *RedisRecorder) RecordRun(ctx context.Context, res Result) error {
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, LastRunKey, b, 0).Err()
}

// LastRun returns the stored Result, or nil when no run has been recorded.
func LastRun(ctx context.Context, rdb *redis.Client) (*Result, error) {
	b, err := rdb.Get(ctx, LastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
