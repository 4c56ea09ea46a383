package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Feed is a capped per-user list of JSON notifications, newest first.
type Feed struct {
	RDB *redis.Client
}

func (f *Feed) Push(ctx context.Context, userID int64, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyNotifications, userID)
	_, err = f.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, b)
		p.LTrim(ctx, key, 0, MaxNotifications-1)
		p.Expire(ctx, key, TTLNotifications)
		return nil
	})
	return err
}

// Recent returns up to n raw entries, newest first. n <= 0 means all.
func (f *Feed) Recent(ctx context.Context, userID int64, n int) ([]json.RawMessage, error) {
	stop := int64(n - 1)
	if n <= 0 {
		stop = -1
	}
	vals, err := f.RDB.LRange(ctx, fmt.Sprintf(KeyNotifications, userID), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		out = append(out, json.RawMessage(v))
	}
	return out, nil
}
