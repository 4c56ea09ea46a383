package redisx

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SweepLock lets one API replica run each sweep tick. The lock is never released early;
// it expires just before the next tick.
type SweepLock struct {
	rdb   *redis.Client
	owner string
}

func NewSweepLock(rdb *redis.Client) *SweepLock {
	return &SweepLock{rdb: rdb, owner: uuid.NewString()}
}

func (l *SweepLock) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, KeySweepLock, l.owner, ttl).Result()
}
