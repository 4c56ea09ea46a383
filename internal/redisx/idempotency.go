package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/redis/go-redis/v9"
)

const pending = "0"

// Idempotency stores idem:order:create keys. A key holds "0" while the first request runs,
// then the created order id.
type Idempotency struct {
	RDB *redis.Client
}

var _ orders.Idempotency = (*Idempotency)(nil)

func (i *Idempotency) Claim(ctx context.Context, key string) (int64, bool, error) {
	k := fmt.Sprintf(KeyIdemOrderCreate, key)
	ok, err := i.RDB.SetNX(ctx, k, pending, TTLIdempotencyPending).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}
	v, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; let the caller retry the claim
		return 0, false, orders.ErrRequestInFlight
	}
	if err != nil {
		return 0, false, err
	}
	if v == pending {
		return 0, false, orders.ErrRequestInFlight
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency value %q: %w", v, err)
	}
	return id, false, nil
}

func (i *Idempotency) Complete(ctx context.Context, key string, orderID int64) error {
	return i.RDB.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, key), strconv.FormatInt(orderID, 10), TTLIdempotency).Err()
}

func (i *Idempotency) Release(ctx context.Context, key string) error {
	return i.RDB.Del(ctx, fmt.Sprintf(KeyIdemOrderCreate, key)).Err()
}
