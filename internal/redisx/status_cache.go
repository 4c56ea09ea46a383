package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/redis/go-redis/v9"
)

// StatusCache is the orders.StatusCache used by the status poll endpoint.
type StatusCache struct {
	RDB *redis.Client
}

var _ orders.StatusCache = (*StatusCache)(nil)

func (c *StatusCache) GetStatus(ctx context.Context, orderID int64) (orders.OrderStatus, bool, error) {
	b, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orders.OrderStatus{}, false, nil
	}
	if err != nil {
		return orders.OrderStatus{}, false, err
	}
	var st orders.OrderStatus
	if err := json.Unmarshal(b, &st); err != nil {
		// treat a corrupt entry as a miss; the next SetStatus overwrites it
		return orders.OrderStatus{}, false, nil
	}
	return st, true, nil
}

func (c *StatusCache) SetStatus(ctx context.Context, st orders.OrderStatus) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, st.OrderID), b, TTLStatusCache).Err()
}

func (c *StatusCache) FillStatus(ctx context.Context, st orders.OrderStatus) (bool, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return false, err
	}
	return c.RDB.SetNX(ctx, fmt.Sprintf(KeyOrderStatus, st.OrderID), b, TTLStatusCache).Result()
}

func (c *StatusCache) Invalidate(ctx context.Context, orderIDs ...int64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(orderIDs))
	for _, id := range orderIDs {
		keys = append(keys, fmt.Sprintf(KeyOrderStatus, id))
	}
	return c.RDB.Del(ctx, keys...).Err()
}
