package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{user_id}:{client_key} -> order_id ("0" while pending)
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache status order: order_status:{order_id} -> {"order_id":..,"user_id":..,"status":"..","order_date":".."}
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Single sweeper across API replicas
	KeySweepLock = "lock:order:sweep"

	// Customer notification feed, newest first: list notifications:{user_id}
	KeyNotifications = "notifications:%d"
)

var (
	TTLIdempotency        = 24 * time.Hour
	TTLIdempotencyPending = 30 * time.Second
	TTLStatusCache        = 5 * time.Minute
	TTLDedup              = 48 * time.Hour
	TTLNotifications      = 7 * 24 * time.Hour
)

// MaxNotifications caps each customer's feed.
const MaxNotifications = 50
