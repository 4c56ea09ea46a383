package orders

import (
	"context"
	"time"
)

// Store is the relational side of the order lifecycle. Repo implements it on Postgres.
type Store interface {
	// CreateOrder inserts the order and all of its lines atomically and returns the new id.
	CreateOrder(ctx context.Context, in NewOrder) (int64, error)
	ListAll(ctx context.Context) ([]AdminOrder, error)
	ListByUser(ctx context.Context, userID int64) ([]HistoryOrder, error)
	// GetForUser returns ErrNotFound when the order does not exist or belongs to someone else.
	GetForUser(ctx context.Context, orderID, userID int64) (*TrackedOrder, error)
	GetStatus(ctx context.Context, orderID int64) (OrderStatus, error)
	// UpdateStatus locks the order, asks decide for the target status and writes it if it differs.
	UpdateStatus(ctx context.Context, orderID int64, decide func(current Status) (Status, error)) (StatusChange, error)
	// AdvanceStatus moves every order in from placed at or before cutoff to to.
	AdvanceStatus(ctx context.Context, from, to Status, cutoff time.Time) ([]StatusChange, error)
}

// StatusCache holds OrderStatus records for pollers. A miss is (zero, false, nil).
// Status changes are written through with SetStatus; reads only ever FillStatus, which never
// overwrites an entry, so a poll racing a change cannot put the older status back.
type StatusCache interface {
	GetStatus(ctx context.Context, orderID int64) (OrderStatus, bool, error)
	SetStatus(ctx context.Context, st OrderStatus) error
	// FillStatus stores st only when no entry exists and reports whether it did.
	FillStatus(ctx context.Context, st OrderStatus) (bool, error)
	Invalidate(ctx context.Context, orderIDs ...int64) error
}

// Publisher emits domain events; the Kafka producer implements it.
type Publisher interface {
	PublishJSON(topic, key, eventType string, v any) error
}

// Idempotency remembers which order a client request key produced.
type Idempotency interface {
	// Claim returns (existingID, false) for a finished request, ErrRequestInFlight while the
	// first request is still running, and (0, true) when the caller now owns the key.
	Claim(ctx context.Context, key string) (int64, bool, error)
	Complete(ctx context.Context, key string, orderID int64) error
	Release(ctx context.Context, key string) error
}

// Locker guards the sweep when several API replicas run.
type Locker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
}
