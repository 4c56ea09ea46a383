package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/google/uuid"
)

const DefaultPaymentMethod = "Cash"

// Service is the order query/projection layer plus the manual status driver.
// Cache, Events and Idem are optional; the database stays the source of truth when they fail.
type Service struct {
	Store    Store
	Cache    StatusCache
	Events   Publisher
	Idem     Idempotency
	Log      *slog.Logger
	Producer string
}

type CreateInput struct {
	NewOrder
	// IdempotencyKey is scoped to the user; empty disables replay protection.
	IdempotencyKey string
	TraceID        string
}

type CreateResult struct {
	OrderID  int64
	Replayed bool
}

func (s *Service) log() *slog.Logger {
	if s.Log == nil {
		return logx.Discard()
	}
	return s.Log
}

func validateNewOrder(in NewOrder) (NewOrder, error) {
	if len(in.Items) == 0 {
		return in, ErrEmptyCart
	}
	if in.UserID <= 0 {
		return in, ErrNoUser
	}
	if in.LocationID <= 0 {
		return in, ErrNoLocation
	}
	for _, it := range in.Items {
		if it.ItemID <= 0 {
			return in, fmt.Errorf("%w: %d", ErrUnknownItem, it.ItemID)
		}
		if it.Quantity <= 0 {
			return in, fmt.Errorf("%w: item %d", ErrInvalidQuantity, it.ItemID)
		}
		if it.Price.IsNegative() {
			return in, fmt.Errorf("negative price for item %d", it.ItemID)
		}
	}
	in.Items = mergeCart(in.Items)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if in.PaymentMethod == "" {
		in.PaymentMethod = DefaultPaymentMethod
	}
	return in, nil
}

func (s *Service) CreateOrder(ctx context.Context, in CreateInput) (CreateResult, error) {
	order, err := validateNewOrder(in.NewOrder)
	if err != nil {
		return CreateResult{}, err
	}

	idemKey := ""
	if s.Idem != nil && in.IdempotencyKey != "" {
		idemKey = fmt.Sprintf("%d:%s", order.UserID, in.IdempotencyKey)
		existing, claimed, err := s.Idem.Claim(ctx, idemKey)
		switch {
		case errors.Is(err, ErrRequestInFlight):
			return CreateResult{}, err
		case err != nil:
			// fall through to a plain create; the DB does not depend on the key
			s.log().Warn("idempotency claim failed", "error", err)
			idemKey = ""
		case !claimed:
			return CreateResult{OrderID: existing, Replayed: true}, nil
		}
	}

	id, err := s.Store.CreateOrder(ctx, order)
	if err != nil {
		if idemKey != "" {
			_ = s.Idem.Release(ctx, idemKey)
		}
		return CreateResult{}, err
	}
	if idemKey != "" {
		s.completeIdem(ctx, idemKey, id)
	}

	items := make([]ItemQty, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, ItemQty{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	s.emit(ctx, TopicOrderCreated, EventOrderCreated, id, in.TraceID, OrderCreatedPayload{
		OrderID: id, UserID: order.UserID, LocationID: order.LocationID,
		Items: items, TotalAmount: order.TotalAmount,
	})
	s.log().Info("order placed", "order_id", id, "user_id", order.UserID, "lines", len(order.Items))
	return CreateResult{OrderID: id}, nil
}

// completeIdem records the created order under key, retrying once. If that still fails the key
// is released: a retry of the same request then creates a second order instead of the claim
// lingering as in-flight and expiring into the same outcome later.
func (s *Service) completeIdem(ctx context.Context, key string, orderID int64) {
	err := s.Idem.Complete(ctx, key, orderID)
	if err == nil {
		return
	}
	if err = s.Idem.Complete(ctx, key, orderID); err == nil {
		return
	}
	s.log().Error("idempotency complete failed, releasing key", "order_id", orderID, "error", err)
	if rerr := s.Idem.Release(ctx, key); rerr != nil {
		s.log().Warn("idempotency release failed", "order_id", orderID, "error", rerr)
	}
}

func (s *Service) AllOrders(ctx context.Context) ([]AdminOrder, error) {
	return s.Store.ListAll(ctx)
}

func (s *Service) History(ctx context.Context, userID int64) ([]HistoryOrder, error) {
	out, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []HistoryOrder{}
	}
	return out, nil
}

func (s *Service) OrderForUser(ctx context.Context, orderID, userID int64) (*TrackedOrder, error) {
	return s.Store.GetForUser(ctx, orderID, userID)
}

// StatusForUser serves pollers from the cache and fills it on a miss without overwriting.
// Orders owned by someone else are reported as ErrNotFound.
func (s *Service) StatusForUser(ctx context.Context, orderID, userID int64) (OrderStatus, error) {
	if s.Cache != nil {
		st, ok, err := s.Cache.GetStatus(ctx, orderID)
		if err != nil {
			s.log().Warn("status cache read failed", "order_id", orderID, "error", err)
		} else if ok {
			if st.UserID != userID {
				return OrderStatus{}, ErrNotFound
			}
			return st, nil
		}
	}
	st, err := s.Store.GetStatus(ctx, orderID)
	if err != nil {
		return OrderStatus{}, err
	}
	if s.Cache != nil {
		if _, err := s.Cache.FillStatus(ctx, st); err != nil {
			s.log().Warn("status cache write failed", "order_id", orderID, "error", err)
		}
	}
	if st.UserID != userID {
		return OrderStatus{}, ErrNotFound
	}
	return st, nil
}

type StatusUpdate struct {
	OrderID int64
	Status  Status
	// Force skips the transition graph check and overwrites unconditionally.
	Force   bool
	TraceID string
}

// UpdateStatus is the admin driver. Legal moves follow validNext; repeating the current
// status is a no-op. Force keeps the old unconditional overwrite available as an explicit override.
func (s *Service) UpdateStatus(ctx context.Context, up StatusUpdate) (StatusChange, error) {
	if !up.Status.Valid() {
		return StatusChange{}, fmt.Errorf("%w: %q", ErrInvalidStatus, up.Status)
	}
	ch, err := s.Store.UpdateStatus(ctx, up.OrderID, func(cur Status) (Status, error) {
		if cur == up.Status || up.Force || CanTransition(cur, up.Status) {
			return up.Status, nil
		}
		return cur, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, cur, up.Status)
	})
	if err != nil {
		return StatusChange{}, err
	}
	if ch.From == ch.To {
		return ch, nil
	}

	reason := ReasonAdmin
	if !CanTransition(ch.From, ch.To) {
		reason = ReasonAdminForce
		s.log().Warn("order status forced", "order_id", ch.OrderID, "from", ch.From, "to", ch.To)
	}
	s.applied(ctx, []StatusChange{ch}, reason, up.TraceID)
	return ch, nil
}

// applied propagates committed status changes to the cache and the event stream.
func (s *Service) applied(ctx context.Context, changes []StatusChange, reason, traceID string) {
	applyChanges(ctx, s.log(), s.Cache, changes)
	for _, ch := range changes {
		s.emit(ctx, TopicOrderStatusChanged, EventOrderStatusChanged, ch.OrderID, traceID, OrderStatusChangedPayload{
			OrderID: ch.OrderID, UserID: ch.UserID, From: ch.From, To: ch.To, Reason: reason,
		})
	}
}

// applyChanges writes the new statuses through to the cache. Entries that cannot be written
// are dropped instead, so the next poll reads the database.
func applyChanges(ctx context.Context, log *slog.Logger, cache StatusCache, changes []StatusChange) {
	if cache == nil || len(changes) == 0 {
		return
	}
	var failed []int64
	for _, ch := range changes {
		if err := cache.SetStatus(ctx, ch.current()); err != nil {
			failed = append(failed, ch.OrderID)
		}
	}
	if len(failed) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, failed...); err != nil {
		log.Warn("status cache invalidate failed", "orders", len(failed), "error", err)
	}
}

func (s *Service) emit(ctx context.Context, topic, eventType string, orderID int64, traceID string, payload any) {
	if s.Events == nil {
		return
	}
	env, err := NewEnvelope(eventType, s.Producer, traceID, orderID, payload)
	if err == nil {
		err = s.Events.PublishJSON(topic, PartitionKey(orderID), eventType, env)
	}
	if err != nil {
		s.log().Warn("publish event failed", "event", eventType, "order_id", orderID, "error", err)
	}
}

func NewEnvelope(eventType, producer, traceID string, orderID int64, payload any) (Envelope, error) {
	b, err := marshalPayload(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: PartitionKey(orderID),
		Payload:       b,
	}, nil
}
