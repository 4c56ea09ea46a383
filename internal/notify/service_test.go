package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/ariefcatur/go-food-delivery/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

func newService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{Redis: rdb, Feed: &redisx.Feed{RDB: rdb}, Name: "notifier"}, mr
}

func statusMessage(t *testing.T, eventType string, p orders.OrderStatusChangedPayload) kafkago.Message {
	t.Helper()
	env, err := orders.NewEnvelope(eventType, "test", "trace-1", p.OrderID, p)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(env)
	return kafkago.Message{Value: b}
}

func TestHandleStatusChanged_PushesOncePerEvent(t *testing.T) {
	t.Parallel()
	s, _ := newService(t)
	ctx := context.Background()
	m := statusMessage(t, orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{
		OrderID: 12, UserID: 7, From: orders.StatusPreparing, To: orders.StatusOnTheWay, Reason: orders.ReasonSweep,
	})

	for i := 0; i < 2; i++ {
		if err := s.HandleStatusChanged(ctx, m); err != nil {
			t.Fatalf("handle #%d: %v", i, err)
		}
	}
	got, err := s.Feed.Recent(ctx, 7, 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("feed=%d err=%v", len(got), err)
	}
	var n Notification
	if err := json.Unmarshal(got[0], &n); err != nil {
		t.Fatal(err)
	}
	if n.OrderID != 12 || n.Status != orders.StatusOnTheWay || n.Label != "Out for Delivery" || n.Reason != orders.ReasonSweep {
		t.Fatalf("notification=%+v", n)
	}
	if n.Message != "Order #12 is out for delivery." {
		t.Fatalf("message=%q", n.Message)
	}
}

func TestHandleStatusChanged_IgnoresOtherEventsAndGarbage(t *testing.T) {
	t.Parallel()
	s, mr := newService(t)
	ctx := context.Background()

	other := statusMessage(t, orders.EventOrderCreated, orders.OrderStatusChangedPayload{OrderID: 1, UserID: 7})
	for _, m := range []kafkago.Message{other, {Value: []byte("not json")}} {
		if err := s.HandleStatusChanged(ctx, m); err != nil {
			t.Fatalf("err=%v", err)
		}
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestHandleStatusChanged_RedisDownIsRetried(t *testing.T) {
	t.Parallel()
	s, mr := newService(t)
	ctx := context.Background()
	m := statusMessage(t, orders.EventOrderStatusChanged, orders.OrderStatusChangedPayload{
		OrderID: 3, UserID: 9, From: orders.StatusOnTheWay, To: orders.StatusDelivered, Reason: orders.ReasonSweep,
	})

	mr.SetError("LOADING")
	if err := s.HandleStatusChanged(ctx, m); err == nil {
		t.Fatal("expected error while redis fails")
	}
	mr.SetError("")
	if err := s.HandleStatusChanged(ctx, m); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	got, _ := s.Feed.Recent(ctx, 9, 0)
	if len(got) != 1 {
		t.Fatalf("feed=%d", len(got))
	}
}
