package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducer_FlushesOnCloseAcrossTopics(t *testing.T) {
	t.Parallel()
	w := &memWriter{}
	p := newProducer(w, 8, nil)
	p.Start(context.Background())

	if err := p.PublishJSON("order.created", "1", "OrderCreated", map[string]int{"order_id": 1}); err != nil {
		t.Fatal(err)
	}
	if err := p.Publish("order.status.changed", []byte("1"), []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	p.Close()
	p.WaitClosed()

	if len(w.msgs) != 2 || !w.closed {
		t.Fatalf("msgs=%d closed=%v", len(w.msgs), w.closed)
	}
	if w.msgs[0].Topic != "order.created" || w.msgs[1].Topic != "order.status.changed" {
		t.Fatalf("topics=%s,%s", w.msgs[0].Topic, w.msgs[1].Topic)
	}
	if Header(w.msgs[0], HeaderEventType) != "OrderCreated" || Header(w.msgs[0], HeaderEventVersion) != "1" {
		t.Fatalf("headers=%v", w.msgs[0].Headers)
	}
	if err := p.Publish("x", nil, nil); !errors.Is(err, ErrProducerClosed) {
		t.Fatalf("publish after close err=%v", err)
	}
	p.Close() // idempotent
}

// stalledWriter blocks every write until release is closed, like a broker that stopped acking.
type stalledWriter struct {
	release chan struct{}
	memWriter
}

func (w *stalledWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	<-w.release
	return w.memWriter.WriteMessages(ctx, msgs...)
}

func TestProducer_FullInboxFailsFastWhenBrokerStalls(t *testing.T) {
	t.Parallel()
	w := &stalledWriter{release: make(chan struct{})}
	p := newProducer(w, 2, nil)
	p.Start(context.Background())

	done := make(chan int)
	go func() {
		full := 0
		for i := 0; i < 5; i++ {
			if err := p.PublishJSON("order.status.changed", "1", "OrderStatusChanged", map[string]int{"n": i}); errors.Is(err, ErrInboxFull) {
				full++
			} else if err != nil {
				t.Errorf("publish %d: %v", i, err)
			}
		}
		done <- full
	}()

	var full int
	select {
	case full = <-done:
	case <-time.After(2 * time.Second):
		close(w.release)
		t.Fatal("publish blocked behind a stalled writer")
	}
	if full < 2 {
		t.Fatalf("full=%d, want at least 2 of 5 rejected", full)
	}

	close(w.release)
	p.Close()
	p.WaitClosed()
	if got := len(w.msgs); got != 5-full {
		t.Fatalf("written=%d rejected=%d", got, full)
	}
}

func TestProducer_ContextCancelCloses(t *testing.T) {
	t.Parallel()
	w := &memWriter{}
	p := newProducer(w, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()
	p.WaitClosed()
	if !w.closed {
		t.Fatal("writer not closed")
	}
}

func TestUnwrapPayload(t *testing.T) {
	t.Parallel()
	type payload struct {
		OrderID int64 `json:"order_id"`
	}
	var env struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := UnmarshalEnvelope([]byte(`{"payload":{"order_id":9}}`), &env); err != nil {
		t.Fatal(err)
	}
	got, err := UnwrapPayload[payload](env.Payload)
	if err != nil || got.OrderID != 9 {
		t.Fatalf("got=%+v err=%v", got, err)
	}
	if _, err := UnwrapPayload[payload](json.RawMessage(`[`)); err == nil {
		t.Fatal("expected error")
	}
}
