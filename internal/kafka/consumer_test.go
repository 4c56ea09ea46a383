package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type memReader struct {
	mu      sync.Mutex
	queue   []kafka.Message
	commits []kafka.Message
	closed  bool
}

func (r *memReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *memReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, msgs...)
	return nil
}

func (r *memReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *memReader) committed() []kafka.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]kafka.Message(nil), r.commits...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestConsumer_FailedMessageIsRetriedBeforeLaterOffsetsCommit(t *testing.T) {
	t.Parallel()
	r := &memReader{queue: []kafka.Message{
		{Partition: 0, Offset: 5},
		{Partition: 1, Offset: 3},
		{Partition: 0, Offset: 6},
	}}
	c := newConsumer(r, 2, nil)
	c.backoff = time.Millisecond

	var mu sync.Mutex
	attempts := map[int64]int{}
	var handled []int64
	h := func(_ context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[m.Offset]++
		if m.Partition == 0 && m.Offset == 5 && attempts[5] == 1 {
			return errors.New("redis: connection reset")
		}
		if m.Partition == 0 {
			handled = append(handled, m.Offset)
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx, h) }()
	waitFor(t, func() bool { return len(r.committed()) == 3 })
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("start: %v", err)
	}

	var p0 []int64
	for _, m := range r.committed() {
		if m.Partition == 0 {
			p0 = append(p0, m.Offset)
		}
	}
	if len(p0) != 2 || p0[0] != 5 || p0[1] != 6 {
		t.Fatalf("partition 0 commits=%v", p0)
	}
	mu.Lock()
	defer mu.Unlock()
	if attempts[5] != 2 || len(handled) != 2 || handled[0] != 5 {
		t.Fatalf("attempts=%v handled=%v", attempts, handled)
	}
	if !r.closed {
		t.Fatal("reader not closed")
	}
}

func TestConsumer_ShutdownDuringRetryLeavesMessageUncommitted(t *testing.T) {
	t.Parallel()
	r := &memReader{queue: []kafka.Message{{Partition: 0, Offset: 1}, {Partition: 0, Offset: 2}}}
	c := newConsumer(r, 1, nil)
	c.backoff = time.Millisecond

	failing := make(chan struct{}, 1)
	h := func(_ context.Context, m kafka.Message) error {
		select {
		case failing <- struct{}{}:
		default:
		}
		return errors.New("always down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(ctx, h) }()
	<-failing
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := r.committed(); len(got) != 0 {
		t.Fatalf("committed %v past a failing message", got)
	}
}
