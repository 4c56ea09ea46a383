package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       reader
	workers int
	log     *slog.Logger
	// backoff is the first retry delay; it doubles up to maxBackoff.
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if log == nil {
		log = logx.Discard()
	}
	return newConsumer(r, workers, log.With("component", "kafka-consumer", "topic", topic, "group", group))
}

func newConsumer(r reader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logx.Discard()
	}
	return &Consumer{r: r, workers: workers, log: log, backoff: 200 * time.Millisecond, maxBackoff: 5 * time.Second}
}

// Start fetches messages and fans them out to the worker pool until ctx is done.
// A partition always maps to the same worker, and a worker retries a failed message in place
// until it succeeds, so offsets are committed in order and a commit never skips a failure.
// A message that keeps failing holds back its partition; handlers drop poison messages themselves.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	shards := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if !c.handle(ctx, h, m) {
					continue // shutting down; left uncommitted for redelivery
				}
				if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
					c.log.Warn("commit failed", "partition", m.Partition, "offset", m.Offset, "error", err)
				}
			}
		}(shards[i])
	}
	stop := func() {
		for _, s := range shards {
			close(s)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			// quiet on shutdown
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case shards[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// handle runs h until it succeeds and reports false if ctx ended first.
func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) bool {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		err := h(ctx, m)
		if err == nil {
			return true
		}
		c.log.Warn("handler failed", "partition", m.Partition, "offset", m.Offset, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
		wait = min(wait*2, c.maxBackoff)
	}
}
