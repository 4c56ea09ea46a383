package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed = errors.New("producer closed")
	// ErrInboxFull is returned instead of blocking when the broker cannot keep up.
	ErrInboxFull = errors.New("producer inbox full")
)

// Producer buffers messages in an inbox and writes them from one goroutine.
// Messages carry their own topic, so one producer serves every topic.
type Producer struct {
	w       writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewProducer(brokers []string, buf int, log *slog.Logger) *Producer {
	if log == nil {
		log = logx.Discard()
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Error("kafka write failed", "component", "kafka-producer", "messages", len(msgs), "error", err)
			}
		},
	}
	return newProducer(w, buf, log)
}

func newProducer(w writer, buf int, log *slog.Logger) *Producer {
	if log == nil {
		log = logx.Discard()
	}
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log.With("component", "kafka-producer"),
	}
}

// Start drains the inbox until Close, or until ctx is done; remaining messages are flushed either way.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		p.Close()
	}()
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(wctx, m); err != nil {
				p.log.Error("kafka write failed", "topic", m.Topic, "key", string(m.Key), "error", err)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.log.Warn("kafka writer close", "error", err)
		}
	}()
}

// Publish never blocks: when the inbox is full the message is dropped with ErrInboxFull.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.inbox <- kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}:
		return nil
	default:
		return ErrInboxFull
	}
}

// PublishJSON encodes v and tags it with the event type/version headers consumers filter on.
func (p *Producer) PublishJSON(topic, key, eventType string, v any) error {
	b, err := Marshal(v)
	if err != nil {
		return err
	}
	return p.Publish(topic, []byte(key), b,
		kafka.Header{Key: HeaderEventType, Value: []byte(eventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte("1")},
	)
}

// Close stops accepting messages; the writer goroutine flushes what is buffered and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// WaitClosed blocks until every buffered message has been written.
func (p *Producer) WaitClosed() { <-p.closeCh }
