package orderstest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ariefcatur/go-food-delivery/internal/orders"
)

// Cache is a map-backed orders.StatusCache that records writes and invalidations.
type Cache struct {
	// FailSet, when set, is returned by SetStatus.
	FailSet error

	mu          sync.Mutex
	entries     map[int64]orders.OrderStatus
	Written     []orders.OrderStatus
	Invalidated []int64
}

func NewCache() *Cache { return &Cache{entries: map[int64]orders.OrderStatus{}} }

func (c *Cache) GetStatus(_ context.Context, id int64) (orders.OrderStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.entries[id]
	return st, ok, nil
}

func (c *Cache) SetStatus(_ context.Context, st orders.OrderStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSet != nil {
		return c.FailSet
	}
	c.entries[st.OrderID] = st
	c.Written = append(c.Written, st)
	return nil
}

func (c *Cache) FillStatus(_ context.Context, st orders.OrderStatus) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[st.OrderID]; ok {
		return false, nil
	}
	c.entries[st.OrderID] = st
	return true, nil
}

func (c *Cache) Invalidate(_ context.Context, ids ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
		c.Invalidated = append(c.Invalidated, id)
	}
	return nil
}

type Published struct {
	Topic     string
	Key       string
	EventType string
	Envelope  orders.Envelope
}

// Publisher records every event instead of sending it.
type Publisher struct {
	mu     sync.Mutex
	Events []Published
}

func (p *Publisher) PublishJSON(topic, key, eventType string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var env orders.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, Published{Topic: topic, Key: key, EventType: eventType, Envelope: env})
	return nil
}

func (p *Publisher) OfType(eventType string) []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Published
	for _, e := range p.Events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// StatusChanges decodes the payloads of every OrderStatusChanged event.
func (p *Publisher) StatusChanges() []orders.OrderStatusChangedPayload {
	var out []orders.OrderStatusChangedPayload
	for _, e := range p.OfType(orders.EventOrderStatusChanged) {
		var pl orders.OrderStatusChangedPayload
		if err := json.Unmarshal(e.Envelope.Payload, &pl); err == nil {
			out = append(out, pl)
		}
	}
	return out
}
