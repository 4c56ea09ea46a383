// Package notify turns order status events into per-user notification feed entries.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkax "github.com/ariefcatur/go-food-delivery/internal/kafka"
	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/ariefcatur/go-food-delivery/internal/redisx"
	"github.com/ariefcatur/go-food-delivery/internal/tracking"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Notification is one entry of GET /users/me/notifications.
type Notification struct {
	EventID string        `json:"event_id"`
	OrderID int64         `json:"order_id"`
	Status  orders.Status `json:"status"`
	Label   string        `json:"label"`
	Message string        `json:"message"`
	Reason  string        `json:"reason"`
	At      time.Time     `json:"at"`
}

type Service struct {
	Redis *redis.Client
	Feed  *redisx.Feed
	// Name scopes the dedup keys, so two consumer groups never share them.
	Name string
	Log  *slog.Logger
}

func (s *Service) log() *slog.Logger {
	if s.Log == nil {
		return logx.Discard()
	}
	return s.Log
}

// HandleStatusChanged is installed as the consumer handler for order.status.changed.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		// poison message, committing it is the only way forward
		s.log().Error("dropping undecodable message", "offset", m.Offset, "error", err)
		return nil
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}
	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		s.log().Error("dropping event with bad payload", "event_id", env.EventID, "error", err)
		return nil
	}
	if p.UserID <= 0 {
		return nil
	}

	first, err := redisx.MarkSeen(ctx, s.Redis, s.Name, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		s.log().Debug("duplicate event", "event_id", env.EventID)
		return nil
	}

	n := Notification{
		EventID: env.EventID,
		OrderID: p.OrderID,
		Status:  p.To,
		Label:   tracking.Label(p.To),
		Message: text(p),
		Reason:  p.Reason,
		At:      env.OccurredAt,
	}
	if err := s.Feed.Push(ctx, p.UserID, n); err != nil {
		if ferr := redisx.Forget(ctx, s.Redis, s.Name, env.EventID); ferr != nil {
			err = errors.Join(err, ferr)
		}
		return fmt.Errorf("push notification for order %d: %w", p.OrderID, err)
	}
	s.log().Info("notification stored", "order_id", p.OrderID, "user_id", p.UserID, "status", p.To, "trace_id", env.TraceID)
	return nil
}

func text(p orders.OrderStatusChangedPayload) string {
	switch p.To {
	case orders.StatusOnTheWay:
		return fmt.Sprintf("Order #%d is out for delivery.", p.OrderID)
	case orders.StatusDelivered:
		return fmt.Sprintf("Order #%d has been delivered. Enjoy your meal!", p.OrderID)
	case orders.StatusCancelled:
		return fmt.Sprintf("Order #%d was cancelled.", p.OrderID)
	}
	return fmt.Sprintf("Order #%d is now %s.", p.OrderID, tracking.Label(p.To))
}
