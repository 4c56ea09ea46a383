package tracking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/logx"
)

// OrderSource is satisfied by *Client.
type OrderSource interface {
	GetOrder(ctx context.Context, id int64) (Order, error)
}

type Poller struct {
	Source     OrderSource
	Reconciler *Reconciler
	Interval   time.Duration
	Log        *slog.Logger
}

// Run fetches the order immediately and then every Interval, handing each reconciled view
// to emit. It returns nil once the backend reports a terminal status, and an error when the
// order is gone or access is denied. Transient fetch failures are logged and retried.
func (p *Poller) Run(ctx context.Context, orderID int64, emit func(View)) error {
	log := p.Log
	if log == nil {
		log = logx.Discard()
	}
	t := time.NewTicker(p.Interval)
	defer t.Stop()

	for {
		o, err := p.Source.GetOrder(ctx, orderID)
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized):
			return err
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("order fetch failed", "order_id", orderID, "error", err)
		default:
			v := p.Reconciler.Reconcile(o)
			emit(v)
			if v.Final() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
