// Package tracking is the client side of order tracking: a typed API client, the
// estimate-vs-backend status reconciliation, and a poller that ties them together.
package tracking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrMalformed = errors.New("malformed order payload")

// Order is the canonical client-side view of an order, whatever shape the API used.
type Order struct {
	ID             int64
	UserID         int64
	Status         string // raw backend value, may be empty or unknown
	TotalAmount    decimal.Decimal
	PaymentMethod  string
	CreatedAt      time.Time
	RestaurantName string
	Items          []Item
}

type Item struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
}

type wireOrder struct {
	OrderID        int64           `json:"order_id"`
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	CreatedAt      *time.Time      `json:"created_at"`
	OrderDate      *time.Time      `json:"order_date"`
	RestaurantName string          `json:"restaurant_name"`
	Items          []Item          `json:"items"`
}

func (w wireOrder) canonical() (Order, error) {
	o := Order{
		ID: w.OrderID, UserID: w.UserID, Status: w.Status, TotalAmount: w.TotalAmount,
		PaymentMethod: w.PaymentMethod, RestaurantName: w.RestaurantName, Items: w.Items,
	}
	if o.ID == 0 {
		o.ID = w.ID
	}
	switch {
	case w.CreatedAt != nil && !w.CreatedAt.IsZero():
		o.CreatedAt = *w.CreatedAt
	case w.OrderDate != nil:
		o.CreatedAt = *w.OrderDate
	}
	if o.ID <= 0 {
		return Order{}, fmt.Errorf("%w: missing order id", ErrMalformed)
	}
	if o.CreatedAt.IsZero() {
		return Order{}, fmt.Errorf("%w: order %d has no created_at or order_date", ErrMalformed, o.ID)
	}
	if o.Items == nil {
		o.Items = []Item{}
	}
	return o, nil
}

// DecodeOrder accepts a bare order object or {"order": {...}}.
func DecodeOrder(b []byte) (Order, error) {
	var wrapped struct {
		Order *wireOrder `json:"order"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if wrapped.Order != nil {
		return wrapped.Order.canonical()
	}
	var w wireOrder
	if err := json.Unmarshal(b, &w); err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return w.canonical()
}

// DecodeOrders accepts a bare array, {"orders": [...]} or {"data": [...]}.
func DecodeOrders(b []byte) ([]Order, error) {
	b = bytes.TrimSpace(b)
	var list []wireOrder
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else {
		var wrapped struct {
			Orders []wireOrder `json:"orders"`
			Data   []wireOrder `json:"data"`
		}
		if err := json.Unmarshal(b, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch {
		case wrapped.Orders != nil:
			list = wrapped.Orders
		case wrapped.Data != nil:
			list = wrapped.Data
		default:
			return nil, fmt.Errorf("%w: no orders or data field", ErrMalformed)
		}
	}
	out := make([]Order, 0, len(list))
	for _, w := range list {
		o, err := w.canonical()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}
