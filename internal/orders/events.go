package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

// Reasons carried by OrderStatusChanged.
const (
	ReasonSweep      = "sweep"
	ReasonAdmin      = "admin"
	ReasonAdminForce = "admin_force"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemQty struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type OrderCreatedPayload struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	LocationID  int64           `json:"location_id"`
	Items       []ItemQty       `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type OrderStatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	Reason  string `json:"reason"`
}

func marshalPayload(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}
