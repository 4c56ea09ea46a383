package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

type OrdersHandler struct {
	Svc    *orders.Service
	Tokens *auth.Tokens
	Log    *slog.Logger
}

// cartItemReq accepts itemId, item_id or id for the item key.
type cartItemReq struct {
	ItemID    int64           `json:"itemId"`
	ItemIDAlt int64           `json:"item_id"`
	ID        int64           `json:"id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (c cartItemReq) itemID() int64 {
	for _, id := range []int64{c.ItemID, c.ItemIDAlt, c.ID} {
		if id != 0 {
			return id
		}
	}
	return 0
}

type createOrderReq struct {
	UserID        int64           `json:"user_id"`
	Items         []cartItemReq   `json:"items"`
	LocationID    int64           `json:"locationId"`
	LocationIDAlt int64           `json:"location_id"`
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

func (c createOrderReq) locationID() int64 {
	if c.LocationID != 0 {
		return c.LocationID
	}
	return c.LocationIDAlt
}

type createOrderResp struct {
	OrderID  int64  `json:"orderId"`
	Message  string `json:"message"`
	Replayed bool   `json:"replayed,omitempty"`
}

type updateStatusReq struct {
	Status string `json:"status"`
	Force  bool   `json:"force"`
}

type statusResp struct {
	OrderID   int64         `json:"order_id"`
	Status    orders.Status `json:"status"`
	OrderDate time.Time     `json:"order_date"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(h.Tokens))
		r.Post("/orders", h.createOrder)
		r.Get("/orders/history", h.history)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/status", h.getStatus)

		r.With(auth.RequireAdmin).Get("/orders", h.listAll)
		r.With(auth.RequireAdmin).Put("/orders/{id}", h.updateStatus)
	})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	c := caller(r)
	userID := c.UserID
	// only admins may place an order on someone else's behalf
	if c.IsAdmin() && req.UserID > 0 {
		userID = req.UserID
	}

	items := make([]orders.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orders.CartItem{ItemID: it.itemID(), Quantity: it.Quantity, Price: it.Price})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.CreateOrder(ctx, orders.CreateInput{
		NewOrder: orders.NewOrder{
			UserID:        userID,
			LocationID:    req.locationID(),
			Items:         items,
			PaymentMethod: req.PaymentMethod,
			TotalAmount:   req.TotalAmount,
		},
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		TraceID:        middleware.GetReqID(r.Context()),
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	writeJSON(w, code, createOrderResp{OrderID: res.OrderID, Message: "Order placed successfully", Replayed: res.Replayed})
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Svc.AllOrders(ctx)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) history(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.Svc.History(ctx, caller(r).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Svc.OrderForUser(ctx, id, caller(r).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st, err := h.Svc.StatusForUser(ctx, id, caller(r).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResp{OrderID: st.OrderID, Status: st.Status, OrderDate: st.OrderDate})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	var req updateStatusReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	st, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ch, err := h.Svc.UpdateStatus(ctx, orders.StatusUpdate{
		OrderID: id, Status: st, Force: req.Force, TraceID: middleware.GetReqID(r.Context()),
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order status updated", "status": ch.To})
}
