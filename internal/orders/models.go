package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	LocationID    int64           `json:"location_id"`
	OrderDate     time.Time       `json:"order_date"`
	Status        Status          `json:"status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentMethod string          `json:"payment_method"`
}

// CartItem is one requested line. A zero Price means "use the menu price".
type CartItem struct {
	ItemID   int64
	Quantity int
	Price    decimal.Decimal
}

type NewOrder struct {
	UserID        int64
	LocationID    int64
	Items         []CartItem
	PaymentMethod string
	TotalAmount   decimal.Decimal
}

// LineItem is an order_details row joined with its menu item and restaurant.
// Price is the unit price captured when the order was placed.
type LineItem struct {
	ItemID         int64           `json:"item_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Image          string          `json:"image"`
	RestaurantID   int64           `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name"`
}

type RestaurantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Address struct {
	Street    string `json:"street"`
	Building  string `json:"building"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Floor     string `json:"floor"`
}

// AdminOrder is the projection for the administrative order list.
type AdminOrder struct {
	Order
	CustomerName string     `json:"customer_name"`
	Items        []LineItem `json:"items"`
}

// HistoryOrder is the projection for a customer's own order history.
type HistoryOrder struct {
	Order
	Items       []LineItem      `json:"items"`
	Restaurants []RestaurantRef `json:"restaurants"`
}

// TrackedOrder is the projection for the single-order tracking page.
type TrackedOrder struct {
	Order
	CreatedAt      time.Time       `json:"created_at"`
	RestaurantID   *int64          `json:"restaurant_id"`
	RestaurantName string          `json:"restaurant_name"`
	Restaurants    []RestaurantRef `json:"restaurants"`
	Items          []LineItem      `json:"items"`
	Address        Address         `json:"address"`
}

// OrderStatus is the lightweight record served to status pollers and kept in the cache.
type OrderStatus struct {
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	Status    Status    `json:"status"`
	OrderDate time.Time `json:"order_date"`
}

type StatusChange struct {
	OrderID   int64
	UserID    int64
	From      Status
	To        Status
	OrderDate time.Time
}

func (c StatusChange) current() OrderStatus {
	return OrderStatus{OrderID: c.OrderID, UserID: c.UserID, Status: c.To, OrderDate: c.OrderDate}
}

// distinctRestaurants keeps first-seen order.
func distinctRestaurants(items []LineItem) []RestaurantRef {
	out := make([]RestaurantRef, 0, 1)
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if it.RestaurantID == 0 || seen[it.RestaurantID] {
			continue
		}
		seen[it.RestaurantID] = true
		out = append(out, RestaurantRef{ID: it.RestaurantID, Name: it.RestaurantName})
	}
	return out
}

func newTrackedOrder(o Order, items []LineItem, addr Address) *TrackedOrder {
	t := &TrackedOrder{
		Order:          o,
		CreatedAt:      o.OrderDate,
		RestaurantName: "Restaurant",
		Restaurants:    distinctRestaurants(items),
		Items:          items,
		Address:        addr,
	}
	if len(t.Restaurants) > 0 {
		id := t.Restaurants[0].ID
		t.RestaurantID = &id
		t.RestaurantName = t.Restaurants[0].Name
	}
	if t.Items == nil {
		t.Items = []LineItem{}
	}
	return t
}

func newHistoryOrder(o Order, items []LineItem) HistoryOrder {
	if items == nil {
		items = []LineItem{}
	}
	return HistoryOrder{Order: o, Items: items, Restaurants: distinctRestaurants(items)}
}

// mergeCart folds repeated item ids into one line; (order_id, item_id) is the line key.
// The first non-zero price seen for an item wins.
func mergeCart(items []CartItem) []CartItem {
	out := make([]CartItem, 0, len(items))
	idx := make(map[int64]int, len(items))
	for _, it := range items {
		if i, ok := idx[it.ItemID]; ok {
			out[i].Quantity += it.Quantity
			if out[i].Price.IsZero() {
				out[i].Price = it.Price
			}
			continue
		}
		idx[it.ItemID] = len(out)
		out = append(out, it)
	}
	return out
}
