// Package orderstest provides an in-memory orders.Store with the same semantics as the
// Postgres repo: atomic creation, ownership-scoped reads and conditional bulk advancement.
package orderstest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID             int64
	Name           string
	Price          decimal.Decimal
	Image          string
	RestaurantID   int64
	RestaurantName string
}

type Location struct {
	ID      int64
	UserID  int64
	Address orders.Address
}

type line struct {
	itemID   int64
	quantity int
	price    decimal.Decimal
}

type MemStore struct {
	// Now stamps order_date on create; defaults to time.Now.
	Now func() time.Time
	// FailAdvance, when set, is returned by AdvanceStatus for the given source status.
	FailAdvance map[orders.Status]error

	mu        sync.Mutex
	nextID    int64
	orders    map[int64]orders.Order
	lines     map[int64][]line
	menu      map[int64]MenuItem
	locations map[int64]Location
	customers map[int64]string
}

var _ orders.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		Now:       time.Now,
		orders:    map[int64]orders.Order{},
		lines:     map[int64][]line{},
		menu:      map[int64]MenuItem{},
		locations: map[int64]Location{},
		customers: map[int64]string{},
	}
}

func (m *MemStore) AddItem(it MenuItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menu[it.ID] = it
}

func (m *MemStore) AddLocation(l Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[l.ID] = l
}

func (m *MemStore) AddCustomer(id int64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[id] = name
}

// Put seeds an order as-is, assigning an id when zero.
func (m *MemStore) Put(o orders.Order) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == 0 {
		m.nextID++
		o.ID = m.nextID
	} else if o.ID > m.nextID {
		m.nextID = o.ID
	}
	m.orders[o.ID] = o
	return o.ID
}

func (m *MemStore) Order(id int64) (orders.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

func (m *MemStore) LineCount(orderID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines[orderID])
}

func (m *MemStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MemStore) CreateOrder(_ context.Context, in orders.NewOrder) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc, ok := m.locations[in.LocationID]
	if !ok || loc.UserID != in.UserID {
		return 0, fmt.Errorf("%w: location %d", orders.ErrNoLocation, in.LocationID)
	}
	ls := make([]line, 0, len(in.Items))
	seen := map[int64]bool{}
	for _, it := range in.Items {
		mi, ok := m.menu[it.ItemID]
		if !ok {
			return 0, fmt.Errorf("%w: %d", orders.ErrUnknownItem, it.ItemID)
		}
		if seen[it.ItemID] {
			return 0, fmt.Errorf("duplicate key (order_id, item_id)=(?, %d)", it.ItemID)
		}
		seen[it.ItemID] = true
		price := it.Price
		if !price.IsPositive() {
			price = mi.Price
		}
		ls = append(ls, line{itemID: it.ItemID, quantity: it.Quantity, price: price})
	}

	m.nextID++
	id := m.nextID
	m.orders[id] = orders.Order{
		ID:            id,
		UserID:        in.UserID,
		LocationID:    in.LocationID,
		OrderDate:     m.Now(),
		Status:        orders.StatusPreparing,
		TotalAmount:   in.TotalAmount,
		PaymentMethod: in.PaymentMethod,
	}
	m.lines[id] = ls
	return id, nil
}

func (m *MemStore) sorted(filter func(orders.Order) bool) []orders.Order {
	var out []orders.Order
	for _, o := range m.orders {
		if filter(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].OrderDate.After(out[j].OrderDate)
	})
	return out
}

func (m *MemStore) lineItems(orderID int64) []orders.LineItem {
	out := []orders.LineItem{}
	for _, l := range m.lines[orderID] {
		mi := m.menu[l.itemID]
		out = append(out, orders.LineItem{
			ItemID: l.itemID, Name: mi.Name, Price: l.price, Quantity: l.quantity, Image: mi.Image,
			RestaurantID: mi.RestaurantID, RestaurantName: mi.RestaurantName,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func (m *MemStore) ListAll(_ context.Context) ([]orders.AdminOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []orders.AdminOrder{}
	for _, o := range m.sorted(func(orders.Order) bool { return true }) {
		out = append(out, orders.AdminOrder{Order: o, CustomerName: m.customers[o.UserID], Items: m.lineItems(o.ID)})
	}
	return out, nil
}

func (m *MemStore) ListByUser(_ context.Context, userID int64) ([]orders.HistoryOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []orders.HistoryOrder{}
	for _, o := range m.sorted(func(o orders.Order) bool { return o.UserID == userID }) {
		items := m.lineItems(o.ID)
		out = append(out, orders.HistoryOrder{Order: o, Items: items, Restaurants: restaurants(items)})
	}
	return out, nil
}

func (m *MemStore) GetForUser(_ context.Context, orderID, userID int64) (*orders.TrackedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.UserID != userID {
		return nil, orders.ErrNotFound
	}
	items := m.lineItems(orderID)
	t := &orders.TrackedOrder{
		Order: o, CreatedAt: o.OrderDate, RestaurantName: "Restaurant",
		Restaurants: restaurants(items), Items: items,
		Address: m.locations[o.LocationID].Address,
	}
	if len(t.Restaurants) > 0 {
		id := t.Restaurants[0].ID
		t.RestaurantID = &id
		t.RestaurantName = t.Restaurants[0].Name
	}
	return t, nil
}

func (m *MemStore) GetStatus(_ context.Context, orderID int64) (orders.OrderStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return orders.OrderStatus{}, orders.ErrNotFound
	}
	return orders.OrderStatus{OrderID: o.ID, UserID: o.UserID, Status: o.Status, OrderDate: o.OrderDate}, nil
}

func (m *MemStore) UpdateStatus(_ context.Context, orderID int64, decide func(orders.Status) (orders.Status, error)) (orders.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return orders.StatusChange{}, orders.ErrNotFound
	}
	to, err := decide(o.Status)
	if err != nil {
		return orders.StatusChange{}, err
	}
	ch := orders.StatusChange{OrderID: orderID, UserID: o.UserID, From: o.Status, To: to, OrderDate: o.OrderDate}
	o.Status = to
	m.orders[orderID] = o
	return ch, nil
}

func (m *MemStore) AdvanceStatus(_ context.Context, from, to orders.Status, cutoff time.Time) ([]orders.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailAdvance[from]; err != nil {
		return nil, err
	}
	var out []orders.StatusChange
	for id, o := range m.orders {
		if o.Status != from || o.OrderDate.After(cutoff) {
			continue
		}
		o.Status = to
		m.orders[id] = o
		out = append(out, orders.StatusChange{OrderID: id, UserID: o.UserID, From: from, To: to, OrderDate: o.OrderDate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func restaurants(items []orders.LineItem) []orders.RestaurantRef {
	out := []orders.RestaurantRef{}
	seen := map[int64]bool{}
	for _, it := range items {
		if it.RestaurantID == 0 || seen[it.RestaurantID] {
			continue
		}
		seen[it.RestaurantID] = true
		out = append(out, orders.RestaurantRef{ID: it.RestaurantID, Name: it.RestaurantName})
	}
	return out
}
