package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/catalog"
	"github.com/ariefcatur/go-food-delivery/internal/reviews"
	"github.com/ariefcatur/go-food-delivery/internal/sales"
	"github.com/shopspring/decimal"
)

type stubCatalog struct {
	mu          sync.Mutex
	restaurants map[int64]catalog.Restaurant
	items       map[int64]catalog.Item
}

func (s *stubCatalog) Restaurants(context.Context) ([]catalog.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []catalog.Restaurant{}
	for _, r := range s.restaurants {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubCatalog) Restaurant(_ context.Context, id int64) (catalog.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.restaurants[id]
	if !ok {
		return catalog.Restaurant{}, catalog.ErrNotFound
	}
	return r, nil
}

func (s *stubCatalog) Items(_ context.Context, restaurantID int64) ([]catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []catalog.Item{}
	for _, it := range s.items {
		if it.RestaurantID == restaurantID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *stubCatalog) CreateRestaurant(_ context.Context, r catalog.Restaurant) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.restaurants) + 1)
	s.restaurants[r.ID] = r
	return r.ID, nil
}

func (s *stubCatalog) UpdateRestaurant(_ context.Context, r catalog.Restaurant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[r.ID]; !ok {
		return catalog.ErrNotFound
	}
	s.restaurants[r.ID] = r
	return nil
}

func (s *stubCatalog) DeleteRestaurant(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.restaurants, id)
	return nil
}

func (s *stubCatalog) CreateItem(_ context.Context, it catalog.Item) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.restaurants[it.RestaurantID]; !ok {
		return 0, catalog.ErrNotFound
	}
	it.ID = int64(len(s.items) + 1)
	s.items[it.ID] = it
	return it.ID, nil
}

func (s *stubCatalog) UpdateItem(_ context.Context, it catalog.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return catalog.ErrNotFound
	}
	s.items[it.ID] = it
	return nil
}

func (s *stubCatalog) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type stubSales struct{ gotDay, gotMonth string }

func (s *stubSales) Daily(_ context.Context, day string) ([]sales.Period, error) {
	s.gotDay = day
	return []sales.Period{{Period: "2026-10-19", TotalSales: decimal.RequireFromString("43.98"), OrdersCount: 2}}, nil
}

func (s *stubSales) Monthly(_ context.Context, month string) ([]sales.Period, error) {
	s.gotMonth = month
	return []sales.Period{}, nil
}

type stubReviews struct{ inserted []reviews.Review }

func (s *stubReviews) OrderOwner(_ context.Context, id int64) (int64, bool, error) {
	return 7, id == 3, nil
}

func (s *stubReviews) Insert(_ context.Context, r reviews.Review) (int64, error) {
	s.inserted = append(s.inserted, r)
	return int64(len(s.inserted)), nil
}

func (s *stubReviews) Ratings(context.Context) ([]reviews.RestaurantRating, error) {
	return []reviews.RestaurantRating{}, nil
}

type adminFixture struct {
	cat    *stubCatalog
	sales  *stubSales
	revs   *stubReviews
	tokens *auth.Tokens
	srv    http.Handler
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		cat: &stubCatalog{
			restaurants: map[int64]catalog.Restaurant{1: {ID: 1, Name: "Abou Tarek", Status: "open"}},
			items:       map[int64]catalog.Item{},
		},
		sales:  &stubSales{},
		revs:   &stubReviews{},
		tokens: auth.NewTokens("test-secret", time.Hour),
	}
	r := NewRouter()
	Mount(r,
		&CatalogHandler{Store: f.cat, Tokens: f.tokens},
		&SalesHandler{Store: f.sales, Tokens: f.tokens},
		&ReviewsHandler{Svc: &reviews.Service{Store: f.revs}, Tokens: f.tokens},
	)
	f.srv = r
	return f
}

func (f *adminFixture) do(t *testing.T, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, err := f.tokens.Issue(auth.Identity{UserID: 7, Role: role})
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func TestCatalog_PublicReads(t *testing.T) {
	t.Parallel()
	f := newAdminFixture()
	if rec := f.do(t, http.MethodGet, "/restaurants/1", "", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Abou Tarek") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if rec := f.do(t, http.MethodGet, "/restaurants/9", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing restaurant status=%d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/restaurants/1/items", "", ""); rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("items status=%d body=%s", rec.Code, rec.Body)
	}
}

func TestCatalog_AdminWrites(t *testing.T) {
	t.Parallel()
	f := newAdminFixture()
	item := `{"restaurant_id":1,"name":"Koshari","price":"9.50"}`

	cases := []struct {
		name, method, path, role, body string
		want                           int
	}{
		{"no token", http.MethodPost, "/admin/item", "", item, http.StatusUnauthorized},
		{"customer", http.MethodPost, "/admin/item", auth.RoleCustomer, item, http.StatusForbidden},
		{"create item", http.MethodPost, "/admin/item", auth.RoleAdmin, item, http.StatusCreated},
		{"zero price", http.MethodPost, "/admin/item", auth.RoleAdmin, `{"restaurant_id":1,"name":"x","price":"0"}`, http.StatusBadRequest},
		{"unknown restaurant", http.MethodPost, "/admin/item", auth.RoleAdmin, `{"restaurant_id":5,"name":"x","price":"1"}`, http.StatusNotFound},
		{"bad restaurant status", http.MethodPost, "/admin/restaurant", auth.RoleAdmin, `{"name":"Felfela","status":"asleep"}`, http.StatusBadRequest},
		{"create restaurant", http.MethodPost, "/admin/restaurant", auth.RoleAdmin, `{"name":"Felfela"}`, http.StatusCreated},
		{"update missing", http.MethodPut, "/admin/restaurant/42", auth.RoleAdmin, `{"name":"Felfela"}`, http.StatusNotFound},
		{"delete item", http.MethodDelete, "/admin/item/1", auth.RoleAdmin, "", http.StatusOK},
	}
	for _, c := range cases {
		if rec := f.do(t, c.method, c.path, c.role, c.body); rec.Code != c.want {
			t.Fatalf("%s: status=%d body=%s", c.name, rec.Code, rec.Body)
		}
	}
	if r := f.cat.restaurants[2]; r.Status != "open" {
		t.Fatalf("restaurant default status=%q", r.Status)
	}
}

func TestCatalog_CreatedItemDefaultsAvailable(t *testing.T) {
	t.Parallel()
	f := newAdminFixture()
	rec := f.do(t, http.MethodPost, "/admin/item", auth.RoleAdmin, `{"restaurant_id":1,"name":"Koshari","price":"9.50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if it := f.cat.items[1]; !it.Availability || !it.Price.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("item=%+v", it)
	}
}

func TestSales_PeriodValidation(t *testing.T) {
	t.Parallel()
	f := newAdminFixture()
	if rec := f.do(t, http.MethodGet, "/sales/daily?date=19-10-2026", auth.RoleAdmin, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status=%d", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/sales/daily?date=2026-10-19", auth.RoleAdmin, "")
	if rec.Code != http.StatusOK || f.sales.gotDay != "2026-10-19" {
		t.Fatalf("status=%d day=%q", rec.Code, f.sales.gotDay)
	}
	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || len(out) != 1 || out[0]["total_sales"] != "43.98" {
		t.Fatalf("body=%s err=%v", rec.Body, err)
	}
	if rec := f.do(t, http.MethodGet, "/sales/monthly", auth.RoleCustomer, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("customer status=%d", rec.Code)
	}
}

func TestReviews_Submit(t *testing.T) {
	t.Parallel()
	f := newAdminFixture()
	cases := []struct {
		name, path, body string
		want             int
	}{
		{"averaged", "/restaurants/1/review", `{"item_ratings":{"1":4,"2":5},"comment":"tasty"}`, http.StatusOK},
		{"alias route", "/reviews/1/review", `{"item_ratings":{"1":3}}`, http.StatusOK},
		{"no valid rating", "/restaurants/1/review", `{"item_ratings":{"1":0}}`, http.StatusBadRequest},
		{"unknown order", "/restaurants/1/review", `{"order_id":99,"item_ratings":{"1":3}}`, http.StatusBadRequest},
		{"owned order", "/restaurants/1/review", `{"order_id":3,"item_ratings":{"1":3}}`, http.StatusOK},
	}
	for _, c := range cases {
		if rec := f.do(t, http.MethodPost, c.path, auth.RoleCustomer, c.body); rec.Code != c.want {
			t.Fatalf("%s: status=%d body=%s", c.name, rec.Code, rec.Body)
		}
	}
	if len(f.revs.inserted) != 3 || f.revs.inserted[0].Rating != 5 {
		t.Fatalf("inserted=%+v", f.revs.inserted)
	}
	if rec := f.do(t, http.MethodPost, "/restaurants/1/review", "", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status=%d", rec.Code)
	}
}
