package tracking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/orders"
)

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func reconcilerAt(d time.Duration, grace time.Duration) *Reconciler {
	return &Reconciler{Thresholds: orders.DefaultThresholds, Grace: grace, Now: func() time.Time { return t0.Add(d) }}
}

func TestReconcile(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		at      time.Duration
		backend string
		grace   time.Duration
		want    orders.Status
		source  string
		label   string
		left    int
	}{
		{"backend absent early", 3 * time.Minute, "", 0, orders.StatusPreparing, SourceEstimate, "Preparing", 12},
		{"backend absent mid", 20 * time.Minute, "", 0, orders.StatusOnTheWay, SourceEstimate, "Out for Delivery", 15},
		{"unknown backend value", 40 * time.Minute, "Pending", 0, orders.StatusDelivered, SourceEstimate, "Delivered", 0},
		{"backend agrees", 16 * time.Minute, "On the way", 0, orders.StatusOnTheWay, SourceBackend, "Out for Delivery", 19},
		{"backend ahead of estimate", 5 * time.Minute, "On the way", 0, orders.StatusOnTheWay, SourceBackend, "Out for Delivery", 30},
		{"cancelled always wins", 50 * time.Minute, "Cancelled", 0, orders.StatusCancelled, SourceBackend, "Cancelled", 0},
		{"delivered early wins", 2 * time.Minute, "Delivered", 0, orders.StatusDelivered, SourceBackend, "Delivered", 0},
		{"sweep lag masked", 15*time.Minute + 20*time.Second, "preparing", 0, orders.StatusOnTheWay, SourceEstimate, "Out for Delivery", 20},
		{"lag within grace", 36 * time.Minute, "On the way", 2 * time.Minute, orders.StatusDelivered, SourceEstimate, "Delivered", 0},
		{"lag beyond grace", 40 * time.Minute, "On the way", 2 * time.Minute, orders.StatusOnTheWay, SourceBackend, "Out for Delivery", 0},
	}
	for _, c := range cases {
		v := reconcilerAt(c.at, c.grace).Reconcile(Order{ID: 1, Status: c.backend, CreatedAt: t0})
		if v.Status != c.want || v.Source != c.source || v.Label != c.label || v.MinutesLeft != c.left {
			t.Errorf("%s: got status=%s source=%s label=%q left=%d", c.name, v.Status, v.Source, v.Label, v.MinutesLeft)
		}
		if v.Message == "" {
			t.Errorf("%s: empty message", c.name)
		}
	}
}

// Scenario: created at T, polled at T+36m before any sweep has run; the backend still says
// On the way while the tracking view already reports Delivered.
func TestScenario_EstimateLeadsStaleBackend(t *testing.T) {
	t.Parallel()
	v := reconcilerAt(36*time.Minute, 0).Reconcile(Order{ID: 9, Status: "On the way", CreatedAt: t0})
	if v.Backend != orders.StatusOnTheWay || v.Status != orders.StatusDelivered || v.Source != SourceEstimate {
		t.Fatalf("view=%+v", v)
	}
	if v.Final() {
		t.Fatal("estimate-only delivery must keep polling")
	}
	// once the sweep corrects the record the backend is authoritative again
	v = reconcilerAt(37*time.Minute, 0).Reconcile(Order{ID: 9, Status: "Delivered", CreatedAt: t0})
	if v.Source != SourceBackend || !v.Final() {
		t.Fatalf("view=%+v", v)
	}
}

func TestDecodeOrder_Shapes(t *testing.T) {
	t.Parallel()
	bare := `{"order_id":3,"status":"Preparing","total_amount":"21.99","order_date":"2026-10-19T12:00:00Z","items":[{"name":"Koshari","price":"9.50","quantity":2}]}`
	wrapped := `{"order":{"id":3,"created_at":"2026-10-19T12:00:00Z","order_date":"2026-10-19T11:00:00Z"}}`

	o, err := DecodeOrder([]byte(bare))
	if err != nil || o.ID != 3 || !o.CreatedAt.Equal(t0) || len(o.Items) != 1 || o.TotalAmount.String() != "21.99" {
		t.Fatalf("bare: %+v err=%v", o, err)
	}
	o, err = DecodeOrder([]byte(wrapped))
	if err != nil || o.ID != 3 || !o.CreatedAt.Equal(t0) || o.Items == nil {
		t.Fatalf("wrapped: %+v err=%v", o, err)
	}
	for _, bad := range []string{`[]`, `{"order_id":1}`, `{"order_date":"2026-10-19T12:00:00Z"}`, `nope`} {
		if _, err := DecodeOrder([]byte(bad)); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: err=%v", bad, err)
		}
	}
}

func TestDecodeOrders_Shapes(t *testing.T) {
	t.Parallel()
	one := `{"order_id":1,"order_date":"2026-10-19T12:00:00Z"}`
	for _, in := range []string{`[` + one + `]`, `{"orders":[` + one + `]}`, `{"data":[` + one + `]}`, ` [` + one + `] `} {
		got, err := DecodeOrders([]byte(in))
		if err != nil || len(got) != 1 || got[0].ID != 1 {
			t.Errorf("%s: got=%+v err=%v", in, got, err)
		}
	}
	if got, err := DecodeOrders([]byte(`{"orders":[]}`)); err != nil || len(got) != 0 {
		t.Errorf("empty: %v %v", got, err)
	}
	if _, err := DecodeOrders([]byte(`{"items":[]}`)); !errors.Is(err, ErrMalformed) {
		t.Errorf("err=%v", err)
	}
}

func TestClient(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"access denied"}`))
			return
		}
		switch r.URL.Path {
		case "/orders/1":
			_, _ = w.Write([]byte(`{"order_id":1,"status":"Preparing","order_date":"2026-10-19T12:00:00Z"}`))
		case "/orders/history":
			_, _ = w.Write([]byte(`{"data":[{"order_id":1,"order_date":"2026-10-19T12:00:00Z"}]}`))
		case "/orders":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	ctx := context.Background()
	if o, err := c.GetOrder(ctx, 1); err != nil || o.Status != "Preparing" {
		t.Fatalf("get: %+v %v", o, err)
	}
	if h, err := c.History(ctx); err != nil || len(h) != 1 {
		t.Fatalf("history: %v %v", h, err)
	}
	if _, err := c.GetOrder(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
	var apiErr *APIError
	if _, err := c.AllOrders(ctx); !errors.As(err, &apiErr) || apiErr.Code != 500 {
		t.Fatalf("all: %v", err)
	}
	if _, err := NewClient(srv.URL, "bad").GetOrder(ctx, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unauthorized: %v", err)
	}
}

type seqSource struct {
	mu      sync.Mutex
	replies []any // Order or error
	calls   int
}

func (s *seqSource) GetOrder(context.Context, int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	if err, ok := r.(error); ok {
		return Order{}, err
	}
	return r.(Order), nil
}

func TestPoller_StopsOnBackendTerminal(t *testing.T) {
	t.Parallel()
	src := &seqSource{replies: []any{
		Order{ID: 1, Status: "On the way", CreatedAt: t0},
		errors.New("connection refused"),
		Order{ID: 1, Status: "Delivered", CreatedAt: t0},
	}}
	p := &Poller{Source: src, Reconciler: reconcilerAt(36*time.Minute, 0), Interval: time.Millisecond}

	var views []View
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Run(ctx, 1, func(v View) { views = append(views, v) }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(views) != 2 || views[0].Source != SourceEstimate || !views[1].Final() {
		t.Fatalf("views=%+v", views)
	}
}

func TestPoller_NotFoundEndsRun(t *testing.T) {
	t.Parallel()
	p := &Poller{Source: &seqSource{replies: []any{ErrNotFound}}, Reconciler: reconcilerAt(0, 0), Interval: time.Millisecond}
	if err := p.Run(context.Background(), 1, func(View) { t.Fatal("unexpected view") }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestReconcile_DefaultGraceStopsMaskingAStalledSweep(t *testing.T) {
	t.Parallel()
	o := Order{ID: 4, Status: "Preparing", CreatedAt: t0}

	v := reconcilerAt(36*time.Minute, time.Minute).Reconcile(o)
	if v.Status != orders.StatusDelivered || v.Source != SourceEstimate {
		t.Fatalf("within grace: %+v", v)
	}
	v = reconcilerAt(2*time.Hour, time.Minute).Reconcile(o)
	if v.Status != orders.StatusPreparing || v.Source != SourceBackend {
		t.Fatalf("sweeper stalled for hours: %+v", v)
	}
}
