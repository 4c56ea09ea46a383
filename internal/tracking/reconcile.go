package tracking

import (
	"fmt"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/orders"
)

const (
	SourceBackend  = "backend"
	SourceEstimate = "estimate"
)

// View is what a tracking screen shows for one order.
type View struct {
	OrderID     int64
	Status      orders.Status
	Label       string
	Message     string
	MinutesLeft int
	Source      string
	// Backend is empty when the API reported nothing recognizable.
	Backend   orders.Status
	Estimated orders.Status
	Elapsed   time.Duration
}

// Final reports whether polling can stop: the backend itself says the order is done.
func (v View) Final() bool {
	return v.Source == SourceBackend && v.Status.Terminal()
}

// Reconciler prefers the backend status and falls back to a time-based estimate that
// masks the delay before the next server sweep.
type Reconciler struct {
	Thresholds orders.Thresholds
	// Grace bounds how long after a threshold the estimate may lead the backend. Zero means no bound.
	Grace time.Duration
	Now   func() time.Time
}

func NewReconciler(th orders.Thresholds, grace time.Duration) *Reconciler {
	return &Reconciler{Thresholds: th, Grace: grace, Now: time.Now}
}

func (r *Reconciler) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Reconciler) Reconcile(o Order) View {
	age := r.now().Sub(o.CreatedAt)
	if age < 0 {
		age = 0
	}
	est := r.Thresholds.Estimate(age)
	v := View{OrderID: o.ID, Estimated: est, Elapsed: age}

	backend, err := orders.ParseStatus(o.Status)
	switch {
	case err != nil:
		v.Status, v.Source = est, SourceEstimate
	case backend.Terminal():
		v.Backend = backend
		v.Status, v.Source = backend, SourceBackend
	case est.Rank() > backend.Rank() && r.withinGrace(est, age):
		v.Backend = backend
		v.Status, v.Source = est, SourceEstimate
	default:
		v.Backend = backend
		v.Status, v.Source = backend, SourceBackend
	}

	v.Label = Label(v.Status)
	v.Message = message(v.Status)
	v.MinutesLeft = r.minutesLeft(v.Status, age)
	return v
}

func (r *Reconciler) withinGrace(est orders.Status, age time.Duration) bool {
	if r.Grace <= 0 {
		return true
	}
	return age-r.Thresholds.Reached(est) <= r.Grace
}

// minutesLeft counts down to the end of s's stage with floored elapsed minutes.
func (r *Reconciler) minutesLeft(s orders.Status, age time.Duration) int {
	if s == r.Thresholds.Estimate(age) {
		return r.Thresholds.MinutesLeft(age)
	}
	var end time.Duration
	switch s {
	case orders.StatusPreparing:
		end = r.Thresholds.Preparing
	case orders.StatusOnTheWay:
		end = r.Thresholds.Total()
	default:
		return 0
	}
	left := int(end/time.Minute) - int(age/time.Minute)
	if left < 0 {
		return 0
	}
	return left
}

// Label is the customer-facing name of a status.
func Label(s orders.Status) string {
	if s == orders.StatusOnTheWay {
		return "Out for Delivery"
	}
	return string(s)
}

func message(s orders.Status) string {
	switch s {
	case orders.StatusPreparing:
		return "The restaurant is preparing your food."
	case orders.StatusOnTheWay:
		return "Your order is on the way!"
	case orders.StatusDelivered:
		return "Your order has been delivered. Enjoy your meal!"
	case orders.StatusCancelled:
		return "This order was cancelled."
	}
	return fmt.Sprintf("Order status: %s", s)
}
