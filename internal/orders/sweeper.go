package orders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Sweeper advances orders through Preparing -> On the way -> Delivered by age.
// It is owned by the server lifecycle: Start on boot, Stop on shutdown.
type Sweeper struct {
	svc      *Service
	th       Thresholds
	interval time.Duration
	lock     Locker
	now      func() time.Time
	log      *slog.Logger

	mu sync.Mutex // one sweep at a time

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type SweeperOption func(*Sweeper)

// WithLock makes each tick conditional on acquiring a shared lock.
func WithLock(l Locker) SweeperOption { return func(s *Sweeper) { s.lock = l } }

func WithClock(now func() time.Time) SweeperOption { return func(s *Sweeper) { s.now = now } }

func NewSweeper(svc *Service, th Thresholds, interval time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{svc: svc, th: th, interval: interval, now: time.Now, log: svc.log().With("component", "sweeper")}
	for _, o := range opts {
		o(s)
	}
	return s
}

type SweepResult struct {
	OnTheWay  []StatusChange
	Delivered []StatusChange
	// Skipped is set when another instance holds the sweep lock.
	Skipped bool
}

func (r SweepResult) Changed() int { return len(r.OnTheWay) + len(r.Delivered) }

// SweepOnce runs both bulk updates in order, so an order old enough for both moves twice in one tick.
// A failure in the second update keeps the first one's changes, which are already committed.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res SweepResult
	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx, s.interval*9/10)
		if err != nil {
			return res, fmt.Errorf("sweep lock: %w", err)
		}
		if !ok {
			res.Skipped = true
			return res, nil
		}
	}

	onTheWayCut, deliveredCut := s.th.Cutoffs(s.now())

	moved, err := s.svc.Store.AdvanceStatus(ctx, StatusPreparing, StatusOnTheWay, onTheWayCut)
	if err != nil {
		return res, fmt.Errorf("advance %s: %w", StatusPreparing, err)
	}
	res.OnTheWay = moved
	s.svc.applied(ctx, moved, ReasonSweep, "")

	moved, err = s.svc.Store.AdvanceStatus(ctx, StatusOnTheWay, StatusDelivered, deliveredCut)
	if err != nil {
		return res, fmt.Errorf("advance %s: %w", StatusOnTheWay, err)
	}
	res.Delivered = moved
	s.svc.applied(ctx, moved, ReasonSweep, "")
	return res, nil
}

// Start runs one sweep immediately, then one per interval until Stop or ctx is done.
// Calling Start on a running sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop halts the ticker and waits for an in-flight sweep to finish. The sweeper can be started again.
func (s *Sweeper) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(s.interval)
	defer t.Stop()

	s.log.Info("order sweeper started", "interval", s.interval,
		"preparing", s.th.Preparing, "delivery", s.th.Delivery)
	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("order sweeper stopped")
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

// tick never propagates failure; the next tick retries, which is safe because sweeps are idempotent.
func (s *Sweeper) tick(ctx context.Context) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.interval)
	defer cancel()

	res, err := s.SweepOnce(tctx)
	if err != nil {
		s.log.Error("order sweep failed", "error", err,
			"on_the_way", len(res.OnTheWay), "delivered", len(res.Delivered))
		return
	}
	if res.Skipped {
		s.log.Debug("order sweep skipped, lock held elsewhere")
		return
	}
	if res.Changed() > 0 {
		s.log.Info("order sweep advanced orders", "on_the_way", len(res.OnTheWay), "delivered", len(res.Delivered))
	}
}
