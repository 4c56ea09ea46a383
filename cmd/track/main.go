// Command track follows one order from the terminal, printing the reconciled status on
// every poll until the backend reports it delivered or cancelled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/config"
	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/ariefcatur/go-food-delivery/internal/tracking"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	orderID := flag.Int64("order", 0, "order id to follow")
	token := flag.String("token", os.Getenv("API_TOKEN"), "bearer token (defaults to $API_TOKEN)")
	base := flag.String("base", cfg.APIBaseURL, "API base URL")
	interval := flag.Duration("interval", cfg.PollInterval, "poll interval")
	grace := flag.Duration("grace", cfg.ReconcileGrace, "how long the estimate may lead the backend (0 = unbounded)")
	flag.Parse()

	log := logx.New(cfg.LogLevel, "text", "track")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if *orderID <= 0 || *interval <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p := &tracking.Poller{
		Source:     tracking.NewClient(*base, *token),
		Reconciler: tracking.NewReconciler(orders.Thresholds{Preparing: cfg.PreparingTime, Delivery: cfg.DeliveryTime}, *grace),
		Interval:   *interval,
		Log:        log,
	}
	err := p.Run(ctx, *orderID, func(v tracking.View) {
		fmt.Printf("%s  order #%d  %-16s %2d min left  (%s)  %s\n",
			time.Now().Format("15:04:05"), v.OrderID, v.Label, v.MinutesLeft, v.Source, v.Message)
	})
	if err != nil && ctx.Err() == nil {
		log.Error("tracking stopped", "order_id", *orderID, "error", err)
		os.Exit(1)
	}
}
