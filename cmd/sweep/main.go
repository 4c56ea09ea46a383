// Command sweep runs one status sweep and exits. Use it to catch up orders left behind while
// no API instance was running.
package main

import (
	"context"
	"os"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/config"
	kafkax "github.com/ariefcatur/go-food-delivery/internal/kafka"
	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/ariefcatur/go-food-delivery/internal/postgres"
	"github.com/ariefcatur/go-food-delivery/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logx.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName+"-sweep")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	svc := &orders.Service{
		Store:    &orders.Repo{DB: db},
		Cache:    &redisx.StatusCache{RDB: rdb},
		Events:   prod,
		Log:      log,
		Producer: cfg.ServiceName + "-sweep",
	}
	th := orders.Thresholds{Preparing: cfg.PreparingTime, Delivery: cfg.DeliveryTime}
	res, err := orders.NewSweeper(svc, th, cfg.SweepInterval, orders.WithLock(redisx.NewSweepLock(rdb))).SweepOnce(ctx)

	prod.Close()
	prod.WaitClosed()
	if err != nil {
		log.Error("sweep failed", "on_the_way", len(res.OnTheWay), "delivered", len(res.Delivered), "error", err)
		os.Exit(1)
	}
	log.Info("sweep complete", "on_the_way", len(res.OnTheWay), "delivered", len(res.Delivered), "skipped", res.Skipped)
}
