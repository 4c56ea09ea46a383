package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-food-delivery/internal/config"
	kafkax "github.com/ariefcatur/go-food-delivery/internal/kafka"
	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/ariefcatur/go-food-delivery/internal/notify"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/ariefcatur/go-food-delivery/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logx.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName+"-notifier")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Redis: rdb,
		Feed:  &redisx.Feed{RDB: rdb},
		Name:  cfg.NotifierGroup,
		Log:   log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicOrderStatusChanged, cfg.NotifierWorkers, log)
	log.Info("notifier consumer started", "group", cfg.NotifierGroup, "topic", orders.TopicOrderStatusChanged, "workers", cfg.NotifierWorkers)
	if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer exit", "error", err)
		os.Exit(1)
	}
	log.Info("notifier stopped")
}
