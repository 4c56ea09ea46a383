package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-food-delivery/internal/auth"
	"github.com/ariefcatur/go-food-delivery/internal/catalog"
	"github.com/ariefcatur/go-food-delivery/internal/config"
	"github.com/ariefcatur/go-food-delivery/internal/httpx"
	kafkax "github.com/ariefcatur/go-food-delivery/internal/kafka"
	"github.com/ariefcatur/go-food-delivery/internal/logx"
	"github.com/ariefcatur/go-food-delivery/internal/orders"
	"github.com/ariefcatur/go-food-delivery/internal/postgres"
	"github.com/ariefcatur/go-food-delivery/internal/redisx"
	"github.com/ariefcatur/go-food-delivery/internal/reviews"
	"github.com/ariefcatur/go-food-delivery/internal/sales"
	"github.com/ariefcatur/go-food-delivery/internal/users"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if err := errors.Join(cfg.Validate(), cfg.RequireSecret()); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("db migrate", "error", err)
		os.Exit(1)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer, one for every topic
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	svc := &orders.Service{
		Store:    &orders.Repo{DB: db},
		Cache:    &redisx.StatusCache{RDB: rdb},
		Events:   prod,
		Idem:     &redisx.Idempotency{RDB: rdb},
		Log:      log.With("component", "orders"),
		Producer: cfg.ServiceName,
	}
	th := orders.Thresholds{Preparing: cfg.PreparingTime, Delivery: cfg.DeliveryTime}
	sweeper := orders.NewSweeper(svc, th, cfg.SweepInterval, orders.WithLock(redisx.NewSweepLock(rdb)))
	sweeper.Start(ctx)

	router := httpx.NewRouter()
	httpx.Mount(router,
		&httpx.UsersHandler{
			Svc:    &users.Service{Store: &users.Repo{DB: db}, Passwords: auth.Passwords{Cost: cfg.BcryptCost}, Tokens: tokens},
			Tokens: tokens,
			Feed:   &redisx.Feed{RDB: rdb},
			Log:    log,
		},
		&httpx.CatalogHandler{Store: &catalog.Repo{DB: db}, Tokens: tokens, Log: log},
		&httpx.ReviewsHandler{Svc: &reviews.Service{Store: &reviews.Repo{DB: db}}, Tokens: tokens, Log: log},
		&httpx.SalesHandler{Store: &sales.Repo{DB: db}, Tokens: tokens, Log: log},
		&httpx.OrdersHandler{Svc: svc, Tokens: tokens, Log: log},
	)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "sweep_interval", cfg.SweepInterval.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	sweeper.Stop()
	prod.Close() // flush inbox, then close the writer
	cancel()
	prod.WaitClosed()
}
