package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/bookverse/order-intake/internal/application"
	"github.com/bookverse/order-intake/internal/clock"
	"github.com/bookverse/order-intake/internal/config"
	"github.com/bookverse/order-intake/internal/conflict"
	"github.com/bookverse/order-intake/internal/fraud"
	"github.com/bookverse/order-intake/internal/inventory"
	"github.com/bookverse/order-intake/internal/kafka"
	"github.com/bookverse/order-intake/internal/logger"
	"github.com/bookverse/order-intake/internal/migrate"
	"github.com/bookverse/order-intake/internal/presentation"
	"github.com/bookverse/order-intake/internal/repository"
)

func main() {
	_ = godotenv.Load()
	logger.Init()
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Warn("config load failed", "err", err)
		os.Exit(1)
	}

	clk := clock.NewSystem()
	classifier := fraud.New(clk, fraud.WithRequireContact(cfg.RequireContact))

	// Without a DB the service runs on in-memory state only.
	var (
		store inventory.Store
		repo  application.OrderRepo
	)
	if cfg.DBString != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DBString)
		if err != nil {
			logger.Warn("pgxpool new failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			logger.Warn("db ping failed", "err", err)
			os.Exit(1)
		}
		logger.Info("db connected")

		if err := migrate.Up(cfg.DBString); err != nil {
			logger.Warn("migrations failed", "err", err)
			os.Exit(1)
		}

		store = repository.NewInventoryStore(pool)
		repo = repository.NewOrderRepository(pool)
	} else {
		logger.Warn("DB_STRING empty, using in-memory inventory")
		mem := inventory.NewMemoryStore()
		// Same demo catalog the migrations seed.
		for id, qty := range map[string]int{
			"1": 5, "2": 3, "3": 4, "4": 2, "5": 4, "6": 1, "7": 2,
		} {
			mem.SetQuantity(id, qty)
		}
		store = mem
	}

	detector := conflict.NewDetector(store)

	prod := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer prod.Close()

	svc := application.NewIntakeService(classifier, detector, repo, prod, clk)

	// Queued checkout submissions go through the same pipeline as HTTP.
	_, _ = kafka.StartConsumer(
		context.Background(),
		svc,
		kafka.ConsumerConfig{
			Brokers:         cfg.KafkaBrokers,
			Topic:           cfg.IntakeTopic,
			GroupID:         cfg.IntakeGroup,
			DeadLetterTopic: cfg.IntakeDLQ,
		},
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	h := presentation.NewOrdersHandler(svc)
	h.Register(r)

	presentation.MountStatic(r)

	addr := ":" + cfg.HTTPPort
	logger.Info("starting http", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Warn("http server crashed", "err", err)
		os.Exit(1)
	}
}
