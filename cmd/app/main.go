package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/zvrva/transferbooking/config"
	"github.com/zvrva/transferbooking/internal/auth"
	"github.com/zvrva/transferbooking/internal/bootstrap"
	"github.com/zvrva/transferbooking/internal/kafka"
	"github.com/zvrva/transferbooking/internal/kv"
	"github.com/zvrva/transferbooking/internal/logger"
	"github.com/zvrva/transferbooking/internal/ratelimit"
	"github.com/zvrva/transferbooking/internal/service/booking"
	"github.com/zvrva/transferbooking/internal/store"
	"github.com/zvrva/transferbooking/internal/token"
	"github.com/zvrva/transferbooking/internal/txid"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	kvStore := kv.NewStore(cfg.Redis)
	defer kvStore.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	recordStore := store.NewRetryingStore(
		store.NewPGBookingStore(pool),
		cfg.Booking.StoreRetryAttempts,
		time.Duration(cfg.Booking.StoreRetryBackoffMs)*time.Millisecond,
		log,
	)

	tokenSvc := token.NewService(kvStore, recordStore,
		time.Duration(cfg.Booking.TokenAuditTTLMinutes)*time.Minute, log)

	opts := []booking.BookingServiceOption{booking.WithAuditTopic(cfg.Kafka.AuditTopic)}
	if cfg.Database.BackupName != "" {
		backupPool, err := pgxpool.New(ctx, cfg.Database.BackupDSN())
		if err != nil {
			log.WithError(err).Warn("backup store unavailable, mirroring disabled")
		} else {
			defer backupPool.Close()
			opts = append(opts, booking.WithBackupStore(store.NewPGBookingStore(backupPool)))
		}
	}

	bookingSvc := booking.NewBookingService(
		recordStore,
		kvStore,
		tokenSvc,
		producer,
		txid.NewComputer(cfg.Booking.IDStrategy),
		cfg.Kafka.NotificationsTopic,
		time.Duration(cfg.Booking.LockTTLSeconds)*time.Second,
		log,
		opts...,
	)

	authenticator := auth.New(cfg.Auth, log)
	limiter := ratelimit.NewLimiter(kvStore, log)

	if err := bootstrap.Run(ctx, cfg, bookingSvc, authenticator, limiter, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
