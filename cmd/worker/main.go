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
	"github.com/zvrva/transferbooking/internal/email"
	"github.com/zvrva/transferbooking/internal/kafka"
	"github.com/zvrva/transferbooking/internal/kv"
	"github.com/zvrva/transferbooking/internal/logger"
	"github.com/zvrva/transferbooking/internal/store"
	"github.com/zvrva/transferbooking/internal/token"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	kvStore := kv.NewStore(cfg.Redis)
	defer kvStore.Close()

	recordStore := store.NewRetryingStore(
		store.NewPGBookingStore(pool),
		cfg.Booking.StoreRetryAttempts,
		time.Duration(cfg.Booking.StoreRetryBackoffMs)*time.Millisecond,
		log,
	)
	tokenSvc := token.NewService(kvStore, recordStore,
		time.Duration(cfg.Booking.TokenAuditTTLMinutes)*time.Minute, log)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log)
	defer consumer.Close()

	sender := email.NewSender(cfg.SMTP, cfg.HTTP.PublicBaseURL, log)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
			// Mail is best-effort; a failed send never reaches back
			// into booking state.
			if err := sender.Send(event); err != nil {
				log.WithError(err).WithField("transaction_id", event.TransactionID).
					Error("notification send failed")
			}
			return nil
		}); err != nil {
			log.WithError(err).Warn("consumer stopped")
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.TokenSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			removed, err := tokenSvc.SweepDecided(ctx)
			if err != nil {
				log.WithError(err).Warn("token sweep failed")
				continue
			}
			if removed > 0 {
				log.WithField("removed", removed).Info("swept tokens of decided bookings")
			}
		case s := <-sig:
			log.WithField("signal", s.String()).Info("shutting down worker")
			return
		}
	}
}
