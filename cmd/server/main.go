/*
main.go - Application entry point

PURPOSE:
  Starts the One Earth booking engine: traveler checkout plus the provider
  dashboard API.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment)
  2. Build the logger
  3. Open the configured booking store
  4. Connect the event publisher, if any
  5. Wire ledger, checkout and HTTP handlers
  6. Serve until SIGINT/SIGTERM, then shut down gracefully

EXAMPLES:
  # In-memory store, text logs
  STORE_DRIVER=memory LOG_FORMAT=text ./server

  # SQLite file, events to Kafka
  SQLITE_PATH=./data/bookings.db EVENTS_DRIVER=kafka KAFKA_BROKERS=localhost:9092 ./server

SEE ALSO:
  - config/config.go: All environment keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oneearth/travel-engine/api"
	"github.com/oneearth/travel-engine/booking"
	"github.com/oneearth/travel-engine/booking/store"
	"github.com/oneearth/travel-engine/checkout"
	"github.com/oneearth/travel-engine/config"
	"github.com/oneearth/travel-engine/events/amqp"
	"github.com/oneearth/travel-engine/events/kafka"
	"github.com/oneearth/travel-engine/logger"
	"github.com/oneearth/travel-engine/store/mongo"
	"github.com/oneearth/travel-engine/store/redis"
	"github.com/oneearth/travel-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "travel-engine",
	})
	slog.SetDefault(log)

	ctx := context.Background()

	bookingStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("failed to open booking store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		log.Error("failed to connect event publisher", "driver", cfg.EventsDriver, "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	ledger := booking.NewLedger(bookingStore, booking.LedgerConfig{
		Transitions: cfg.Transitions,
		Basis:       cfg.AccommodationBasis,
		MaxBookings: cfg.RetentionMax,
		Publisher:   publisher,
		Logger:      log,
	})
	co := checkout.NewService(ledger, checkout.SimulatedGateway{Delay: cfg.PaymentDelay}, log)
	handler := api.NewHandler(ledger, co, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler, cfg.CORSAllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "store", cfg.StoreDriver, "events", cfg.EventsDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (booking.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return store.NewMemory(), func() {}, nil
	case config.StoreRedis:
		s, err := redis.New(ctx, redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.StoreMongo:
		s, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoConnTimeout)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil
	default:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

func openPublisher(cfg *config.Config, log *slog.Logger) (booking.Publisher, func(), error) {
	var (
		p   booking.Publisher
		c   io.Closer
		err error
	)
	switch cfg.EventsDriver {
	case config.EventsKafka:
		var kp *kafka.Publisher
		kp, err = kafka.NewPublisher(kafka.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic}, log)
		p, c = kp, kp
	case config.EventsAMQP:
		var ap *amqp.Publisher
		ap, err = amqp.Dial(cfg.AMQPURL, cfg.AMQPQueue)
		p, c = ap, ap
	default:
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = c.Close() }, nil
}
