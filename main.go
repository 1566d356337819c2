package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/auth"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/booking"
	booking_api "github.com/VeroC12-hub/boujee-events-sub002/internal/booking/api"
	booking_db "github.com/VeroC12-hub/boujee-events-sub002/internal/booking/db"
	rediswrap "github.com/VeroC12-hub/boujee-events-sub002/internal/booking/redis"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/checkin"
	checkin_api "github.com/VeroC12-hub/boujee-events-sub002/internal/checkin/api"
	checkin_db "github.com/VeroC12-hub/boujee-events-sub002/internal/checkin/db"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/config"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/database/migrations"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/kafka"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/logger"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/notification"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/tickets/qr"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.MigrateUp(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
	}
	defer runner.Close()

	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer kafkaProducer.Close()
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.RequiredTopics()); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	}

	codec := qr.NewCodec()
	issuer := tickets.NewIssuer(codec)
	notifier := notification.NewNotifier(kafkaProducer, log)

	bookingService := booking.NewService(
		&booking_db.DB{Bun: bunDB},
		rediswrap.NewRedis(redisClient),
		issuer,
		kafkaProducer,
		notifier,
		log,
	)

	checkInService := checkin.NewService(
		&checkin_db.DB{Bun: bunDB},
		codec,
		kafkaProducer,
		notifier,
		log,
	)

	bookingHandler := booking_api.NewHandler(bookingService, log)
	checkInHandler := checkin_api.NewHandler(checkInService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/api/events/{eventId}/capacity", bookingHandler.GetEventCapacity)

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.OIDCIssuer))

		r.Route("/api/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.CreateBooking)
			r.Get("/", bookingHandler.ListBookings)
			r.Get("/{bookingId}", bookingHandler.GetBooking)
			r.Delete("/{bookingId}", bookingHandler.CancelBooking)
		})
		log.Info("ROUTER", "Booking routes registered under /api/bookings")

		r.Route("/api/scan", func(r chi.Router) {
			r.Post("/validate", checkInHandler.Validate)
			r.Post("/checkin", checkInHandler.CheckIn)
		})
		log.Info("ROUTER", "Scan routes registered under /api/scan")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Booking Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Booking Service shutdown complete")
	}
}
