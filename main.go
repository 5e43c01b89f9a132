package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/jetemi/ng-pycon/internal/auth"
	"github.com/jetemi/ng-pycon/internal/config"
	"github.com/jetemi/ng-pycon/internal/database/migrations"
	"github.com/jetemi/ng-pycon/internal/kafka"
	"github.com/jetemi/ng-pycon/internal/logger"
	"github.com/jetemi/ng-pycon/internal/metrics"
	"github.com/jetemi/ng-pycon/internal/paystack"
	rediswrap "github.com/jetemi/ng-pycon/internal/redis"
	"github.com/jetemi/ng-pycon/internal/tickets"
	"github.com/jetemi/ng-pycon/internal/tickets/badge"
	ticket_db "github.com/jetemi/ng-pycon/internal/tickets/db"
	"github.com/jetemi/ng-pycon/internal/tickets/ticket_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := cfg.Database.DSN()

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func healthHandler(bunDB *bun.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := bunDB.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			http.Error(w, "redis unavailable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Ticketing Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	client := &http.Client{
		Timeout: time.Second * 10,
	}

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	migrationOpts := migrations.DefaultOptions()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		migrationOpts.MigrationsDir = dir
	}
	if v, err := strconv.ParseBool(os.Getenv("AUTO_MIGRATE")); err == nil {
		migrationOpts.AutoMigrate = v
	}
	if migrationOpts.AutoMigrate {
		logger.Info("DATABASE", "Running schema migrations")
		if err := migrations.NewRunner(bunDB, migrationOpts).RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
	}

	var events tickets.EventPublisher
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		requiredTopics := []string{
			cfg.Kafka.Topics.OrderEvents,
			cfg.Kafka.Topics.AttendeeEvents,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}

		publisher := kafka.NewEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderEvents, cfg.Kafka.Topics.AttendeeEvents)
		defer publisher.Close()
		events = publisher
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		logger.Warn("KAFKA", "Kafka disabled, ticketing events will not be published")
	}

	if cfg.Paystack.SecretKey == "" {
		logger.Warn("CONFIG", "PAYSTACK_SECRET_KEY not set, payment verification will fail")
	}
	if cfg.Conference.BadgeSecret == "" {
		logger.Warn("CONFIG", "BADGE_QR_SECRET not set, using an empty badge encryption secret")
	}

	gateway := paystack.NewClient(cfg.Paystack, client, logger)
	badges := badge.NewGenerator(cfg.Conference.BadgeSecret)

	ticketService := tickets.NewTicketService(
		ticket_db.New(bunDB),
		rediswrap.NewLocker(redisClient),
		events,
		gateway,
		badges,
		cfg.Paystack,
		cfg.Conference,
		logger,
	)

	handler := ticket_api.NewHandler(ticketService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", paystack.SignatureHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthHandler(bunDB, redisClient))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public Routes ---
		r.Get("/tickets", handler.ListTicketTypes)
		r.Get("/tickets/coupons", handler.CheckCoupon)
		r.Post("/paystack/webhook", handler.PaystackWebhook)
		r.Get("/paystack/callback/{orderCode}", handler.PaystackCallback)
		logger.Info("ROUTER", "Public ticket and gateway endpoints registered")

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth))
			logger.Info("AUTH", "JWT middleware applied to protected API routes")

			r.Post("/tickets/purchase", handler.PlacePurchase)
			r.Get("/tickets/purchase-complete/{orderCode}", handler.PurchaseComplete)
			r.Get("/tickets/unassigned", handler.UnassignedOrders)
			r.Get("/tickets/{orderCode}", handler.GetOrder)
			r.Post("/tickets/{orderCode}/pay", handler.InitializePayment)
			r.Post("/tickets/{orderCode}/attendees", handler.AssignAttendees)
			logger.Info("ROUTER", "Purchase routes registered under /api/v1/tickets")

			r.Put("/attendees/{attendeeID}", handler.UpdateAttendee)
			r.Post("/attendees/{attendeeID}/transfer", handler.TransferAttendee)
			r.Get("/attendees/{attendeeID}/badge", handler.AttendeeBadge)
			logger.Info("ROUTER", "Attendee routes registered under /api/v1/attendees")

			r.Get("/paystack/validate/{orderCode}/{reference}", handler.ValidatePayment)
			logger.Info("ROUTER", "Payment validation route registered under /api/v1/paystack")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Ticketing Service running on %s", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Ticketing Service shutdown complete")
	}
}
