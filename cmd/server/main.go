package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"busbooking/internal/app"
	"busbooking/internal/config"
	"busbooking/internal/handler"
	internalRedis "busbooking/internal/redis"
	"busbooking/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	var db *sql.DB
	if cfg.Database.Enabled {
		db, err = app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("Connected to PostgreSQL")
	} else {
		log.Println("Database disabled, bookings are kept in memory")
	}

	// Initialize Redis with New Relic instrumentation.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Connected to Redis")
	}

	// Background loops stop with the process.
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Wire dependencies.
	server, err := wireServer(runCtx, db, redisClient, nrApp, cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, error) {
	// Initialize Redis stores (optional).
	var lockStore internalRedis.LockStoreInterface
	var cacheStore internalRedis.CacheStoreInterface
	var idempotencyStore internalRedis.IdempotencyStoreInterface
	if redisClient != nil {
		lockStore = internalRedis.NewLockStore(redisClient)
		cacheStore = internalRedis.NewCacheStore(redisClient)
		idempotencyStore = internalRedis.NewIdempotencyStore(redisClient)
	}

	// Initialize repositories.
	catalogStore, err := app.NewCatalogStore(cfg.Catalog, db)
	if err != nil {
		return nil, err
	}
	bookingRepo := app.NewBookingRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	inventory := service.NewInventoryRegistry(cfg.Booking.ReserveTimeout)
	catalogService := service.NewCatalogService(catalogStore, inventory, cacheStore, lockStore, notificationService, cfg.Booking.CatalogLockTTL)
	workflow := service.NewBookingWorkflow(catalogService, inventory, bookingRepo, cacheStore, notificationService, cfg.Booking.BookingCacheTTL)
	sessions := service.NewSessionManager(cfg.Booking.SessionTTL)

	// Load the catalog, then re-apply seats held by stored bookings.
	if err := catalogService.Refresh(ctx); err != nil {
		log.Printf("[CATALOG] Initial load failed, starting degraded: %v", err)
	}
	reserved, err := bookingRepo.ListReservedSeats(ctx)
	if err != nil {
		log.Printf("[BOOKING] Could not restore reserved seats: %v", err)
	} else if err := inventory.Restore(ctx, reserved); err != nil {
		log.Printf("[BOOKING] Could not restore reserved seats: %v", err)
	}

	go catalogService.RefreshEvery(ctx, cfg.Catalog.RefreshInterval)
	go sessions.SweepEvery(ctx, cfg.Booking.SessionSweep)

	// Initialize handlers.
	sessionHandler := handler.NewSessionHandler(sessions, workflow, catalogService)
	bookingHandler := handler.NewBookingHandler(workflow)
	catalogHandler := handler.NewCatalogHandler(catalogService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		SessionHandler: sessionHandler,
		BookingHandler: bookingHandler,
		CatalogHandler: catalogHandler,
		Idempotency:    idempotencyStore,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}
