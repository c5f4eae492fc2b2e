package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/consumers"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/events"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/handler"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/memstore"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/repository"
	"github.com/medflow/stockcheck-backend/internal/stockcheck/service"
	"github.com/medflow/stockcheck-backend/pkg/config"
	"github.com/medflow/stockcheck-backend/pkg/database"
	"github.com/medflow/stockcheck-backend/pkg/httputil"
	"github.com/medflow/stockcheck-backend/pkg/i18n"
	"github.com/medflow/stockcheck-backend/pkg/lock"
	"github.com/medflow/stockcheck-backend/pkg/logger"
	"github.com/medflow/stockcheck-backend/pkg/messaging"
)

const serviceName = "stockcheck-service"

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Str("storage", cfg.Storage.Driver).Msg("starting Stock Check Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var (
		stores service.Stores
		db     *database.DB
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		store := memstore.New()
		stores = service.Stores{
			Tx:          store,
			Orders:      store.Orders(),
			Inspections: store.Inspections(),
			Ledger:      store.Ledger(),
			ChangeLog:   store.ChangeLog(),
			Users:       store.Users(),
		}
	default:
		if cfg.Storage.AutoMigrate {
			if err := database.Migrate(cfg.Database.MigrationURL(), log); err != nil {
				log.Fatal().Err(err).Msg("failed to run migrations")
			}
		}

		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		stores = service.Stores{
			Tx:          db,
			Orders:      repository.NewCheckOrderRepository(db),
			Inspections: repository.NewInspectionRepository(db),
			Ledger:      repository.NewLedgerRepository(db),
			ChangeLog:   repository.NewChangeLogRepository(db),
			Users:       repository.NewUserCacheRepository(db),
		}
	}

	// Inspection locks
	var locker lock.Locker
	if cfg.Redis.URL != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, &cfg.Redis, log)
	} else {
		log.Warn().Msg("MEDFLOW_REDIS_URL not set; inspection locks are local to this process")
		locker = lock.NewLocal(cfg.Redis.LockWait)
	}

	// Events. Without RabbitMQ the services run with a nil sink.
	var (
		rmq  *messaging.RabbitMQ
		sink service.EventSink
	)
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err := events.NewStockCheckEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		sink = publisher

		userConsumer, err := consumers.NewUserEventConsumer(rmq, stores.Users, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create user event consumer")
		}
		if err := userConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start user event consumer")
		}
	} else {
		log.Warn().Msg("MEDFLOW_RABBITMQ_URL not set; events are disabled")
	}

	// Services
	checkOrderService := service.NewCheckOrderService(stores, service.NewReconciler(stores, log), sink, cfg.RabbitMQ.PublishTimeout, log)
	inspectionService := service.NewInspectionService(stores, locker, log)
	ledgerService := service.NewLedgerService(stores.Ledger)

	handlers := handler.Handlers{
		CheckOrders: handler.NewCheckOrderHandler(checkOrderService, inspectionService, log),
		Inspections: handler.NewInspectionHandler(inspectionService, log),
		Locations:   handler.NewLocationHandler(ledgerService, log),
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)
	r.Use(httputil.ActorMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
			"storage": cfg.Storage.Driver,
		}
		if db != nil {
			status["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	r.Route(handler.BasePath, handlers.Routes)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let in-flight event deliveries finish before the broker connection closes
	checkOrderService.Wait()

	log.Info().Msg("server stopped")
}
