package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"hogar360/config"
	_ "hogar360/docs"
	"hogar360/internal/adapters/auth"
	"hogar360/internal/adapters/events"
	httpdelivery "hogar360/internal/delivery/http"
	"hogar360/internal/delivery/http/controllers"
	"hogar360/internal/delivery/http/middleware"
	"hogar360/internal/domain"
	"hogar360/internal/repository/memory"
	"hogar360/internal/repository/postgres"
	"hogar360/internal/services"
)

// @title Hogar360 Visit Scheduling API
// @version 1.0
// @description Visit slot publishing and reservation engine for property listings.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	var (
		slotRepo        domain.SlotRepository
		reservationRepo domain.ReservationRepository
		properties      domain.PropertyDirectory
	)

	switch cfg.Storage {
	case "memory":
		store := memory.NewStore()
		slotRepo = store
		reservationRepo = store
		properties = store
		logger.Info("using in-memory storage")
	default:
		db, err := sql.Open("postgres", cfg.DBUrl)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		slotRepo = postgres.NewSlotRepository(db)
		reservationRepo = postgres.NewReservationRepository(db)
		properties = postgres.NewPropertyRepository(db)
		logger.Info("connected to postgres")
	}

	publisher := events.NewNoopPublisher()
	if cfg.NATSUrl != "" {
		np, err := events.NewNATSPublisher(cfg.NATSUrl)
		if err != nil {
			logger.Warn("nats unreachable, events disabled", "url", cfg.NATSUrl, "error", err)
		} else {
			defer np.Close()
			publisher = np
		}
	}

	clock := domain.SystemClock()
	slotService := services.NewSlotService(slotRepo, properties, clock, publisher, logger, cfg.ContextTimeout)
	reservationService := services.NewReservationService(reservationRepo, slotRepo, clock, publisher, logger, cfg.ContextTimeout)

	slotController := controllers.NewSlotController(logger, slotService)
	reservationController := controllers.NewReservationController(logger, reservationService)

	codec := auth.NewJWTCodec(cfg.JWTSecret)
	if cfg.Environment == "development" {
		// a ready-made bearer so curl against a fresh instance works
		if token, err := codec.Issue("seller-dev", cfg.TokenExpiry); err == nil {
			logger.Info("dev seller token", "token", token)
		}
	}
	rdb := config.NewRedisClient(cfg, logger)
	limiter := middleware.NewRateLimiter(rdb, logger, cfg.RateLimitRequests, cfg.RateLimitWindow)

	mux := httpdelivery.NewRouter(logger, slotController, reservationController, codec, limiter)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.RequestID(handler)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("starting server", "port", cfg.Port, "env", cfg.Environment, "storage", cfg.Storage)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
