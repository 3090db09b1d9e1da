package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/luxsuv-hotel/pkg/cache"
	"github.com/diagnosis/luxsuv-hotel/pkg/clock"
	"github.com/diagnosis/luxsuv-hotel/pkg/config"
	"github.com/diagnosis/luxsuv-hotel/pkg/database"
	"github.com/diagnosis/luxsuv-hotel/pkg/events"
	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
	mw "github.com/diagnosis/luxsuv-hotel/pkg/middleware"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/handlers"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/repository"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/service"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	var routeMW handlers.RouteMiddleware

	// Login rate limiting is backed by Postgres so it holds across replicas
	if cfg.RateLimit.Enabled {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}

		limiter := mw.NewRateLimiter(mw.NewPGRateLimitStore(pool), mw.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		})
		routeMW.Login = limiter.Middleware()
	}

	if cfg.Redis.Enabled {
		client, err := cache.Connect(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		store := cache.NewRedisStore(client, "hotel:")
		routeMW.CreateReservation = mw.IdempotencyMiddleware(store, cfg.Redis.IdempotencyTTL)
	}

	// Initialize core
	hotel := service.NewHotel(service.Options{
		Name:      cfg.Hotel.Name,
		Address:   cfg.Hotel.Address,
		Clock:     clock.System(),
		Publisher: eventBus,
		Logger:    logger.Default().With("service", "reservations"),
	})

	employees := repository.NewEmployeeDirectory()
	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPasswordHash != "" {
		admin := domain.NewAdmin("", "Administrator")
		admin.Username = cfg.Auth.AdminUsername
		if _, err := employees.CreateWithHash(admin, cfg.Auth.AdminPasswordHash); err != nil {
			logger.Error("Failed to seed admin", "error", err)
			os.Exit(1)
		}
		logger.Info("Seeded admin account", "username", admin.Username)
	} else {
		logger.Warn("No admin account configured; set ADMIN_USERNAME and ADMIN_PASSWORD_HASH")
	}

	authService := service.NewAuthService(employees, cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	h := handlers.New(hotel, authService, cfg.Auth.JWTSecret)

	// Setup router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("reservations"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.CORS(cfg.Server.AllowedOrigins))
	r.Use(mw.Health)
	r.Use(mw.Timeout(cfg.Server.RequestTimeout))

	r.Mount("/v1", h.Routes(routeMW))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting reservations service", "port", cfg.Server.Port, "hotel", hotel.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down reservations service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Reservations service error", "error", err)
		os.Exit(1)
	}
}
