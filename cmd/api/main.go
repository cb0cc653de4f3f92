package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/prodlast/cospace-backend/internal/http/handlers"
	httpmw "github.com/prodlast/cospace-backend/internal/http/middleware"
	"github.com/prodlast/cospace-backend/internal/repo/postgres"
	"github.com/prodlast/cospace-backend/internal/service"
	"github.com/prodlast/cospace-backend/pkg/config"
	"github.com/prodlast/cospace-backend/pkg/database"
	"github.com/prodlast/cospace-backend/pkg/events"
	"github.com/prodlast/cospace-backend/pkg/logger"
	mw "github.com/prodlast/cospace-backend/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var eventBus events.EventBus
	if bus, err := events.NewNATSEventBus(cfg.NATS.URL); err != nil {
		logger.Warn("NATS unavailable, events disabled", "error", err)
		eventBus = events.NoopEventBus{}
	} else {
		eventBus = bus
	}
	defer eventBus.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(pool)
	placeRepo := postgres.NewPlaceRepo(pool)
	bookingRepo := postgres.NewBookingRepo(pool)

	// Services
	userService := service.NewUserService(userRepo)
	tokenService := service.NewTokenService(userRepo, cfg.Auth)
	placeService := service.NewPlaceService(placeRepo)
	bookingService := service.NewBookingService(bookingRepo, placeRepo, userRepo, eventBus)

	// HTTP
	h := handlers.New(userService, tokenService, bookingService, placeService)
	authn := httpmw.NewAuthenticator(userRepo, cfg.Auth.JWTSecret)
	limiter := httpmw.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Mount("/api", h.Routes(authn, limiter))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API shutdown error", "error", err)
		}
	}()

	logger.Info("API listening", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}
