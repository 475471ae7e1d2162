package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resto-system/config"
	"resto-system/internal/auth"
	"resto-system/internal/broadcast"
	"resto-system/internal/cache"
	"resto-system/internal/database"
	"resto-system/internal/gateway"
	"resto-system/internal/menu"
	"resto-system/internal/orders"
	"resto-system/internal/repository/postgres"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.LoadConfig()
	config.SetupLogger("gateway", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.MigrateRestaurantDB(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	store := postgres.NewStore(db)

	redisClient, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	hub := broadcast.NewHub(broadcast.DefaultSubscriberBuffer)
	broker := broadcast.NewRedisBroker(redisClient, hub)
	go func() {
		if err := broker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("broadcast relay stopped")
		}
	}()

	policy, err := auth.NewStepUpPolicy(cfg.Auth.StepUpMode, cfg.Auth.StepUpSecret, cfg.Auth.StepUpTOTPSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid step-up configuration")
	}
	accounts := auth.NewService(
		store,
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		policy,
		auth.NewRedisRevoker(redisClient),
	)
	if err := accounts.EnsureAdmin(ctx, cfg.Auth.AdminUser, cfg.Auth.AdminPass); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap admin account")
	}

	if err := os.MkdirAll(cfg.Assets.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Assets.UploadDir).Msg("failed to create upload directory")
	}

	router := gateway.NewRouter(gateway.Deps{
		Aggregator:  orders.NewAggregator(store, broker),
		Orders:      store,
		Hub:         hub,
		Menu:        menu.NewService(store, cache.NewRedisCache(redisClient)),
		Accounts:    accounts,
		Assets:      cfg.Assets,
		CORSOrigins: cfg.CORSOrigins,
		Health: map[string]gateway.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Event streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("🚀 Gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("gateway stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
