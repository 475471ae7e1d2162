package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resto-system/config"
	"resto-system/internal/auth"
	"resto-system/internal/broadcast"
	"resto-system/internal/database"
	"resto-system/internal/orders"
	"resto-system/internal/repository/postgres"
	"resto-system/internal/services/orders/handler"
	"resto-system/internal/services/orders/terminal"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg := config.LoadConfig()
	config.SetupLogger("order-service", cfg.LogLevel)
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

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}

	s := grpc.NewServer(
		grpc.UnaryInterceptor(handler.UnaryAuthInterceptor(accounts, policy)),
		grpc.StreamInterceptor(handler.StreamAuthInterceptor(accounts, policy)),
	)

	terminalHandler := handler.NewTerminalHandler(orders.NewAggregator(store, broker), hub, accounts)
	terminal.RegisterOrderTerminalServer(s, terminalHandler)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(terminal.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down order service")
		healthServer.Shutdown()

		stopped := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(10 * time.Second):
			s.Stop()
		}
	}()

	log.Info().Str("addr", lis.Addr().String()).Msg("🍽️ Order service listening")
	if err := s.Serve(lis); err != nil {
		log.Fatal().Err(err).Msg("failed to serve")
	}
}
