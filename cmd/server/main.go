package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/renchester/blog-api/internal/api"
	"github.com/renchester/blog-api/internal/config"
	"github.com/renchester/blog-api/internal/db"
	"github.com/renchester/blog-api/internal/handler"
	"github.com/renchester/blog-api/internal/infrastructure/auth"
	"github.com/renchester/blog-api/internal/infrastructure/kafka"
	"github.com/renchester/blog-api/internal/infrastructure/policy"
	"github.com/renchester/blog-api/internal/infrastructure/redis"
	"github.com/renchester/blog-api/internal/observability"
	"github.com/renchester/blog-api/internal/repository/postgres"
	service "github.com/renchester/blog-api/internal/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	// Логи и трейсы
	shutdownTracing, err := observability.Setup(ctx, "blog-api", cfg.LogLevel, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	accessKeys, err := auth.LoadKeyPair(cfg.PrivAccessKey, cfg.PubAccessKey)
	if err != nil {
		return err
	}
	refreshKeys, err := auth.LoadKeyPair(cfg.PrivRefreshKey, cfg.PubRefreshKey)
	if err != nil {
		return err
	}
	issuer, err := auth.NewJWTService(accessKeys, refreshKeys, cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		return err
	}

	policyModule := ""
	if cfg.PolicyFile != "" {
		raw, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			return err
		}
		policyModule = string(raw)
	}
	authz, err := policy.NewOPAAuthorizer(ctx, policyModule)
	if err != nil {
		return err
	}

	database, err := db.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer database.Close()

	// Кэш профилей не обязателен: без Redis сервис читает из Postgres.
	var cache redis.RedisClient
	if redisClient, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB); err != nil {
		slog.Warn("profile cache disabled", "error", err)
	} else {
		cache = redisClient
		defer redisClient.Close()
	}

	producer := kafka.NewProducer(cfg.KafkaBrokerList())
	defer producer.Close()

	userRepo := postgres.NewPostgresUserRepository(database)
	tokenStore := postgres.NewPostgresTokenStore(database)
	auditRepo := postgres.NewPostgresAuditRepository(database)
	hasher := auth.NewPasswordHasher()

	sessions := service.NewSessionService(userRepo, tokenStore, hasher, issuer, producer, cfg.AuthEventsTopic)
	users := service.NewUserService(userRepo, auditRepo, hasher, authz, cache, producer, cfg.AuthEventsTopic)

	h := handler.NewHandler(sessions, users, cfg.CookieSecure, cfg.RefreshTTL())
	router := api.SetupRouter(h, auth.AuthMiddleware(issuer, users), cfg.AllowedOriginList())

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-sig:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
