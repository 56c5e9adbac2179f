// auditor copies auth events from Kafka into the auth_events table.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/renchester/blog-api/internal/config"
	"github.com/renchester/blog-api/internal/db"
	"github.com/renchester/blog-api/internal/infrastructure/kafka"
	"github.com/renchester/blog-api/internal/observability"
	"github.com/renchester/blog-api/internal/repository/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, "blog-auth-auditor", cfg.LogLevel, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up observability", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	database, err := db.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	consumer := kafka.NewConsumer(cfg.KafkaBrokerList(), cfg.AuthEventsTopic, cfg.KafkaGroupID, postgres.NewPostgresAuditRepository(database))
	defer consumer.Close()

	slog.Info("auditor started", "topic", cfg.AuthEventsTopic, "group_id", cfg.KafkaGroupID)
	consumer.Consume(ctx)
}
