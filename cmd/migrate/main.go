// migrate applies the embedded SQL migrations: go run ./cmd/migrate -direction up
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/renchester/blog-api/internal/config"
	"github.com/renchester/blog-api/internal/db/migrate"
	"github.com/renchester/blog-api/internal/infrastructure/observability"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.LogLevel)

	if err := migrate.Run(cfg.PostgresDSN, *direction); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("no migrations to apply", "direction", *direction)
			return
		}
		slog.Error("migration failed", "direction", *direction, "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "direction", *direction)
}
