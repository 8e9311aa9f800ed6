package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/honeynil/RecipeService/internal/config"
	"github.com/honeynil/RecipeService/internal/infrastructure/observability"
	"github.com/honeynil/RecipeService/internal/migrations"
	"github.com/honeynil/RecipeService/internal/seed"
	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to open Postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Up(ctx, db); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	if err := seed.Run(ctx, db); err != nil {
		slog.Error("error seeding database", "error", err)
		os.Exit(1)
	}
}
