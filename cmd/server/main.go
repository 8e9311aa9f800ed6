package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeynil/RecipeService/internal/api"
	"github.com/honeynil/RecipeService/internal/cache"
	"github.com/honeynil/RecipeService/internal/config"
	"github.com/honeynil/RecipeService/internal/handler"
	"github.com/honeynil/RecipeService/internal/infrastructure/auth"
	"github.com/honeynil/RecipeService/internal/infrastructure/kafka"
	"github.com/honeynil/RecipeService/internal/infrastructure/redis"
	"github.com/honeynil/RecipeService/internal/migrations"
	"github.com/honeynil/RecipeService/internal/observability"
	core "github.com/honeynil/RecipeService/internal/repository/postgres"
	service "github.com/honeynil/RecipeService/internal/services"
	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracing, metricsHandler := observability.Setup(cfg)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("failed to shut down tracing", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to open Postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Up(ctx, db); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	userRepo := core.NewPostgresUserRepository(db)
	recipeRepo := core.NewPostgresRecipeRepository(db)

	checks := map[string]api.HealthCheck{"postgres": db.PingContext}

	// Without Redis the cache still works per instance.
	var recipeCache *cache.RecipeCache
	redisClient, err := redis.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		slog.Warn("running without shared cache", "redis_addr", cfg.RedisAddr, "error", err)
		recipeCache = cache.NewRecipeCache(nil, cfg.CacheTTL)
	} else {
		defer redisClient.Close()
		recipeCache = cache.NewRecipeCache(redisClient, cfg.CacheTTL)
		checks["redis"] = redisClient.Ping
	}

	var events kafka.EventPublisher = kafka.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.RecipeEventsTopic, cfg.InstanceID)
		defer producer.Close()
		events = producer

		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.RecipeEventsTopic, cfg.ServiceName+"-"+cfg.InstanceID, cfg.InstanceID, recipeCache)
		go consumer.Consume(ctx)
		defer consumer.Close()
	} else {
		// Other instances never hear about our writes, so their copies may
		// only live briefly.
		recipeCache.WithLocalTTL(cfg.LocalCacheTTL)
		slog.Warn("no Kafka brokers configured, cache invalidation stays local", "local_cache_ttl", cfg.LocalCacheTTL)
	}

	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	resolver := auth.NewResolver(codec, userRepo, cfg.SessionLookupTimeout)

	authSvc := service.NewAuthService(userRepo, codec, resolver)
	recipeSvc := service.NewRecipeService(recipeRepo, recipeCache, events)

	h := handler.NewHandler(authSvc, recipeSvc, handler.CookieConfig{TTL: codec.TTL(), Secure: cfg.SecureCookies})
	router := api.SetupRouter(h, authSvc, metricsHandler, checks)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
