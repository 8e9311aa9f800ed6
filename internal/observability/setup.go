package observability

import (
	"context"
	"net/http"

	"github.com/honeynil/RecipeService/internal/config"
	"github.com/honeynil/RecipeService/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(cfg *config.Config) (func(context.Context) error, http.Handler) {
	observability.InitLogger(cfg.LogLevel)
	tracerShutdown := observability.InitTracing(cfg.ServiceName, cfg.OTLPEndpoint)
	return tracerShutdown, promhttp.Handler()
}
