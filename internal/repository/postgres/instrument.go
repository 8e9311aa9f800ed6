package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/honeynil/RecipeService/internal/infrastructure/observability"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// observe opens a span for a repository call and returns a func that records
// its outcome in the span and in the repository metrics.
func observe(ctx context.Context, tracerName, method string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, method)
	span.SetAttributes(attrs...)
	start := time.Now()

	return ctx, func(err error) {
		status := "success"
		switch {
		case err == nil:
		case stderrors.Is(err, pkgerrors.ErrRecipeNotFound), stderrors.Is(err, pkgerrors.ErrUserNotFound):
			status = "not_found"
		default:
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues(method, status).Inc()
		observability.RepositoryDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		span.End()
	}
}

// validID reports whether id has the store's identifier format. Malformed ids
// are treated as not found rather than as driver errors.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func rollback(tx *sql.Tx, method string, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		slog.Error("rollback failed", "method", method, "error", rbErr)
		return fmt.Errorf("rollback failed: %v; cause: %w", rbErr, err)
	}
	return err
}
