package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/honeynil/RecipeService/internal/infrastructure/observability"
	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
)

const DefaultLookupTimeout = 5 * time.Second

// ErrLookupTimeout is returned by Resolve when the user store does not answer
// within the lookup budget.
var ErrLookupTimeout = errors.New("user lookup timed out")

// UserLookup confirms that the account named by a token still exists.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Resolver turns a raw session token into an authenticated identity.
type Resolver struct {
	codec         *TokenCodec
	users         UserLookup
	lookupTimeout time.Duration
}

func NewResolver(codec *TokenCodec, users UserLookup, lookupTimeout time.Duration) *Resolver {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Resolver{codec: codec, users: users, lookupTimeout: lookupTimeout}
}

// Resolve returns the identity behind rawToken or the reason it could not be
// resolved. The returned identity is always the store's current projection.
func (r *Resolver) Resolve(ctx context.Context, rawToken string) (models.Identity, error) {
	if rawToken == "" {
		return models.Identity{}, pkgerrors.ErrUnauthenticated
	}

	claims, err := r.codec.Decode(rawToken)
	if err != nil {
		return models.Identity{}, err
	}

	user, err := r.lookup(ctx, claims.UserID)
	if err != nil {
		return models.Identity{}, err
	}
	return user.Identity(), nil
}

// ResolveSession collapses every failure to anonymous (nil). It never returns
// an error so public read paths stay available when the identity store is slow.
func (r *Resolver) ResolveSession(ctx context.Context, rawToken string) *models.Identity {
	identity, err := r.Resolve(ctx, rawToken)
	reason := ResolutionReason(err)
	observability.SessionResolutions.WithLabelValues(reason).Inc()
	if err != nil {
		if reason == "lookup_failed" {
			slog.Warn("session resolution failed", "reason", reason, "error", err)
		} else {
			slog.Debug("session resolved as anonymous", "reason", reason, "error", err)
		}
		return nil
	}
	return &identity
}

func (r *Resolver) lookup(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	type result struct {
		user *models.User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		user, err := r.users.GetByID(ctx, userID)
		done <- result{user: user, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrLookupTimeout, ctx.Err())
	case res := <-done:
		switch {
		case res.err == nil && res.user != nil:
			return res.user, nil
		case res.err == nil, errors.Is(res.err, pkgerrors.ErrUserNotFound):
			return nil, pkgerrors.ErrUserNotFound
		case errors.Is(res.err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %v", ErrLookupTimeout, res.err)
		default:
			return nil, fmt.Errorf("lookup user: %w", res.err)
		}
	}
}

// ResolutionReason names the outcome of Resolve for logs and metrics.
func ResolutionReason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pkgerrors.ErrUnauthenticated):
		return "no_token"
	case errors.Is(err, pkgerrors.ErrTokenExpired):
		return "expired"
	case errors.Is(err, pkgerrors.ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, pkgerrors.ErrMalformedToken):
		return "malformed"
	case errors.Is(err, pkgerrors.ErrUserNotFound):
		return "user_missing"
	case errors.Is(err, ErrLookupTimeout):
		return "lookup_timeout"
	default:
		return "lookup_failed"
	}
}
