package reconcile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/honeynil/RecipeService/internal/infrastructure/auth"
	"github.com/honeynil/RecipeService/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type togglerFunc func(ctx context.Context, recipeID string) (models.LikeResult, error)

func (f togglerFunc) ToggleLike(ctx context.Context, recipeID string) (models.LikeResult, error) {
	return f(ctx, recipeID)
}

func TestPredict(t *testing.T) {
	assert.Equal(t, models.LikeResult{Likes: 4, IsLiked: true}, Predict(models.LikeResult{Likes: 3}))
	assert.Equal(t, models.LikeResult{Likes: 2}, Predict(models.LikeResult{Likes: 3, IsLiked: true}))
	assert.Equal(t, models.LikeResult{Likes: 0}, Predict(models.LikeResult{Likes: 0, IsLiked: true}))
}

func TestLikeButton_AdoptsServerState(t *testing.T) {
	var shown []models.LikeResult
	server := togglerFunc(func(_ context.Context, id string) (models.LikeResult, error) {
		assert.Equal(t, "r1", id)
		// another user liked concurrently, so the count differs from the guess
		return models.LikeResult{Likes: 5, IsLiked: true}, nil
	})
	b := NewLikeButton("r1", models.LikeResult{Likes: 3}, server, func(s models.LikeResult) {
		shown = append(shown, s)
	})

	got, err := b.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Likes: 5, IsLiked: true}, got)
	assert.Equal(t, []models.LikeResult{
		{Likes: 4, IsLiked: true},
		{Likes: 5, IsLiked: true},
	}, shown)
	assert.False(t, b.Pending())
}

func TestLikeButton_RevertsOnFailure(t *testing.T) {
	var shown []models.LikeResult
	server := togglerFunc(func(context.Context, string) (models.LikeResult, error) {
		return models.LikeResult{}, errors.New("network down")
	})
	initial := models.LikeResult{Likes: 2, IsLiked: true}
	b := NewLikeButton("r1", initial, server, func(s models.LikeResult) {
		shown = append(shown, s)
	})

	got, err := b.Toggle(context.Background())
	assert.EqualError(t, err, "network down")
	assert.Equal(t, initial, got)
	assert.Equal(t, initial, b.State())
	assert.Equal(t, []models.LikeResult{{Likes: 1}, initial}, shown)
}

func TestLikeButton_IgnoresOverlappingToggles(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	calls := 0
	server := togglerFunc(func(context.Context, string) (models.LikeResult, error) {
		calls++
		close(started)
		<-release
		return models.LikeResult{Likes: 1, IsLiked: true}, nil
	})
	b := NewLikeButton("r1", models.LikeResult{}, server, nil)

	done := make(chan error, 1)
	go func() {
		_, err := b.Toggle(context.Background())
		done <- err
	}()
	<-started

	state, err := b.Toggle(context.Background())
	assert.ErrorIs(t, err, ErrTogglePending)
	assert.Equal(t, models.LikeResult{Likes: 1, IsLiked: true}, state)
	assert.True(t, b.Pending())

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("toggle did not complete")
	}
	assert.Equal(t, 1, calls)
	assert.False(t, b.Pending())
}

func TestHTTPToggler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		c, err := r.Cookie(auth.CookieName)
		if err != nil || c.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}
		switch r.URL.Path {
		case "/recipes/r1/like":
			_, _ = w.Write([]byte(`{"success":true,"likes":7,"isLiked":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Recipe not found"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	result, err := NewHTTPToggler(srv.URL+"/", "good", srv.Client()).ToggleLike(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.LikeResult{Likes: 7, IsLiked: true}, result)

	_, err = NewHTTPToggler(srv.URL, "good", srv.Client()).ToggleLike(ctx, "missing")
	var toggleErr *ToggleError
	require.ErrorAs(t, err, &toggleErr)
	assert.Equal(t, http.StatusNotFound, toggleErr.Status)
	assert.Equal(t, "Recipe not found", toggleErr.Message)

	_, err = NewHTTPToggler(srv.URL, "", nil).ToggleLike(ctx, "r1")
	require.ErrorAs(t, err, &toggleErr)
	assert.Equal(t, http.StatusUnauthorized, toggleErr.Status)
}

func TestLikeButton_WithHTTPTogglerFailureReverts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"An unexpected error occurred"}`))
	}))
	defer srv.Close()

	initial := models.LikeResult{Likes: 1}
	b := NewLikeButton("r1", initial, NewHTTPToggler(srv.URL, "good", srv.Client()), nil)
	_, err := b.Toggle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, initial, b.State())
}
