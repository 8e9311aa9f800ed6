// Package reconcile keeps a client's view of a like button consistent with
// the server while showing the expected outcome of a toggle immediately.
package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/honeynil/RecipeService/internal/models"
)

// ErrTogglePending is returned when a toggle is requested while an earlier
// one for the same button has not resolved.
var ErrTogglePending = errors.New("like toggle already in flight")

// Toggler performs the authoritative toggle.
type Toggler interface {
	ToggleLike(ctx context.Context, recipeID string) (models.LikeResult, error)
}

type LikeButton struct {
	mu       sync.Mutex
	recipeID string
	state    models.LikeResult
	pending  bool
	toggler  Toggler
	onChange func(models.LikeResult)
}

// NewLikeButton returns a button showing initial. onChange, if non-nil, is
// called with every state the button shows: the prediction, then the
// adopted or restored state.
func NewLikeButton(recipeID string, initial models.LikeResult, toggler Toggler, onChange func(models.LikeResult)) *LikeButton {
	return &LikeButton{
		recipeID: recipeID,
		state:    initial,
		toggler:  toggler,
		onChange: onChange,
	}
}

func (b *LikeButton) State() models.LikeResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *LikeButton) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Toggle shows the predicted state, asks the server to toggle, then adopts
// the server's answer. On failure the pre-toggle state is restored and the
// error returned. Clicks while a toggle is in flight are ignored.
func (b *LikeButton) Toggle(ctx context.Context) (models.LikeResult, error) {
	b.mu.Lock()
	if b.pending {
		state := b.state
		b.mu.Unlock()
		return state, ErrTogglePending
	}
	previous := b.state
	b.state = Predict(previous)
	b.pending = true
	predicted := b.state
	b.mu.Unlock()
	b.notify(predicted)

	result, err := b.toggler.ToggleLike(ctx, b.recipeID)

	b.mu.Lock()
	b.pending = false
	if err != nil {
		b.state = previous
	} else {
		b.state = result
	}
	final := b.state
	b.mu.Unlock()
	b.notify(final)

	return final, err
}

func (b *LikeButton) notify(state models.LikeResult) {
	if b.onChange != nil {
		b.onChange(state)
	}
}

// Predict is the state a toggle is expected to produce from current.
func Predict(current models.LikeResult) models.LikeResult {
	if current.IsLiked {
		likes := current.Likes - 1
		if likes < 0 {
			likes = 0
		}
		return models.LikeResult{Likes: likes, IsLiked: false}
	}
	return models.LikeResult{Likes: current.Likes + 1, IsLiked: true}
}
