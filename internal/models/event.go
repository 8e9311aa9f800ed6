package models

import "time"

type RecipeEventType string

const (
	RecipeCreated RecipeEventType = "created"
	RecipeUpdated RecipeEventType = "updated"
	RecipeDeleted RecipeEventType = "deleted"
	RecipeLiked   RecipeEventType = "like_toggled"
)

// RecipeEvent announces a committed recipe write. Tags name the cache
// entries that no longer reflect the stored state.
type RecipeEvent struct {
	Type       RecipeEventType `json:"type"`
	RecipeID   string          `json:"recipe_id"`
	ActorID    string          `json:"actor_id"`
	Tags       []string        `json:"tags"`
	Origin     string          `json:"origin"`
	OccurredAt time.Time       `json:"occurred_at"`
}
