package repository

import (
	"context"

	"github.com/honeynil/RecipeService/internal/models"
)

//go:generate mockgen -source=recipe_repository.go -destination=mocks/recipe_repository_mock.go -package=mocks

type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	List(ctx context.Context) ([]models.Recipe, error)
	Update(ctx context.Context, id string, fields models.RecipeFields) error
	Delete(ctx context.Context, id string) error
	// ToggleLike flips userID's membership in the recipe's like set and
	// recomputes the like count in one transaction.
	ToggleLike(ctx context.Context, recipeID, userID string) (models.LikeResult, error)
}
