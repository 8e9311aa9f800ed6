package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

const recipeColumns = `r.id, r.title, r.ingredients, r.instructions, r.prep_time, r.cook_time, r.author_id, r.likes,
	ARRAY(SELECT l.user_id::text FROM recipe_likes l WHERE l.recipe_id = r.id ORDER BY l.created_at, l.user_id) AS liked_by,
	r.created_at, r.updated_at`

type PostgresRecipeRepository struct {
	db *sql.DB
}

func NewPostgresRecipeRepository(db *sql.DB) *PostgresRecipeRepository {
	return &PostgresRecipeRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var recipe models.Recipe
	err := row.Scan(
		&recipe.ID,
		&recipe.Title,
		pq.Array(&recipe.Ingredients),
		&recipe.Instructions,
		&recipe.PrepTime,
		&recipe.CookTime,
		&recipe.AuthorID,
		&recipe.Likes,
		pq.Array(&recipe.LikedBy),
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if recipe.Ingredients == nil {
		recipe.Ingredients = []string{}
	}
	if recipe.LikedBy == nil {
		recipe.LikedBy = []string{}
	}
	return &recipe, nil
}

func (r *PostgresRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) (err error) {
	ctx, finish := observe(ctx, "recipe-repository", "CreateRecipe")
	defer func() { finish(err) }()

	if recipe == nil {
		return pkgerrors.ErrNilRecipe
	}
	if recipe.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !validID(recipe.AuthorID) {
		return fmt.Errorf("author_id is invalid")
	}
	if recipe.PrepTime < 0 || recipe.CookTime < 0 {
		return fmt.Errorf("prep_time and cook_time must be non-negative")
	}
	if recipe.ID == "" {
		recipe.ID = uuid.NewString()
	}

	query := `INSERT INTO recipes (id, title, ingredients, instructions, prep_time, cook_time, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		recipe.ID,
		recipe.Title,
		pq.Array(recipe.Ingredients),
		recipe.Instructions,
		recipe.PrepTime,
		recipe.CookTime,
		recipe.AuthorID,
	).Scan(&recipe.CreatedAt, &recipe.UpdatedAt)
	if err != nil {
		slog.Error("failed to create recipe", "method", "Create", "author_id", recipe.AuthorID, "error", err)
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	recipe.Likes = 0
	recipe.LikedBy = []string{}
	slog.Info("recipe created", "method", "Create", "recipe_id", recipe.ID, "author_id", recipe.AuthorID)
	return nil
}

func (r *PostgresRecipeRepository) GetByID(ctx context.Context, id string) (_ *models.Recipe, err error) {
	ctx, finish := observe(ctx, "recipe-repository", "GetRecipeByID", attribute.String("recipe_id", id))
	defer func() { finish(err) }()

	if !validID(id) {
		return nil, pkgerrors.ErrRecipeNotFound
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE r.id = $1`
	recipe, err := scanRecipe(r.db.QueryRowContext(ctx, query, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrRecipeNotFound
	case err != nil:
		slog.Error("failed to get recipe by id", "method", "GetByID", "recipe_id", id, "error", err)
		return nil, fmt.Errorf("failed to get recipe by id: %w", err)
	}
	return recipe, nil
}

func (r *PostgresRecipeRepository) List(ctx context.Context) (_ []models.Recipe, err error) {
	ctx, finish := observe(ctx, "recipe-repository", "ListRecipes")
	defer func() { finish(err) }()

	query := `SELECT ` + recipeColumns + ` FROM recipes r ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Error("failed to list recipes", "method", "List", "error", err)
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		recipe, scanErr := scanRecipe(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan recipe: %w", scanErr)
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}
	return recipes, nil
}

func (r *PostgresRecipeRepository) Update(ctx context.Context, id string, fields models.RecipeFields) (err error) {
	ctx, finish := observe(ctx, "recipe-repository", "UpdateRecipe", attribute.String("recipe_id", id))
	defer func() { finish(err) }()

	if !validID(id) {
		return pkgerrors.ErrRecipeNotFound
	}
	if fields.PrepTime < 0 || fields.CookTime < 0 {
		return fmt.Errorf("prep_time and cook_time must be non-negative")
	}

	query := `UPDATE recipes
		SET title = $2, ingredients = $3, instructions = $4, prep_time = $5, cook_time = $6, updated_at = now()
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		id,
		fields.Title,
		pq.Array(fields.Ingredients),
		fields.Instructions,
		fields.PrepTime,
		fields.CookTime,
	)
	if err != nil {
		slog.Error("failed to update recipe", "method", "Update", "recipe_id", id, "error", err)
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrRecipeNotFound
	}

	slog.Info("recipe updated", "method", "Update", "recipe_id", id)
	return nil
}

func (r *PostgresRecipeRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, finish := observe(ctx, "recipe-repository", "DeleteRecipe", attribute.String("recipe_id", id))
	defer func() { finish(err) }()

	if !validID(id) {
		return pkgerrors.ErrRecipeNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete recipe", "method", "Delete", "recipe_id", id, "error", err)
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrRecipeNotFound
	}

	slog.Info("recipe deleted", "method", "Delete", "recipe_id", id)
	return nil
}

// ToggleLike locks the recipe row for the duration of the transaction so
// concurrent toggles on the same recipe are applied one after another.
// Membership is read fresh under the lock and likes is recomputed from the
// membership rows, never incremented blindly.
func (r *PostgresRecipeRepository) ToggleLike(ctx context.Context, recipeID, userID string) (_ models.LikeResult, err error) {
	ctx, finish := observe(ctx, "recipe-repository", "ToggleLike",
		attribute.String("recipe_id", recipeID),
		attribute.String("user_id", userID),
	)
	defer func() { finish(err) }()

	if !validID(recipeID) {
		return models.LikeResult{}, pkgerrors.ErrRecipeNotFound
	}
	if !validID(userID) {
		return models.LikeResult{}, fmt.Errorf("user_id is invalid")
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "ToggleLike", "error", err)
		return models.LikeResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var likes int32
	err = dbTx.QueryRowContext(ctx, `SELECT likes FROM recipes WHERE id = $1 FOR UPDATE`, recipeID).Scan(&likes)
	if errors.Is(err, sql.ErrNoRows) {
		err = rollback(dbTx, "ToggleLike", pkgerrors.ErrRecipeNotFound)
		return models.LikeResult{}, err
	}
	if err != nil {
		err = rollback(dbTx, "ToggleLike", err)
		return models.LikeResult{}, fmt.Errorf("failed to lock recipe: %w", err)
	}

	res, err := dbTx.ExecContext(ctx, `DELETE FROM recipe_likes WHERE recipe_id = $1 AND user_id = $2`, recipeID, userID)
	if err != nil {
		err = rollback(dbTx, "ToggleLike", err)
		return models.LikeResult{}, fmt.Errorf("failed to remove like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		err = rollback(dbTx, "ToggleLike", err)
		return models.LikeResult{}, fmt.Errorf("failed to read affected rows: %w", err)
	}

	liked := removed == 0
	if liked {
		_, err = dbTx.ExecContext(ctx, `INSERT INTO recipe_likes (recipe_id, user_id) VALUES ($1, $2)`, recipeID, userID)
		if err != nil {
			err = rollback(dbTx, "ToggleLike", err)
			return models.LikeResult{}, fmt.Errorf("failed to add like: %w", err)
		}
	}

	query := `UPDATE recipes SET likes = (SELECT COUNT(*) FROM recipe_likes WHERE recipe_id = $1) WHERE id = $1 RETURNING likes`
	if err = dbTx.QueryRowContext(ctx, query, recipeID).Scan(&likes); err != nil {
		err = rollback(dbTx, "ToggleLike", err)
		return models.LikeResult{}, fmt.Errorf("failed to recount likes: %w", err)
	}

	if err = dbTx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "ToggleLike", "error", err)
		return models.LikeResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("recipe like toggled", "method", "ToggleLike", "recipe_id", recipeID, "user_id", userID, "liked", liked, "likes", likes)
	return models.LikeResult{Likes: likes, IsLiked: liked}, nil
}
