// Package seed loads the demo account and recipes into an empty database.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/honeynil/RecipeService/internal/models"
	core "github.com/honeynil/RecipeService/internal/repository/postgres"
	"golang.org/x/crypto/bcrypt"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password"
	demoName     = "Demo User"
)

var demoRecipes = []models.RecipeFields{
	{
		Title:        "Pasta Carbonara",
		Ingredients:  []string{"Spaghetti", "Eggs", "Pancetta", "Parmesan", "Black Pepper"},
		Instructions: "Cook pasta until al dente. In a bowl, mix eggs and cheese. Cook pancetta until crispy. Combine pasta with egg mixture and pancetta. Season with black pepper.",
		PrepTime:     10,
		CookTime:     15,
	},
	{
		Title:        "Greek Salad",
		Ingredients:  []string{"Cucumber", "Tomato", "Red Onion", "Feta Cheese", "Olives", "Olive Oil"},
		Instructions: "Dice cucumber, tomatoes, and red onion. Combine in a bowl with olives. Crumble feta cheese on top. Drizzle with olive oil and season with salt and oregano.",
		PrepTime:     15,
		CookTime:     0,
	},
	{
		Title:        "Chocolate Chip Cookies",
		Ingredients:  []string{"Flour", "Butter", "Brown Sugar", "White Sugar", "Eggs", "Vanilla Extract", "Baking Soda", "Salt", "Chocolate Chips"},
		Instructions: "Cream butter and sugars. Add eggs and vanilla. Mix in dry ingredients. Fold in chocolate chips. Bake at 350°F for 10-12 minutes.",
		PrepTime:     20,
		CookTime:     12,
	},
}

// Run removes all users, recipes and likes, then inserts the demo user and
// the demo recipes authored by it.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `TRUNCATE recipe_likes, recipes, users`); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := core.NewPostgresUserRepository(db)
	demo := &models.User{Name: demoName, Email: DemoEmail, PasswordHash: string(hash)}
	if err := users.Create(ctx, demo); err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	slog.Info("created demo user", "email", demo.Email)

	recipes := core.NewPostgresRecipeRepository(db)
	for _, fields := range demoRecipes {
		recipe := &models.Recipe{
			Title:        fields.Title,
			Ingredients:  fields.Ingredients,
			Instructions: fields.Instructions,
			PrepTime:     fields.PrepTime,
			CookTime:     fields.CookTime,
			AuthorID:     demo.ID,
		}
		if err := recipes.Create(ctx, recipe); err != nil {
			return fmt.Errorf("failed to create recipe %q: %w", fields.Title, err)
		}
	}

	slog.Info("database has been seeded", "recipes", len(demoRecipes))
	return nil
}
