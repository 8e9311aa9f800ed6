package service

import (
	"strconv"
	"strings"

	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
)

// RecipeForm is the raw, as-submitted shape of a recipe form.
type RecipeForm struct {
	Title        string `json:"title"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
	PrepTime     string `json:"prepTime"`
	CookTime     string `json:"cookTime"`
}

// Parse validates the form and returns the fields to persist. The error, if
// any, carries the first failing message.
func (f RecipeForm) Parse() (models.RecipeFields, error) {
	if f.Title == "" {
		return models.RecipeFields{}, pkgerrors.NewValidationError("Title is required")
	}
	if f.Ingredients == "" {
		return models.RecipeFields{}, pkgerrors.NewValidationError("Ingredients are required")
	}
	ingredients := splitIngredients(f.Ingredients)
	if len(ingredients) == 0 {
		return models.RecipeFields{}, pkgerrors.NewValidationError("Ingredients are required")
	}
	if f.Instructions == "" {
		return models.RecipeFields{}, pkgerrors.NewValidationError("Instructions are required")
	}
	prep := parseMinutes(f.PrepTime)
	if prep < 0 {
		return models.RecipeFields{}, pkgerrors.NewValidationError("Prep time cannot be negative")
	}
	cook := parseMinutes(f.CookTime)
	if cook < 0 {
		return models.RecipeFields{}, pkgerrors.NewValidationError("Cook time cannot be negative")
	}

	return models.RecipeFields{
		Title:        f.Title,
		Ingredients:  ingredients,
		Instructions: f.Instructions,
		PrepTime:     prep,
		CookTime:     cook,
	}, nil
}

func splitIngredients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseMinutes reads the leading base-10 integer of s, so "15 min" is 15.
// Input with no leading integer, or one that overflows, is 0.
func parseMinutes(s string) int32 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}
