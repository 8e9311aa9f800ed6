package service

import (
	"testing"

	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRecipeForm_Parse(t *testing.T) {
	valid := RecipeForm{
		Title:        "Pasta Carbonara",
		Ingredients:  " Spaghetti, Eggs ,, Pancetta ,",
		Instructions: "Cook the pasta.",
		PrepTime:     "10",
		CookTime:     "15 min",
	}

	fields, err := valid.Parse()
	assert.NoError(t, err)
	assert.Equal(t, models.RecipeFields{
		Title:        "Pasta Carbonara",
		Ingredients:  []string{"Spaghetti", "Eggs", "Pancetta"},
		Instructions: "Cook the pasta.",
		PrepTime:     10,
		CookTime:     15,
	}, fields)

	tests := []struct {
		name    string
		mutate  func(f *RecipeForm)
		message string
	}{
		{"missing title", func(f *RecipeForm) { f.Title = "" }, "Title is required"},
		{"missing ingredients", func(f *RecipeForm) { f.Ingredients = "" }, "Ingredients are required"},
		{"only separators", func(f *RecipeForm) { f.Ingredients = " , ," }, "Ingredients are required"},
		{"missing instructions", func(f *RecipeForm) { f.Instructions = "" }, "Instructions are required"},
		{"negative prep", func(f *RecipeForm) { f.PrepTime = "-5" }, "Prep time cannot be negative"},
		{"negative cook", func(f *RecipeForm) { f.CookTime = "-1" }, "Cook time cannot be negative"},
		{"first failure wins", func(f *RecipeForm) { f.Title = ""; f.Instructions = "" }, "Title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.mutate(&form)
			_, err := form.Parse()
			assert.ErrorIs(t, err, pkgerrors.ErrValidationFailed)
			msg, ok := pkgerrors.ValidationMessage(err)
			assert.True(t, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestParseMinutes(t *testing.T) {
	cases := map[string]int32{
		"":            0,
		"abc":         0,
		"12":          12,
		" 7 ":         7,
		"20minutes":   20,
		"-3":          -3,
		"+4":          4,
		"-":           0,
		"99999999999": 0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseMinutes(in), "input %q", in)
	}
}
