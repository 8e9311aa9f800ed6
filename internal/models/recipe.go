package models

import "time"

type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	PrepTime     int32     `json:"prepTime"`
	CookTime     int32     `json:"cookTime"`
	AuthorID     string    `json:"authorId"`
	Likes        int32     `json:"likes"`
	LikedBy      []string  `json:"likedBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsLikedBy reports whether userID is a member of the recipe's like set.
func (r *Recipe) IsLikedBy(userID string) bool {
	for _, id := range r.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// RecipeFields are the user-editable fields of a recipe.
type RecipeFields struct {
	Title        string
	Ingredients  []string
	Instructions string
	PrepTime     int32
	CookTime     int32
}

// LikeResult is the authoritative post-toggle state of a (recipe, user) pair.
type LikeResult struct {
	Likes   int32 `json:"likes"`
	IsLiked bool  `json:"isLiked"`
}

// ActionResult is returned by form-style mutations instead of an error.
type ActionResult struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func (r *Recipe) OwnerID() string {
	return r.AuthorID
}
