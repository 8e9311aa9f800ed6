package service

import (
	"errors"

	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
)

type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionDelete
)

const (
	MsgRecipeCreated      = "Recipe created successfully!"
	MsgRecipeUpdated      = "Recipe updated successfully!"
	MsgRecipeDeleted      = "Recipe deleted successfully"
	MsgLoginRequired      = "You must be logged in to create a recipe"
	MsgAuthRequired       = "Authentication required"
	MsgInvalidCredentials = "Invalid email or password"
	MsgUserExists         = "User with this email already exists"
	MsgLoginFailed        = "Login failed. Please try again."
	MsgRegistrationFailed = "Registration failed. Please try again."
	MsgUnauthorizedDelete = "You can only delete your own recipes"
	MsgUnauthorizedEdit   = "You can only edit your own recipes"
	MsgRecipeNotFound     = "Recipe not found"
	MsgUnexpected         = "An unexpected error occurred"
	MsgValidationFailed   = "Validation failed"
)

// Result converts the outcome of a form-style mutation into the message shown
// to the user.
func Result(action Action, err error) models.ActionResult {
	if err == nil {
		switch action {
		case ActionCreate:
			return models.ActionResult{Message: MsgRecipeCreated, Success: true}
		case ActionUpdate:
			return models.ActionResult{Message: MsgRecipeUpdated, Success: true}
		default:
			return models.ActionResult{Message: MsgRecipeDeleted, Success: true}
		}
	}

	return models.ActionResult{Message: failureMessage(action, err)}
}

func failureMessage(action Action, err error) string {
	switch {
	case errors.Is(err, pkgerrors.ErrValidationFailed):
		if msg, ok := pkgerrors.ValidationMessage(err); ok && msg != "" {
			return msg
		}
		return MsgValidationFailed
	case errors.Is(err, pkgerrors.ErrUnauthenticated):
		if action == ActionCreate {
			return MsgLoginRequired
		}
		return MsgAuthRequired
	case errors.Is(err, pkgerrors.ErrForbidden):
		if action == ActionDelete {
			return MsgUnauthorizedDelete
		}
		return MsgUnauthorizedEdit
	case errors.Is(err, pkgerrors.ErrRecipeNotFound):
		return MsgRecipeNotFound
	default:
		return MsgUnexpected
	}
}

// AuthErrorMessage is the message shown for a failed login or registration.
func AuthErrorMessage(err error, registering bool) string {
	switch {
	case errors.Is(err, pkgerrors.ErrValidationFailed):
		if msg, ok := pkgerrors.ValidationMessage(err); ok && msg != "" {
			return msg
		}
		return MsgValidationFailed
	case errors.Is(err, pkgerrors.ErrDuplicateEmail):
		return MsgUserExists
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case registering:
		return MsgRegistrationFailed
	default:
		return MsgLoginFailed
	}
}
