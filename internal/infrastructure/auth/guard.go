package auth

import (
	"github.com/honeynil/RecipeService/internal/models"
	pkgerrors "github.com/honeynil/RecipeService/pkg/errors"
)

// Owned is anything with an owning identity.
type Owned interface {
	OwnerID() string
}

// CanMutate reports whether actor may update or delete resource.
func CanMutate(resource Owned, actor *models.Identity) bool {
	return actor != nil && resource != nil && actor.ID == resource.OwnerID()
}

// Authorize distinguishes a missing session from a non-owner.
func Authorize(resource Owned, actor *models.Identity) error {
	if actor == nil {
		return pkgerrors.ErrUnauthenticated
	}
	if !CanMutate(resource, actor) {
		return pkgerrors.ErrForbidden
	}
	return nil
}

// RequireActor is the create-time check, where no owner exists yet.
func RequireActor(actor *models.Identity) error {
	if actor == nil {
		return pkgerrors.ErrUnauthenticated
	}
	return nil
}
