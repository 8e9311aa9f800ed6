package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrNilUser            = errors.New("user is nil")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrNilRecipe          = errors.New("recipe is nil")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("not the owner of this resource")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidationFailed   = errors.New("validation failed")
	ErrMalformedToken     = errors.New("malformed token")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidSignature   = errors.New("invalid token signature")
	ErrInternal           = fmt.Errorf("unexpected error")
)

// ValidationError carries the first user-facing message of a failed validation.
// It matches ErrValidationFailed with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// ValidationMessage returns the message of the first ValidationError in err's chain.
func ValidationMessage(err error) (string, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	return "", false
}
