package entity

import (
	"errors"

	"github.com/vadim/neo-studio/internal/validation"
)

// Domain errors for publication
var (
	ErrInvalidStatus        = errors.New("invalid publication status")
	ErrInvalidMode          = errors.New("invalid creation mode")
	ErrPublicationNotFound  = errors.New("publication not found")
	ErrActionNotAllowed     = errors.New("action not allowed in current publication status")
	ErrDeletionNotConfirmed = errors.New("deletion was not confirmed")
	ErrScheduledTimeInPast  = errors.New("scheduled time must be in the future")
	ErrStaleEdit            = errors.New("publication was modified since it was loaded")
)

// ValidationError lists the fields of a payload that failed validation
type ValidationError = validation.Error

// IsValidationError reports whether err is a *ValidationError
func IsValidationError(err error) bool {
	return validation.Is(err)
}
