package service

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/shop-service/internal/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error kinds returned by the services. Callers classify with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrState        = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func forbiddenError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// parseID validates a hex object id coming from a request field.
func parseID(field, value string) (primitive.ObjectID, error) {
	if !validator.IsValid(value) {
		return primitive.NilObjectID, validationError("%s is required", field)
	}
	if !validator.IsValidObjectID(value) {
		return primitive.NilObjectID, validationError("%s is not a valid id", field)
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, validationError("%s is not a valid id", field)
	}
	return id, nil
}
