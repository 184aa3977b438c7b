package service

import (
	"errors"
	"fmt"

	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/repository"
	"github.com/spec-kit/todo-service/internal/validation"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// notFoundOr maps repository.ErrNotFound to a NotFound for resource and any
// other failure to an internal error.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.NewInternalError(err)
}

// requireIdentifier rejects malformed ids before any repository call.
func requireIdentifier(field, value string) error {
	if !validation.IsIdentifier(value) {
		return apperrors.NewInvalidIdentifier(field)
	}
	return nil
}

// hashPassword hashes a plaintext, reporting an over-long password as a
// validation failure.
func hashPassword(password string, cost int) (string, error) {
	hash, err := auth.HashPassword(password, cost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		msg := fmt.Sprintf(`"password" length must be less than or equal to %d bytes long`, auth.MaxPasswordBytes)
		return "", apperrors.NewValidationError(msg, map[string]any{"field": "password"})
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}
