package service

import (
	"errors"
	"fmt"

	"bamboowoods/internal/database"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrDatabase           = errors.New("database error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRateLimited        = errors.New("too many attempts, try again later")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeErr folds repository errors into the service taxonomy.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, database.ErrInvalidInput):
		return fmt.Errorf("%s: %w: %v", op, ErrValidation, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrDatabase, err)
	}
}
