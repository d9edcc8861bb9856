package services

import (
	"errors"
	"fmt"

	"streamvault/database"
	"streamvault/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid or expired reset link")
)

func conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// mapConstraintError turns constraint violations the schema enforces into
// the service-level errors handlers know how to report.
func mapConstraintError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return conflict(what + " already exists")
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%s references a record that does not exist: %w", what, database.ErrNotFound)
	case database.IsCheckViolation(err):
		if name := database.ConstraintName(err); name != "" {
			return security.NewValidationError(fmt.Sprintf("%s has an invalid value (%s)", what, name))
		}
		return security.NewValidationError(what + " has an invalid value")
	}
	return err
}
