package domain

import "errors"

// Domain errors (no external dependencies).
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("access denied")
	ErrConflict        = errors.New("conflict with current state")
	ErrLockNotObtained = errors.New("another run is building this date")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
)
