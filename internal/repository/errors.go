package repository

import (
	"errors"
	"strings"
)

// Common repository errors that can be checked with errors.Is()
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a write collides with a unique
	// constraint (switch IP, machine MAC, cluster name, hostname,
	// adapter/role name, checkpoint pathname)
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation
	ErrInvalidEntity = errors.New("invalid entity")
)

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure. Constraint violations are surfaced to callers, never swallowed.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
