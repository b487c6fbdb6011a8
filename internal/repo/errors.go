package repo

import (
	"errors"

	"github.com/platformbuilds/theo-core/internal/models"
)

var (
	// ErrNotFound covers rows that do not exist and rows hidden by tenant
	// isolation. Callers cannot tell the two apart.
	ErrNotFound = errors.New("not found")
	// ErrConflict is a uniqueness violation or a failed compare-and-swap.
	ErrConflict = errors.New("conflict")
	// ErrConstraint is a foreign key, check, not-null or row security
	// violation.
	ErrConstraint = errors.New("constraint violation")
	// ErrInvalid is application-level validation failure.
	ErrInvalid = models.ErrInvalid
)

// ConstraintError carries the database constraint name behind ErrConflict or
// ErrConstraint.
type ConstraintError struct {
	Kind       error
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	msg := e.Kind.Error()
	if e.Constraint != "" {
		msg += " (" + e.Constraint + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstraintError) Unwrap() error { return e.Kind }
