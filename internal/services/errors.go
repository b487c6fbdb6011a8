package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized is an unknown, malformed or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is a valid credential without the required grant.
	ErrForbidden = errors.New("forbidden")
)

// PartialError reports a multi-step operation whose first step committed and
// a later step failed. ID names the entity that now exists so the caller can
// retry as an update.
type PartialError struct {
	ID  uuid.UUID
	Op  string
	Err error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s partially applied (id %s): %v", e.Op, e.ID, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
