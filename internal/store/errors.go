package store

import (
	"errors"
	"fmt"
)

// ErrMissingField is the cause attached when a required column is empty at insert time.
var ErrMissingField = errors.New("required field missing")

// PersistenceError wraps any storage-layer failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPersistence reports whether err is, or wraps, a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
