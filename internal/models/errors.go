package models

import "errors"

var (
	// ErrBadRequest is returned when a required field is missing or the
	// supplied arguments contradict each other.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound is returned when an operation references an ID that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a record with the same key already exists
	// or the stored collection changed underneath a write.
	ErrConflict = errors.New("conflict")
	// ErrStorage is returned when the backing store could not be read or written.
	ErrStorage = errors.New("storage failure")
)
