package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation wraps every field-level validation failure.
	ErrValidation = errors.New("validation failed")
)
