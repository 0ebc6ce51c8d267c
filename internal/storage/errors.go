// Package storage defines the submission journal and its error
// contract. A journal is append-only: a submission, once recorded,
// never changes.
package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when recording a submission whose
	// signature already exists. The journal does not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: journal does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
