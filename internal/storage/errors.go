package storage

import "errors"

// Storage errors.
var (
	// ErrDuplicateKey is returned when a batch repeats a key within itself.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
