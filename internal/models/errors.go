package models

import "errors"

var (
	// ErrNotFound is returned when no media exists for an id
	ErrNotFound = errors.New("media not found")
	// ErrInvalidLimit is returned for negative query limits
	ErrInvalidLimit = errors.New("limit must not be negative")
	// ErrInvalidMedia is returned when a record cannot be stored
	ErrInvalidMedia = errors.New("invalid media")
)
