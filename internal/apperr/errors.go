// Package apperr holds the sentinel errors shared across Kornell packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnknownField is returned when a field name is not one of
	// title, cues, notes or summary.
	ErrUnknownField = errors.New("unknown field")
	// ErrIO is the single failure signal of the persistence gateway.
	ErrIO = errors.New("file operation failed")
	// ErrParse marks content that is not a Kornell document.
	ErrParse = errors.New("invalid kornell document")

	ErrUnknownSession = errors.New("unknown session")
	ErrInvalidPath    = errors.New("invalid path")
)
