package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, password too short).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned by repo functions when an insert violates a unique
// constraint. Use errors.As with *ConflictError to learn which field clashed.
var ErrConflict = errors.New("conflict")

// ErrInvalidCredentials is returned by the auth service for any failed login.
// It deliberately carries no detail about which check failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUnauthenticated is returned when a session token is missing, expired or forged.
var ErrUnauthenticated = errors.New("unauthenticated")

// FieldErrors maps an input field name to the messages describing what is
// wrong with it. It satisfies errors.Is(err, ErrValidation).
type FieldErrors map[string][]string

// Add appends msg to the messages for field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Error joins every message, ordered by field name so the output is stable.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], " "))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (fe FieldErrors) Unwrap() error {
	return ErrValidation
}

// ConflictError reports the column whose unique constraint was violated.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "conflict on " + e.Field
}

// Unwrap lets errors.Is(err, ErrConflict) succeed.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
