package core

import (
	"fmt"
	"strings"
)

// FieldError names a single input constraint that was not met.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects an operation before any mutation. It carries one
// entry per failed field so the caller never has to parse free text.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a failed field constraint.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns the error if any field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// DuplicateTrackError is returned when explicit track creation collides
// with an existing (name, type) pair. The existing track is attached so the
// caller can decide to reuse it.
type DuplicateTrackError struct {
	Existing *Track
}

func (e *DuplicateTrackError) Error() string {
	return fmt.Sprintf("track %q of type %s already exists with id %s",
		e.Existing.Name, e.Existing.Type, e.Existing.ID)
}
