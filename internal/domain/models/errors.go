package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Violations maps a field name to the rule it broke.
type Violations map[string]string

// Empty reports whether no violation was recorded.
func (v Violations) Empty() bool { return len(v) == 0 }

// Required records a violation when value is blank.
func (v Violations) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// Err returns a *ValidationError when violations were recorded, nil otherwise.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// ValidationError reports missing or out-of-range fields. The operation that
// produced it must not have changed any state.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for field := range e.Violations {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+"="+e.Violations[field])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a single-field validation error.
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Violations: Violations{field: rule}}
}

// NotFoundError is returned when an update targets an unknown identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// StateError is returned when a component is used outside its lifecycle.
type StateError struct {
	Component string
	Reason    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Component, e.Reason)
}

// TransportError wraps a failed call to the record store service.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a cache entry that could not be decoded.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode cached %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err carries a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
