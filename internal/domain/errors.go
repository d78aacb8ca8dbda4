package domain

import (
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrForbidden    = fmt.Errorf("forbidden")
	ErrInvalidInput = fmt.Errorf("invalid input")
)

// ValidationError carries the per-field messages returned by the learning
// API on a rejected write. Forms surface the messages next to the matching
// inputs, so the field keys are preserved as-is.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", k, strings.Join(e.Fields[k], ", "))
	}
	return b.String()
}

// FieldError builds a ValidationError for a single field, used for checks
// the client performs before calling the API.
func FieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}
