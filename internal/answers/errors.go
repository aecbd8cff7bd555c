package answers

import (
	"fmt"
	"strings"
)

// Kind classifies a field-level validation failure.
type Kind string

const (
	MissingField   Kind = "MissingField"
	InvalidOption  Kind = "InvalidOption"
	EmptySelection Kind = "EmptySelection"
	TooLong        Kind = "TooLong"
	UnknownField   Kind = "UnknownField"
	InvalidType    Kind = "InvalidType"
)

type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed, in question order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Kind)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Kind returns the kind of the first failure.
func (e *ValidationError) Kind() Kind {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Kind
}

// Field returns the failure recorded for a question key, if any.
func (e *ValidationError) Field(key string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == key {
			return f, true
		}
	}
	return FieldError{}, false
}

func (e *ValidationError) add(field string, kind Kind, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{
		Field:   field,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}
