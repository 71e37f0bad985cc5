// Package apperr defines the error taxonomy shared across services.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error for callers and for HTTP mapping.
type Kind string

const (
	// KindValidation: malformed or out-of-policy input, with field detail.
	KindValidation Kind = "validation"
	// KindPermission: the actor lacks rights for the operation.
	KindPermission Kind = "permission"
	// KindInvalidState: the operation is not valid in the entity's current
	// lifecycle state.
	KindInvalidState Kind = "invalid_state"
	// KindConflict: a concurrent modification invalidated the operation;
	// retryable after refresh.
	KindConflict Kind = "conflict"
	// KindNotFound: the referenced entity does not exist.
	KindNotFound Kind = "not_found"
)

// Error is a classified application error.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Kind))
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		sb.WriteString(" (")
		sb.WriteString(strings.Join(parts, "; "))
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation error with field-level detail.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

// ValidationField builds a validation error for a single field.
func ValidationField(field, detail string) *Error {
	return &Error{Kind: KindValidation, Msg: detail, Fields: map[string]string{field: detail}}
}

// Permission builds a permission error.
func Permission(msg string) *Error {
	return &Error{Kind: KindPermission, Msg: msg}
}

// InvalidState builds an invalid-state error.
func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Msg: msg}
}

// Conflict builds a conflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// NotFound builds a not-found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// KindOf returns the kind of err, or the empty kind for unclassified
// errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsPermission reports whether err is a permission error.
func IsPermission(err error) bool { return KindOf(err) == KindPermission }

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool { return KindOf(err) == KindInvalidState }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
