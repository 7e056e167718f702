package errors

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "VALIDATION"
	ErrorTypeEmailExists         ErrorType = "EMAIL_EXISTS"
	ErrorTypeWeakPassword        ErrorType = "WEAK_PASSWORD"
	ErrorTypeInvalidCredentials  ErrorType = "INVALID_CREDENTIALS"
	ErrorTypeRateLimited         ErrorType = "RATE_LIMITED"
	ErrorTypeUnauthenticated     ErrorType = "UNAUTHENTICATED"
	ErrorTypeToken               ErrorType = "TOKEN"
	ErrorTypeForbidden           ErrorType = "FORBIDDEN"
	ErrorTypeNotFound            ErrorType = "NOT_FOUND"
	ErrorTypeConflict            ErrorType = "CONFLICT"
	ErrorTypeBadRequest          ErrorType = "BAD_REQUEST"
	ErrorTypeInternalServerError ErrorType = "INTERNAL_SERVER_ERROR"
)

// TypedError is an application error carrying a client-facing message and an HTTP status.
type TypedError struct {
	Message    string
	Type       ErrorType
	Status     int
	Extensions map[string]interface{}
	Err        error
}

func (e *TypedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TypedError) ErrorType() ErrorType { return e.Type }

func (e *TypedError) Unwrap() error {
	return e.Err
}

// Is matches on type and message so copies made by WithCause still compare equal
// to the predefined values.
func (e *TypedError) Is(target error) bool {
	t, ok := target.(*TypedError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == e.Message
}

// WithCause returns a copy of e wrapping err.
func (e *TypedError) WithCause(err error) *TypedError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithExtensions returns a copy of e with extra response fields.
func (e *TypedError) WithExtensions(ext map[string]interface{}) *TypedError {
	cp := *e
	cp.Extensions = make(map[string]interface{}, len(e.Extensions)+len(ext))
	for k, v := range e.Extensions {
		cp.Extensions[k] = v
	}
	for k, v := range ext {
		cp.Extensions[k] = v
	}
	return &cp
}

func NewTypedError(message string, code ErrorType, status int, extraExtensions map[string]interface{}) *TypedError {
	return &TypedError{
		Message:    message,
		Type:       code,
		Status:     status,
		Extensions: extraExtensions,
	}
}

func InternalServerError(message string, args ...any) error {
	return &TypedError{
		Message: "Internal Server Error",
		Type:    ErrorTypeInternalServerError,
		Status:  http.StatusInternalServerError,
		Err:     fmt.Errorf(message, args...),
	}
}

// ValidationError holds field scoped messages keyed by the JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func FieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for _, msg := range e.Fields {
			return msg
		}
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = message
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}
