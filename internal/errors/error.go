package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRegistration Category = "registration"
	CategoryRuntime      Category = "runtime"
	CategoryConfig       Category = "config"
	CategoryCLI          Category = "cli"
)

// FieldRef identifies the host field an error is about.
type FieldRef struct {
	Class string
	Field string
}

// String returns the reference as "Class.Field".
func (f *FieldRef) String() string {
	if f == nil {
		return ""
	}
	if f.Field == "" {
		return f.Class
	}
	return f.Class + "." + f.Field
}

// Error is a structured error with a code, field reference and suggestions.
type Error struct {
	// Code is a unique error identifier (e.g., "A001").
	Code string

	// Category is the error type (registration, runtime, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Field is the host field the error refers to, if any.
	Field *FieldRef

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Field != nil {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field.String())
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithField records the class and field the error refers to.
func (e *Error) WithField(class, field string) *Error {
	e.Field = &FieldRef{Class: class, Field: field}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation of the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new Error with a formatted message (no code).
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an Error.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		return ae
	}
	return New(code).Wrap(err)
}
