package auto

import (
	"errors"
	"reflect"

	autoerr "github.com/vango-dev/auto/internal/errors"
)

// Sentinel errors. Registration failures are returned as coded errors that
// wrap one of these, so callers match them with errors.Is.
var (
	// ErrFieldConflict is returned when a field is registered under two
	// different kinds.
	ErrFieldConflict = errors.New("auto: field registered with conflicting kinds")

	// ErrNotStruct is returned when a host class is not a struct type.
	ErrNotStruct = errors.New("auto: host class is not a struct")

	// ErrUnknownField is returned when an annotation names a missing field.
	ErrUnknownField = errors.New("auto: unknown field")

	// ErrUnexportedField is returned when an annotation names an unexported
	// field.
	ErrUnexportedField = errors.New("auto: field is not exported")

	// ErrCapability is returned when the field's type cannot serve the kind
	// it is annotated with.
	ErrCapability = errors.New("auto: field type does not support kind")

	// ErrRegistryFrozen is returned when a field is registered for a class
	// that already has bound hosts.
	ErrRegistryFrozen = errors.New("auto: class already has bound hosts")

	// ErrUnknownKind is returned for an unrecognized `auto` struct tag.
	ErrUnknownKind = errors.New("auto: unknown annotation kind")

	// ErrNoChangeDetector is the panic value (wrapped) raised when a host
	// bound without a ChangeDetector needs to mark for check.
	ErrNoChangeDetector = errors.New("auto: change detector missing")
)

func className(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func fieldError(code string, sentinel error, class reflect.Type, field string) *autoerr.Error {
	return autoerr.New(code).WithField(className(class), field).Wrap(sentinel)
}
