package stubs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is matched by every UnsupportedTypeError
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrIO is matched by every WriteError
	ErrIO = errors.New("output not writable")
)

// UnsupportedTypeError reports a sampled value that has no type mapping
type UnsupportedTypeError struct {
	// Kind is the Go type of the offending value, e.g. map[string]interface {}
	Kind       string
	Collection string
	Field      string
}

func (e *UnsupportedTypeError) Error() string {
	switch {
	case e.Collection != "" && e.Field != "":
		return fmt.Sprintf("unsupported type %s for field %q of collection %q", e.Kind, e.Field, e.Collection)
	case e.Field != "":
		return fmt.Sprintf("unsupported type %s for field %q", e.Kind, e.Field)
	default:
		return fmt.Sprintf("unsupported type %s", e.Kind)
	}
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// WriteError reports an output destination that could not be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrIO
}
