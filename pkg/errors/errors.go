package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeConfig          ErrorType = "config"
	ErrorTypeEnumerate       ErrorType = "enumerate"
	ErrorTypeHash            ErrorType = "hash"
	ErrorTypeRecordStore     ErrorType = "record_store"
	ErrorTypeIncompleteChild ErrorType = "incomplete_child"
	ErrorTypeUnknown         ErrorType = "unknown"
)

// Error represents a tree calculation error with type information and the
// filesystem path it occurred at.
type Error struct {
	Type ErrorType
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error at %q: %v", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Type, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error for the given path
func New(errorType ErrorType, path string, err error) *Error {
	return &Error{Type: errorType, Path: path, Err: err}
}

// Newf creates a typed error from a format string
func Newf(errorType ErrorType, path, format string, args ...interface{}) *Error {
	return &Error{Type: errorType, Path: path, Err: fmt.Errorf(format, args...)}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown if err is not a
// typed error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsIncompleteChild reports whether err signals a recalculation over a child
// record that never completed its checksum.
func IsIncompleteChild(err error) bool {
	return TypeOf(err) == ErrorTypeIncompleteChild
}
