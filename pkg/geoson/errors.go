package geoson

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("invalid geojson")

	// ErrIO matches every *IOError.
	ErrIO = errors.New("geojson i/o failure")
)

// FormatError reports a structural problem in a document. Reads abort on the
// first one; no partial collection is returned.
type FormatError struct {
	Msg string
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// Error returns the human readable message.
func (e *FormatError) Error() string { return e.Msg }

// Is reports whether target is ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// IOError reports a file that could not be opened, read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error returns the operation, the offending path and the cause.
func (e *IOError) Error() string {
	return fmt.Sprintf("cannot %s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying os error.
func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }
