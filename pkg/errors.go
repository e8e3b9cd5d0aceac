package dircast

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRoot is returned when the build root is missing, not a directory, or a symlink
	ErrInvalidRoot = errors.New("invalid cast root")

	// ErrDecode matches every *DecodeError via errors.Is
	ErrDecode = errors.New("malformed cast data")

	// ErrIndexOutOfRange is returned when an entry index does not exist in a cast
	ErrIndexOutOfRange = errors.New("entry index out of range")

	// ErrUnencodableName is returned when an entry name cannot be written in the line format
	ErrUnencodableName = errors.New("entry name cannot be encoded")
)

// IOError reports a filesystem failure while building a cast
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// DecodeError reports a malformed serialized cast. Line is 1-based, 0 when
// the failure is not tied to a line (e.g. decompression).
type DecodeError struct {
	Line   int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "decode cast: " + msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func decodeErrorf(line int, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
