// Package errs defines the structured error kinds shared by the engine.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindIndexOutOfRange Kind = iota + 1
	KindInvalidEnum
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindIndexOutOfRange:
		return "index out of range"
	case KindInvalidEnum:
		return "invalid enum"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidEnum     = errors.New("invalid enum")
	ErrInvalidState    = errors.New("invalid state")
)

// Error carries the failure kind, the operation that rejected the input
// and the offending value.
type Error struct {
	Kind  Kind
	Op    string
	Value any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Value)
}

// Is matches the sentinel for the error kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIndexOutOfRange:
		return e.Kind == KindIndexOutOfRange
	case ErrInvalidEnum:
		return e.Kind == KindInvalidEnum
	case ErrInvalidState:
		return e.Kind == KindInvalidState
	}
	return false
}

// IndexOutOfRange reports an index (or name lookup) outside the valid range.
func IndexOutOfRange(op string, value any) error {
	return &Error{Kind: KindIndexOutOfRange, Op: op, Value: value}
}

// InvalidEnum reports an unrecognised mode, method or format string.
func InvalidEnum(op string, value any) error {
	return &Error{Kind: KindInvalidEnum, Op: op, Value: value}
}

// InvalidState reports an operation attempted in the wrong state.
func InvalidState(op string, value any) error {
	return &Error{Kind: KindInvalidState, Op: op, Value: value}
}
