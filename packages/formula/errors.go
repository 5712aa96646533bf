package formula

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every FormatError
var ErrFormat = errors.New("formula: invalid format")

// FormatError describes why an expression could not be turned into a
// Formula. Pos is the rune offset of the offending token, or -1 when the
// problem is not tied to one token.
type FormatError struct {
	Pos     int
	Token   string
	Message string
}

func (e *FormatError) Error() string {
	if e.Pos < 0 {
		return "formula: " + e.Message
	}
	return fmt.Sprintf("formula: %s at position %d: %q", e.Message, e.Pos, e.Token)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ErrorCode identifies the kind of evaluation error
type ErrorCode uint8

const (
	ErrorCodeDiv0 ErrorCode = iota + 1
	ErrorCodeRef
)

// ErrorMapper maps error codes to their display string
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeDiv0: "#DIV/0!",
	ErrorCodeRef:  "#REF!",
}

// Error is the result of evaluating a well formed formula that still has no
// numeric value. it is stored as a cell value, not raised.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrorMapper[e.Code]
}

// String returns the display form of the error, e.g. "#DIV/0!"
func (e *Error) String() string {
	return ErrorMapper[e.Code]
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrDivisionByZero    = &Error{Code: ErrorCodeDiv0, Message: "division by zero"}
	ErrUndefinedVariable = &Error{Code: ErrorCodeRef, Message: "undefined variable"}
)

func divisionByZero() *Error {
	return &Error{Code: ErrorCodeDiv0, Message: "division by zero"}
}

func undefinedVariable(name string) *Error {
	return &Error{Code: ErrorCodeRef, Message: "undefined variable: " + name}
}
