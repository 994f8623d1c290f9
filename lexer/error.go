package lexer

import (
	"fmt"

	"github.com/coregx/lexgen/input"
)

// ErrInvalidToken matches, via errors.Is, every error reported when no rule
// matches the input at a position.
var ErrInvalidToken = &Error{
	Kind:    InvalidToken,
	Message: "invalid token",
}

// ErrInvalidConfig matches every configuration validation error.
var ErrInvalidConfig = &Error{
	Kind:    InvalidConfig,
	Message: "invalid lexer configuration",
}

// ErrorKind classifies lexer errors
type ErrorKind uint8

const (
	// InvalidToken indicates that no rule matched at the error position
	InvalidToken ErrorKind = iota

	// Custom indicates that a semantic action failed; Cause holds its error
	Custom

	// InvalidConfig indicates configuration validation failed
	InvalidConfig
)

// String returns a human-readable error kind name
func (k ErrorKind) String() string {
	switch k {
	case InvalidToken:
		return "InvalidToken"
	case Custom:
		return "Custom"
	case InvalidConfig:
		return "InvalidConfig"
	default:
		return fmt.Sprintf("UnknownErrorKind(%d)", k)
	}
}

// Error is an error reported by a lexing session.
//
// InvalidToken errors carry the position where the failed match attempt
// began. Custom errors carry the start of the match the failing action was
// invoked on.
type Error struct {
	Kind    ErrorKind
	Pos     input.Position
	Message string
	Cause   error // error returned by the semantic action
}

// Error implements the error interface
func (e *Error) Error() string {
	switch e.Kind {
	case InvalidToken:
		return fmt.Sprintf("lexer: invalid token at %s", e.Pos)
	case Custom:
		return fmt.Sprintf("lexer: %s: %v", e.Pos, e.Cause)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("lexer: %s: %v", e.Message, e.Cause)
		}
		return "lexer: " + e.Message
	}
}

// Unwrap returns the semantic action's error (for errors.Is/As)
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is. Errors of the same kind match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
