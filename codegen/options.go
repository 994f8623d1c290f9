package codegen

import (
	"fmt"
	"log/slog"
)

// DefaultMaxGuardSize is the largest number of ranges merged into one guard
// before a search table is used instead.
const DefaultMaxGuardSize = 9

// Options configures Compile.
type Options struct {
	// MaxGuardSize is the largest number of ranges sharing a destination
	// that are tested with a chain of comparisons. Larger groups become a
	// sorted table searched with lexer.InTable.
	//
	// Default: 9
	MaxGuardSize int

	// Inline splices states with a single predecessor into that
	// predecessor's dispatch arm.
	//
	// Default: true
	Inline bool

	// Logger receives optimizer decisions at debug level.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the lexgen command.
func DefaultOptions() Options {
	return Options{
		MaxGuardSize: DefaultMaxGuardSize,
		Inline:       true,
	}
}

// Validate checks if the options are valid.
func (o *Options) Validate() error {
	if o.MaxGuardSize < 1 {
		return &Error{Message: fmt.Sprintf("MaxGuardSize must be >= 1, got %d", o.MaxGuardSize)}
	}
	return nil
}

// WithMaxGuardSize returns new options with the specified guard size
func (o Options) WithMaxGuardSize(n int) Options {
	o.MaxGuardSize = n
	return o
}

// WithInline returns new options with inlining enabled/disabled
func (o Options) WithInline(enabled bool) Options {
	o.Inline = enabled
	return o
}

// WithLogger returns new options with the specified logger
func (o Options) WithLogger(logger *slog.Logger) Options {
	o.Logger = logger
	return o
}

// Error is returned by Compile and Emit.
type Error struct {
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("codegen: %s: %v", e.Message, e.Cause)
	}
	return "codegen: " + e.Message
}

// Unwrap returns the underlying error (for errors.Is/As)
func (e *Error) Unwrap() error {
	return e.Cause
}
