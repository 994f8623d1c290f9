package dfa

import (
	"errors"
	"fmt"
)

// Construction errors. Build wraps them in a *BuildError.
var (
	// ErrUnknownState indicates a transition or rule set refers to a missing state
	ErrUnknownState = errors.New("unknown state")

	// ErrUnknownAction indicates a candidate refers to a missing semantic action
	ErrUnknownAction = errors.New("unknown semantic action")

	// ErrUnknownRightCtx indicates a candidate refers to a missing right-context automaton
	ErrUnknownRightCtx = errors.New("unknown right context")

	// ErrOverlappingRange indicates two ranges of a state intersect
	ErrOverlappingRange = errors.New("overlapping range")

	// ErrInvalidRune indicates a range endpoint is not a valid Unicode scalar value
	ErrInvalidRune = errors.New("invalid rune")

	// ErrUnreachableCandidate indicates a candidate follows the unguarded default
	ErrUnreachableCandidate = errors.New("candidate after unguarded default is unreachable")

	// ErrNestedRightCtx indicates a right-context automaton uses right contexts itself
	ErrNestedRightCtx = errors.New("right contexts cannot be nested")

	// ErrDuplicateRuleSet indicates two rule sets share a name
	ErrDuplicateRuleSet = errors.New("duplicate rule set")

	// ErrNoStates indicates an automaton without states
	ErrNoStates = errors.New("automaton has no states")
)

// BuildError represents an error during DFA construction via the Builder API
type BuildError struct {
	Message string
	StateID StateID
	Err     error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("%s: %s", e.Err, msg)
		}
	}
	if e.StateID != InvalidState {
		return fmt.Sprintf("DFA build error at state %d: %s", e.StateID, msg)
	}
	return fmt.Sprintf("DFA build error: %s", msg)
}

// Unwrap returns the underlying sentinel error
func (e *BuildError) Unwrap() error {
	return e.Err
}

func buildErr(state StateID, err error, format string, args ...any) *BuildError {
	return &BuildError{
		Message: fmt.Sprintf(format, args...),
		StateID: state,
		Err:     err,
	}
}
