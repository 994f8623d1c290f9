package lexer

import "github.com/coregx/lexgen/input"

// Token is a token value with its [Start, End) span.
type Token[T any] struct {
	Start input.Position
	Value T
	End   input.Position
}

// Action is a semantic action. It runs once the match is final and decides
// what the session does with it.
type Action[T, S any] func(l *Lexer[T, S]) Result[T]

type resultKind uint8

const (
	resultContinue resultKind = iota
	resultReturn
	resultFail
)

// Result is the outcome of a semantic action.
type Result[T any] struct {
	kind  resultKind
	value T
	err   error
}

// Continue discards the match and keeps scanning.
func Continue[T any]() Result[T] {
	return Result[T]{kind: resultContinue}
}

// Return emits v as a token spanning the current match.
func Return[T any](v T) Result[T] {
	return Result[T]{kind: resultReturn, value: v}
}

// Fail reports err at the start of the current match.
func Fail[T any](err error) Result[T] {
	return Result[T]{kind: resultFail, err: err}
}

// IsContinue reports whether the result discards the match.
func (r Result[T]) IsContinue() bool {
	return r.kind == resultContinue
}

// Skip returns an action that discards every match.
func Skip[T, S any]() Action[T, S] {
	return func(*Lexer[T, S]) Result[T] {
		return Continue[T]()
	}
}

// Simple adapts an infallible token constructor to an Action.
func Simple[T, S any](f func(l *Lexer[T, S]) T) Action[T, S] {
	return func(l *Lexer[T, S]) Result[T] {
		return Return(f(l))
	}
}
