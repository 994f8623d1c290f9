// Package lexer is the runtime shared by every lexgen lexer: the table-driven
// Machine, the codegen Dispatcher and generated Go code.
//
// A Lexer is one lexing session over one input string. It finds the longest
// prefix of the remaining input accepted by the active rule set, remembering
// the last accepting candidate while it keeps extending the match. When the
// automaton cannot continue it backtracks to that candidate and runs its
// semantic action, which either discards the match (Continue), emits a token
// (Return) or reports an error (Fail).
//
// The state machine itself is supplied by an Engine. Engines drive the
// session through its dispatcher methods (NextRune, SetAccepting, Invoke,
// Backtrack, ...); semantic actions use the action methods (Match, Peek,
// State, Switch, ...).
//
// Basic usage:
//
//	m, err := lexer.NewMachine(d, actions, lexer.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	l := m.Lexer(src, state)
//	for tok, err := range l.All() {
//	    ...
//	}
//
// A Lexer is not safe for concurrent use.
package lexer

import (
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/coregx/lexgen/input"
)

// Engine advances a session by one dispatch step.
type Engine[T, S any] interface {
	// Step runs the dispatch arm of l's current state. It returns yield=true
	// with a token or an error when the step produced a result.
	Step(l *Lexer[T, S]) (tok Token[T], yield bool, err error)

	// RuleSets maps rule-set names to dispatch states.
	RuleSets() map[string]int
}

type lastMatch[T, S any] struct {
	start  input.Position
	end    input.Position
	action Action[T, S]
}

// Lexer is a lexing session.
type Lexer[T, S any] struct {
	src    string
	cur    input.Cursor
	engine Engine[T, S]

	matchStart input.Position
	matchEnd   input.Position // also the position of cur
	last       *lastMatch[T, S]

	state    int // dispatch state
	initial  int // start of the active rule set
	ruleSet  string
	done     bool
	ruleSets map[string]int

	user     S
	tabWidth uint32
	logger   *slog.Logger
}

// New starts a session over src with the default configuration.
// It panics if e has no Init rule set.
func New[T, S any](src string, user S, e Engine[T, S]) *Lexer[T, S] {
	l, err := NewWithConfig(src, user, e, DefaultConfig())
	if err != nil {
		panic(err)
	}
	return l
}

// NewWithConfig starts a session over src.
func NewWithConfig[T, S any](src string, user S, e Engine[T, S], cfg Config) (*Lexer[T, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ruleSets := e.RuleSets()
	start, ok := ruleSets[initRuleSet]
	if !ok {
		return nil, &Error{Kind: InvalidConfig, Message: fmt.Sprintf("engine has no %q rule set", initRuleSet)}
	}
	return &Lexer[T, S]{
		src:      src,
		cur:      input.NewCursor(src),
		engine:   e,
		state:    start,
		initial:  start,
		ruleSet:  initRuleSet,
		ruleSets: ruleSets,
		user:     user,
		tabWidth: cfg.TabWidth,
		logger:   logger,
	}, nil
}

const initRuleSet = "Init"

// Next returns the next token. At end of input it returns io.EOF, and keeps
// returning it on later calls. Errors of type *Error do not end the session.
func (l *Lexer[T, S]) Next() (Token[T], error) {
	for {
		if l.done {
			return Token[T]{}, io.EOF
		}
		tok, yield, err := l.engine.Step(l)
		if yield {
			return tok, err
		}
	}
}

// All returns an iterator over the remaining tokens and errors. It stops at
// end of input.
func (l *Lexer[T, S]) All() iter.Seq2[Token[T], error] {
	return func(yield func(Token[T], error) bool) {
		for {
			tok, err := l.Next()
			if err == io.EOF {
				return
			}
			if !yield(tok, err) {
				return
			}
		}
	}
}

// Match returns the text matched so far.
func (l *Lexer[T, S]) Match() string {
	return l.src[l.matchStart.Offset:l.matchEnd.Offset]
}

// MatchSpan returns the [start, end) positions of the current match.
func (l *Lexer[T, S]) MatchSpan() (input.Position, input.Position) {
	return l.matchStart, l.matchEnd
}

// Peek returns the character after the match without consuming it.
func (l *Lexer[T, S]) Peek() (rune, bool) {
	return l.cur.Peek()
}

// State returns the user state of the session.
func (l *Lexer[T, S]) State() *S {
	return &l.user
}

// RuleSet returns the name of the active rule set.
func (l *Lexer[T, S]) RuleSet() string {
	return l.ruleSet
}

// Switch makes name the active rule set. Scanning resumes at its start state
// after the current action returns. Switching to an unknown rule set panics.
func (l *Lexer[T, S]) Switch(name string) {
	start, ok := l.ruleSets[name]
	if !ok {
		panic(fmt.Sprintf("lexer: unknown rule set %q", name))
	}
	l.logger.Debug("switch rule set", "from", l.ruleSet, "to", name, "offset", l.matchEnd.Offset)
	l.ruleSet = name
	l.state = start
	l.initial = start
}

// SwitchAndReturn switches to the named rule set and emits v.
func (l *Lexer[T, S]) SwitchAndReturn(name string, v T) Result[T] {
	l.Switch(name)
	return Return(v)
}

// ResetMatch starts the next match at the current position, so the text
// matched so far is left out of the next token's span.
func (l *Lexer[T, S]) ResetMatch() {
	l.matchStart = l.matchEnd
}

// NextRune consumes the next character and advances the match end.
// It returns false at end of input.
func (l *Lexer[T, S]) NextRune() (rune, bool) {
	r, size := l.cur.Next()
	if size == 0 {
		return 0, false
	}
	l.matchEnd.Advance(r, size, l.tabWidth)
	return r, true
}

// Remaining returns a copy of the input cursor for lookahead.
func (l *Lexer[T, S]) Remaining() input.Cursor {
	return l.cur
}

// SetAccepting remembers the current match as the candidate to fall back to.
func (l *Lexer[T, S]) SetAccepting(a Action[T, S]) {
	if l.last == nil {
		l.last = new(lastMatch[T, S])
	}
	l.last.start = l.matchStart
	l.last.end = l.matchEnd
	l.last.action = a
}

// ResetAccepting forgets the remembered candidate.
func (l *Lexer[T, S]) ResetAccepting() {
	if l.last != nil {
		l.last.action = nil
	}
}

func (l *Lexer[T, S]) hasAccepting() bool {
	return l.last != nil && l.last.action != nil
}

// Invoke runs action a on the current match and returns to the active rule
// set's start state.
func (l *Lexer[T, S]) Invoke(a Action[T, S]) (Token[T], bool, error) {
	res := a(l)
	l.state = l.initial
	switch res.kind {
	case resultContinue:
		return Token[T]{}, false, nil
	case resultReturn:
		tok := Token[T]{Start: l.matchStart, Value: res.value, End: l.matchEnd}
		l.ResetMatch()
		return tok, true, nil
	default:
		err := &Error{Kind: Custom, Pos: l.matchStart, Cause: res.err}
		l.ResetMatch()
		return Token[T]{}, true, err
	}
}

// Backtrack restores the remembered candidate and invokes its action. Without
// one it reports an InvalidToken error at the start of the failed match and
// resumes at the active rule set's start state after the consumed input.
func (l *Lexer[T, S]) Backtrack() (Token[T], bool, error) {
	if !l.hasAccepting() {
		err := &Error{Kind: InvalidToken, Pos: l.matchStart}
		l.logger.Debug("invalid token", "pos", l.matchStart.String(), "offset", l.matchStart.Offset,
			"rule_set", l.ruleSet)
		l.state = l.initial
		l.ResetMatch()
		return Token[T]{}, true, err
	}
	a := l.last.action
	l.last.action = nil
	l.done = false
	l.matchStart = l.last.start
	l.matchEnd = l.last.end
	l.cur = l.cur.At(l.matchEnd.Offset)
	return l.Invoke(a)
}

// Done reports whether end of input has been handled.
func (l *Lexer[T, S]) Done() bool {
	return l.done
}

// SetDone marks end of input as handled.
func (l *Lexer[T, S]) SetDone() {
	l.done = true
}

// DispatchState returns the state the next Step dispatches on.
func (l *Lexer[T, S]) DispatchState() int {
	return l.state
}

// SetDispatchState sets the state the next Step dispatches on.
func (l *Lexer[T, S]) SetDispatchState(s int) {
	l.state = s
}

// Offset returns the byte offset of the next unread character.
func (l *Lexer[T, S]) Offset() int {
	return l.cur.Offset()
}

// Input returns the source text.
func (l *Lexer[T, S]) Input() string {
	return l.src
}

// SkipTo drops the input up to byte offset off and restarts the active rule
// set there. Offsets at or before the current one are ignored.
func (l *Lexer[T, S]) SkipTo(off int) {
	if off <= l.cur.Offset() {
		return
	}
	from := l.matchEnd
	for l.cur.Offset() < off {
		r, size := l.cur.Next()
		if size == 0 {
			break
		}
		l.matchEnd.Advance(r, size, l.tabWidth)
	}
	l.logger.Debug("skip input", "from", from.String(), "to", l.matchEnd.String())
	l.matchStart = l.matchEnd
	l.ResetAccepting()
	l.state = l.initial
	l.done = false
}
