package lexer

import (
	"fmt"

	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/rightctx"
)

// Actions maps semantic action names to their implementations.
type Actions[T, S any] map[string]Action[T, S]

// Machine executes a DFA directly from its transition tables.
//
// It is the reference engine: codegen output must produce the same tokens,
// spans and errors as a Machine over the same automaton. A Machine is
// immutable and may serve any number of sessions.
type Machine[T, S any] struct {
	dfa      *dfa.DFA
	actions  []Action[T, S]
	ruleSets map[string]int
	cfg      Config
}

// NewMachine binds actions to the semantic actions of d. Skip actions without
// an implementation default to Skip; other missing actions are an error.
func NewMachine[T, S any](d *dfa.DFA, actions Actions[T, S], cfg Config) (*Machine[T, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := BindActions(d.Actions, actions)
	if err != nil {
		return nil, err
	}
	return &Machine[T, S]{
		dfa:      d,
		actions:  table,
		ruleSets: d.RuleSetStarts(),
		cfg:      cfg,
	}, nil
}

// BindActions resolves implementations for decls by name, in declaration order.
func BindActions[T, S any](decls []dfa.Action, actions Actions[T, S]) ([]Action[T, S], error) {
	table := make([]Action[T, S], len(decls))
	for i, decl := range decls {
		a, ok := actions[decl.Name]
		switch {
		case ok && a != nil:
			table[i] = a
		case decl.Kind == dfa.ActionSkip:
			table[i] = Skip[T, S]()
		default:
			return nil, &Error{
				Kind:    InvalidConfig,
				Message: fmt.Sprintf("no implementation for %s action %q", decl.Kind, decl.Name),
			}
		}
	}
	return table, nil
}

// Lexer starts a session over src.
func (m *Machine[T, S]) Lexer(src string, user S) *Lexer[T, S] {
	l, err := NewWithConfig[T, S](src, user, m, m.cfg)
	if err != nil {
		// The config was validated by NewMachine and Build guarantees Init.
		panic(err)
	}
	return l
}

// RuleSets implements Engine.
func (m *Machine[T, S]) RuleSets() map[string]int {
	return m.ruleSets
}

// Step implements Engine.
//
// Entering state 0 starts a new match. Entering any other accepting state
// remembers the candidate selected by its right contexts. The next character
// then follows the state's exact-char, range and wildcard transitions in that
// order; when none applies the session backtracks.
func (m *Machine[T, S]) Step(l *Lexer[T, S]) (Token[T], bool, error) {
	id := l.DispatchState()
	s := &m.dfa.States[id]

	if id == 0 {
		l.ResetMatch()
	} else if s.IsAccepting() {
		if c, ok := rightctx.Select(s.Accepting, m.dfa.RightCtx, l.Remaining()); ok {
			l.SetAccepting(m.actions[c.Action])
		}
	}

	r, ok := l.NextRune()
	if !ok {
		l.SetDone()
		if s.EOI == nil {
			return m.endOfInput(l, id)
		}
		if s.EOI.Kind == dfa.TransGoto {
			l.SetDispatchState(int(s.EOI.Next))
			return Token[T]{}, false, nil
		}
		return m.accept(l, s.EOI.Accept, func() (Token[T], bool, error) {
			return m.endOfInput(l, id)
		})
	}

	if t, ok := s.Chars[r]; ok {
		return m.take(l, s, t)
	}
	if t, ok := s.LookupRange(r); ok {
		return m.take(l, s, t)
	}
	return m.fallback(l, s)
}

// take follows a char or range transition. An accepting transition whose
// candidates all fail falls back to the wildcard.
func (m *Machine[T, S]) take(l *Lexer[T, S], s *dfa.State, t dfa.Trans) (Token[T], bool, error) {
	if t.Kind == dfa.TransGoto {
		l.SetDispatchState(int(t.Next))
		return Token[T]{}, false, nil
	}
	return m.accept(l, t.Accept, func() (Token[T], bool, error) {
		return m.fallback(l, s)
	})
}

// fallback follows the wildcard transition, or backtracks without one.
func (m *Machine[T, S]) fallback(l *Lexer[T, S], s *dfa.State) (Token[T], bool, error) {
	if s.Any == nil {
		return l.Backtrack()
	}
	if s.Any.Kind == dfa.TransGoto {
		l.SetDispatchState(int(s.Any.Next))
		return Token[T]{}, false, nil
	}
	return m.accept(l, s.Any.Accept, l.Backtrack)
}

// accept invokes the first applicable candidate, or runs otherwise.
func (m *Machine[T, S]) accept(l *Lexer[T, S], cands []dfa.Accepting,
	otherwise func() (Token[T], bool, error)) (Token[T], bool, error) {
	c, ok := rightctx.Select(cands, m.dfa.RightCtx, l.Remaining())
	if !ok {
		return otherwise()
	}
	l.ResetAccepting()
	return l.Invoke(m.actions[c.Action])
}

// endOfInput handles input ending in state id without an applicable
// transition: state 0 ends the token stream, other states backtrack.
func (m *Machine[T, S]) endOfInput(l *Lexer[T, S], id int) (Token[T], bool, error) {
	if id == 0 {
		return Token[T]{}, false, nil
	}
	return l.Backtrack()
}
