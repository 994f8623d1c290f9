package codegen

import (
	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/lexer"
)

// Dispatcher runs a Program on the lexer runtime. It executes exactly the
// control flow Emit renders, which makes a Program testable without compiling
// generated code.
type Dispatcher[T, S any] struct {
	prog     *Program
	actions  []lexer.Action[T, S]
	ruleSets map[string]int
	cfg      lexer.Config
}

// NewDispatcher binds actions to the program's semantic actions by name.
// Missing skip actions default to lexer.Skip.
func NewDispatcher[T, S any](p *Program, actions lexer.Actions[T, S], cfg lexer.Config) (*Dispatcher[T, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := lexer.BindActions(p.Actions, actions)
	if err != nil {
		return nil, err
	}
	return &Dispatcher[T, S]{
		prog:     p,
		actions:  table,
		ruleSets: p.RuleSetMap(),
		cfg:      cfg,
	}, nil
}

// Lexer starts a session over src.
func (d *Dispatcher[T, S]) Lexer(src string, user S) *lexer.Lexer[T, S] {
	l, err := lexer.NewWithConfig[T, S](src, user, d, d.cfg)
	if err != nil {
		panic(err)
	}
	return l
}

// RuleSets implements lexer.Engine.
func (d *Dispatcher[T, S]) RuleSets() map[string]int {
	return d.ruleSets
}

// Step implements lexer.Engine. Dispatch states outside the arm range run
// the last arm, like the default label of generated code.
func (d *Dispatcher[T, S]) Step(l *lexer.Lexer[T, S]) (lexer.Token[T], bool, error) {
	st := l.DispatchState()
	if st < 0 || st >= len(d.prog.Arms) {
		st = len(d.prog.Arms) - 1
	}
	return d.run(l, d.prog.Arms[st].Block)
}

func (d *Dispatcher[T, S]) run(l *lexer.Lexer[T, S], b *Block) (lexer.Token[T], bool, error) {
	if b.Start {
		l.ResetMatch()
	} else if len(b.Accepting) > 0 {
		if c, ok := d.choose(b.Accepting, l); ok {
			l.SetAccepting(d.actions[c.Action])
		}
	}

	r, ok := l.NextRune()
	if !ok {
		l.SetDone()
		return d.exec(l, &b.EOI)
	}
	for i := range b.Cases {
		if b.Cases[i].Guard.Match(r, d.prog.Tables) {
			return d.exec(l, &b.Cases[i].Step)
		}
	}
	return d.exec(l, &b.Default)
}

func (d *Dispatcher[T, S]) exec(l *lexer.Lexer[T, S], s *Step) (lexer.Token[T], bool, error) {
	switch s.Kind {
	case StepGoto:
		l.SetDispatchState(s.Next)
	case StepInline:
		return d.run(l, s.Block)
	case StepAccept:
		c, ok := d.choose(s.Accept, l)
		if !ok {
			return d.exec(l, s.Else)
		}
		l.ResetAccepting()
		return l.Invoke(d.actions[c.Action])
	case StepBacktrack:
		return l.Backtrack()
	}
	return lexer.Token[T]{}, false, nil
}

func (d *Dispatcher[T, S]) choose(cands []dfa.Accepting, l *lexer.Lexer[T, S]) (dfa.Accepting, bool) {
	for _, c := range cands {
		if !c.HasRightCtx() || d.prog.RightCtx[c.RightCtx].Eval(l.Remaining(), d.prog.Tables) {
			return c, true
		}
	}
	return dfa.Accepting{}, false
}
