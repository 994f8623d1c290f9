// Package rightctx evaluates right-context lookahead automata.
//
// A right context is a predicate over the text following a match. It is run
// on a copy of the input cursor, so evaluating one never consumes input.
package rightctx

import (
	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/input"
)

// Eval runs the right-context automaton a from state 0 over the input that
// follows c and reports whether it reaches an accepting state.
//
// The walk fails when input ends in a state without an end-of-input
// transition, or when a character has no transition and the state has no
// wildcard.
func Eval(a *dfa.DFA, c input.Cursor) bool {
	id := dfa.StateID(0)
	for {
		s := &a.States[id]
		if s.IsAccepting() {
			return true
		}
		r, size := c.Next()
		if size == 0 {
			if s.EOI == nil {
				return false
			}
			id = s.EOI.Next
			continue
		}
		t, ok := s.Lookup(r)
		if !ok {
			return false
		}
		id = t.Next
	}
}

// Select picks the candidate that applies at c: the first guarded candidate
// whose right context holds, else the unguarded default. It returns false when
// neither exists.
func Select(cands []dfa.Accepting, autos []*dfa.DFA, c input.Cursor) (dfa.Accepting, bool) {
	for _, cand := range cands {
		if !cand.HasRightCtx() {
			return cand, true
		}
		if Eval(autos[cand.RightCtx], c) {
			return cand, true
		}
	}
	return dfa.Accepting{}, false
}
