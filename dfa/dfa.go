// Package dfa defines the automaton data model consumed by the lexer engine and
// the dispatcher generator.
//
// A DFA is an ordered list of states shared by one or more rule sets. Each rule
// set names a start state; the default rule set is called "Init" and always
// starts at state 0. States carry exact-character transitions, a sorted list of
// disjoint inclusive rune ranges, an optional wildcard transition, an optional
// end-of-input transition and an ordered list of accepting candidates.
//
// Right-context automata use the same State type. They only ever contain
// TransGoto transitions, and their accepting states carry candidates without
// semantic meaning: reaching one means "the lookahead holds".
//
// Automata are immutable once built. Use Builder to construct and validate one,
// or ParseYAML to load a serialized automaton.
package dfa

import (
	"fmt"
	"sort"
)

// StateID identifies a state by its index in DFA.States.
type StateID uint32

// ActionID identifies a semantic action by its index in DFA.Actions.
type ActionID uint32

// RightCtxID identifies a right-context automaton by its index in DFA.RightCtx.
type RightCtxID uint32

const (
	// InvalidState represents an invalid/uninitialized state ID
	InvalidState StateID = 0xFFFFFFFF

	// NoRightCtx marks an accepting candidate without a right context.
	NoRightCtx RightCtxID = 0xFFFFFFFF
)

// InitRuleSet is the name of the default rule set. It always starts at state 0.
const InitRuleSet = "Init"

// Accepting is one accepting candidate: a semantic action, optionally guarded
// by a right-context automaton.
type Accepting struct {
	Action   ActionID
	RightCtx RightCtxID
}

// Unguarded returns a candidate without right context.
func Unguarded(action ActionID) Accepting {
	return Accepting{Action: action, RightCtx: NoRightCtx}
}

// Guarded returns a candidate that only applies when rc holds.
func Guarded(action ActionID, rc RightCtxID) Accepting {
	return Accepting{Action: action, RightCtx: rc}
}

// HasRightCtx reports whether the candidate is guarded.
func (a Accepting) HasRightCtx() bool {
	return a.RightCtx != NoRightCtx
}

// TransKind identifies what a transition does.
type TransKind uint8

const (
	// TransGoto moves to another state.
	TransGoto TransKind = iota

	// TransAccept accepts immediately with an ordered candidate list.
	TransAccept
)

// String returns a human-readable representation of the TransKind
func (k TransKind) String() string {
	switch k {
	case TransGoto:
		return "Goto"
	case TransAccept:
		return "Accept"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Trans is a transition target: either a state or an immediate acceptance.
type Trans struct {
	Kind   TransKind
	Next   StateID     // TransGoto
	Accept []Accepting // TransAccept
}

// Goto returns a transition to state next.
func Goto(next StateID) Trans {
	return Trans{Kind: TransGoto, Next: next}
}

// Accept returns a transition that accepts immediately.
func Accept(cands ...Accepting) Trans {
	c := make([]Accepting, len(cands))
	copy(c, cands)
	return Trans{Kind: TransAccept, Next: InvalidState, Accept: c}
}

// String returns a human-readable representation of the transition
func (t Trans) String() string {
	if t.Kind == TransGoto {
		return fmt.Sprintf("goto %d", t.Next)
	}
	return fmt.Sprintf("accept %v", t.Accept)
}

// Range is an inclusive rune range and its transition.
type Range struct {
	Lo, Hi rune
	Trans  Trans
}

// Contains reports whether r is inside the range.
func (r Range) Contains(c rune) bool {
	return r.Lo <= c && c <= r.Hi
}

// State is a single automaton state.
type State struct {
	// Initial is set on state 0 only.
	Initial bool

	// Chars holds exact-character transitions. They take precedence over Ranges.
	Chars map[rune]Trans

	// Ranges is sorted by Lo and pairwise disjoint.
	Ranges []Range

	// Any is taken when neither Chars nor Ranges match.
	Any *Trans

	// EOI is taken at end of input.
	EOI *Trans

	// Accepting is the ordered candidate list. At most one candidate has no
	// right context and, if present, it is last.
	Accepting []Accepting

	// Predecessors is the number of distinct states with a transition into
	// this state. Computed by Builder.Build.
	Predecessors int
}

// IsAccepting returns true if the state has accepting candidates.
func (s *State) IsAccepting() bool {
	return len(s.Accepting) > 0
}

// Lookup returns the transition taken on r: exact char, then range, then
// wildcard. Returns false if the state has none.
func (s *State) Lookup(r rune) (Trans, bool) {
	if t, ok := s.Chars[r]; ok {
		return t, true
	}
	if t, ok := s.LookupRange(r); ok {
		return t, true
	}
	if s.Any != nil {
		return *s.Any, true
	}
	return Trans{}, false
}

// LookupRange returns the transition of the range containing r.
func (s *State) LookupRange(r rune) (Trans, bool) {
	i := sort.Search(len(s.Ranges), func(i int) bool {
		return s.Ranges[i].Hi >= r
	})
	if i < len(s.Ranges) && s.Ranges[i].Lo <= r {
		return s.Ranges[i].Trans, true
	}
	return Trans{}, false
}

// SortedChars returns the exact-character keys in ascending order.
func (s *State) SortedChars() []rune {
	chars := make([]rune, 0, len(s.Chars))
	for r := range s.Chars {
		chars = append(chars, r)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return chars
}

// Successors calls f for every transition target of the state, in lookup
// order: chars (ascending), ranges, wildcard, end of input.
func (s *State) Successors(f func(Trans)) {
	for _, r := range s.SortedChars() {
		f(s.Chars[r])
	}
	for _, rg := range s.Ranges {
		f(rg.Trans)
	}
	if s.Any != nil {
		f(*s.Any)
	}
	if s.EOI != nil {
		f(*s.EOI)
	}
}

func (s *State) clone() State {
	c := *s
	if s.Chars != nil {
		c.Chars = make(map[rune]Trans, len(s.Chars))
		for r, t := range s.Chars {
			c.Chars[r] = t
		}
	}
	c.Ranges = append([]Range(nil), s.Ranges...)
	c.Accepting = append([]Accepting(nil), s.Accepting...)
	if s.Any != nil {
		t := *s.Any
		c.Any = &t
	}
	if s.EOI != nil {
		t := *s.EOI
		c.EOI = &t
	}
	return c
}

// ActionKind classifies a semantic action.
type ActionKind uint8

const (
	// ActionSkip discards the match and continues scanning.
	ActionSkip ActionKind = iota

	// ActionSimple always produces a token.
	ActionSimple

	// ActionCustom returns a full result: continue, a token or an error.
	ActionCustom
)

// String returns a human-readable representation of the ActionKind
func (k ActionKind) String() string {
	switch k {
	case ActionSkip:
		return "skip"
	case ActionSimple:
		return "simple"
	case ActionCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseActionKind is the inverse of ActionKind.String.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "skip":
		return ActionSkip, nil
	case "simple", "":
		return ActionSimple, nil
	case "custom":
		return ActionCustom, nil
	default:
		return 0, fmt.Errorf("unknown action kind %q", s)
	}
}

// Action names a semantic action.
type Action struct {
	Name string
	Kind ActionKind
}

// RuleSet is a named entry point into the state graph.
type RuleSet struct {
	Name  string
	Start StateID
}

// DFA is an immutable automaton with its rule sets, semantic actions and
// right-context automata.
type DFA struct {
	States   []State
	RuleSets []RuleSet
	Actions  []Action
	RightCtx []*DFA
}

// State returns the state with the given ID.
// Returns nil if the ID is invalid.
func (d *DFA) State(id StateID) *State {
	if id == InvalidState || int(id) >= len(d.States) {
		return nil
	}
	return &d.States[id]
}

// Start returns the start state of the named rule set.
func (d *DFA) Start(name string) (StateID, bool) {
	for _, rs := range d.RuleSets {
		if rs.Name == name {
			return rs.Start, true
		}
	}
	return InvalidState, false
}

// IsRuleSetStart reports whether some rule set enters the graph at id.
func (d *DFA) IsRuleSetStart(id StateID) bool {
	for _, rs := range d.RuleSets {
		if rs.Start == id {
			return true
		}
	}
	return false
}

// RuleSetStarts returns the rule-set table as a name → state index map.
func (d *DFA) RuleSetStarts() map[string]int {
	m := make(map[string]int, len(d.RuleSets))
	for _, rs := range d.RuleSets {
		m[rs.Name] = int(rs.Start)
	}
	return m
}

// String returns a human-readable representation of the DFA
func (d *DFA) String() string {
	return fmt.Sprintf("DFA{states: %d, ruleSets: %d, actions: %d, rightCtx: %d}",
		len(d.States), len(d.RuleSets), len(d.Actions), len(d.RightCtx))
}
