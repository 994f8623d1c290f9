package dfa

import (
	"sort"
	"unicode/utf8"

	"github.com/coregx/lexgen/internal/conv"
)

// Builder constructs a DFA incrementally and validates it on Build.
//
// The zero value is not usable; call NewBuilder.
type Builder struct {
	states   []State
	ruleSets []RuleSet
	actions  []Action
	rightCtx []*DFA
}

// NewBuilder creates a new DFA builder with default capacity
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity creates a new DFA builder with specified initial capacity
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states: make([]State, 0, capacity),
	}
}

// AddState appends an empty state and returns its ID.
// The first state added is state 0, the start of the Init rule set.
func (b *Builder) AddState() StateID {
	id := toStateID(len(b.states))
	b.states = append(b.states, State{})
	return id
}

// States returns the current number of states
func (b *Builder) States() int {
	return len(b.states)
}

// AddChar adds (or replaces) the exact-character transition of state from on r.
func (b *Builder) AddChar(from StateID, r rune, t Trans) error {
	s, err := b.state(from)
	if err != nil {
		return err
	}
	if s.Chars == nil {
		s.Chars = make(map[rune]Trans)
	}
	s.Chars[r] = t
	return nil
}

// AddRange inserts an inclusive range transition, keeping the state's ranges
// sorted. Overlapping an existing range is an error.
func (b *Builder) AddRange(from StateID, lo, hi rune, t Trans) error {
	s, err := b.state(from)
	if err != nil {
		return err
	}
	if !utf8.ValidRune(lo) || !utf8.ValidRune(hi) || lo > hi {
		return buildErr(from, ErrInvalidRune, "range [%U, %U]", lo, hi)
	}
	i := sort.Search(len(s.Ranges), func(i int) bool { return s.Ranges[i].Lo > lo })
	if i > 0 && s.Ranges[i-1].Hi >= lo {
		return buildErr(from, ErrOverlappingRange, "[%U, %U] overlaps [%U, %U]",
			lo, hi, s.Ranges[i-1].Lo, s.Ranges[i-1].Hi)
	}
	if i < len(s.Ranges) && s.Ranges[i].Lo <= hi {
		return buildErr(from, ErrOverlappingRange, "[%U, %U] overlaps [%U, %U]",
			lo, hi, s.Ranges[i].Lo, s.Ranges[i].Hi)
	}
	s.Ranges = append(s.Ranges, Range{})
	copy(s.Ranges[i+1:], s.Ranges[i:])
	s.Ranges[i] = Range{Lo: lo, Hi: hi, Trans: t}
	return nil
}

// SetAny sets the wildcard transition of a state.
func (b *Builder) SetAny(from StateID, t Trans) error {
	s, err := b.state(from)
	if err != nil {
		return err
	}
	s.Any = &t
	return nil
}

// SetEOI sets the end-of-input transition of a state.
func (b *Builder) SetEOI(from StateID, t Trans) error {
	s, err := b.state(from)
	if err != nil {
		return err
	}
	s.EOI = &t
	return nil
}

// AddAccepting appends an accepting candidate to a state.
func (b *Builder) AddAccepting(id StateID, a Accepting) error {
	s, err := b.state(id)
	if err != nil {
		return err
	}
	s.Accepting = append(s.Accepting, a)
	return nil
}

// MarkAccepting makes a right-context state accepting.
func (b *Builder) MarkAccepting(id StateID) error {
	return b.AddAccepting(id, Unguarded(0))
}

// AddAction registers a semantic action and returns its ID.
func (b *Builder) AddAction(name string, kind ActionKind) ActionID {
	id := ActionID(toStateID(len(b.actions)))
	b.actions = append(b.actions, Action{Name: name, Kind: kind})
	return id
}

// AddRuleSet registers a named entry point.
func (b *Builder) AddRuleSet(name string, start StateID) {
	b.ruleSets = append(b.ruleSets, RuleSet{Name: name, Start: start})
}

// AddRightCtx registers a right-context automaton built with BuildRightCtx.
func (b *Builder) AddRightCtx(rc *DFA) RightCtxID {
	id := RightCtxID(toStateID(len(b.rightCtx)))
	b.rightCtx = append(b.rightCtx, rc)
	return id
}

func (b *Builder) state(id StateID) (*State, error) {
	if int(id) >= len(b.states) {
		return nil, buildErr(id, ErrUnknownState, "state ID out of bounds")
	}
	return &b.states[id], nil
}

// Build finalizes the automaton: marks state 0 initial, registers the Init
// rule set if missing, computes predecessor counts and validates.
func (b *Builder) Build() (*DFA, error) {
	if len(b.states) == 0 {
		return nil, &BuildError{StateID: InvalidState, Err: ErrNoStates}
	}
	ruleSets := b.ruleSets
	if _, ok := findRuleSet(ruleSets, InitRuleSet); !ok {
		ruleSets = append([]RuleSet{{Name: InitRuleSet, Start: 0}}, ruleSets...)
	}
	d := &DFA{
		States:   b.finishStates(),
		RuleSets: append([]RuleSet(nil), ruleSets...),
		Actions:  append([]Action(nil), b.actions...),
		RightCtx: append([]*DFA(nil), b.rightCtx...),
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// BuildRightCtx finalizes a right-context automaton. It has no rule sets and
// no semantic actions; state 0 is where the lookahead starts.
func (b *Builder) BuildRightCtx() (*DFA, error) {
	if len(b.states) == 0 {
		return nil, &BuildError{StateID: InvalidState, Err: ErrNoStates}
	}
	d := &DFA{States: b.finishStates()}
	if err := d.validateRightCtx(); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *Builder) finishStates() []State {
	states := make([]State, len(b.states))
	for i := range b.states {
		states[i] = b.states[i].clone()
		states[i].Initial = i == 0
		states[i].Predecessors = 0
	}
	countPredecessors(states)
	return states
}

// countPredecessors sets State.Predecessors to the number of distinct states
// with a goto transition into each state.
func countPredecessors(states []State) {
	seen := make(map[[2]StateID]struct{})
	for i := range states {
		from := toStateID(i)
		states[i].Successors(func(t Trans) {
			if t.Kind != TransGoto || int(t.Next) >= len(states) {
				return
			}
			key := [2]StateID{from, t.Next}
			if _, ok := seen[key]; ok {
				return
			}
			seen[key] = struct{}{}
			states[t.Next].Predecessors++
		})
	}
}

// Validate checks that the automaton is well-formed:
// - All state, action and right-context references are in range
// - Ranges are sorted, disjoint and valid
// - Candidate lists have at most one unguarded candidate, in last position
// - Rule-set names are unique and Init starts at state 0
// - Right-context automata are not nested
func (d *DFA) Validate() error {
	if len(d.States) == 0 {
		return &BuildError{StateID: InvalidState, Err: ErrNoStates}
	}
	seen := make(map[string]struct{}, len(d.RuleSets))
	for _, rs := range d.RuleSets {
		if _, dup := seen[rs.Name]; dup {
			return buildErr(InvalidState, ErrDuplicateRuleSet, "%q", rs.Name)
		}
		seen[rs.Name] = struct{}{}
		if int(rs.Start) >= len(d.States) {
			return buildErr(rs.Start, ErrUnknownState, "rule set %q", rs.Name)
		}
	}
	if start, ok := d.Start(InitRuleSet); !ok || start != 0 {
		return buildErr(InvalidState, ErrUnknownState, "rule set %q must start at state 0", InitRuleSet)
	}
	for i := range d.States {
		if err := d.validateState(toStateID(i), false); err != nil {
			return err
		}
	}
	for i, rc := range d.RightCtx {
		if rc == nil {
			return buildErr(InvalidState, ErrUnknownRightCtx, "right context %d is nil", i)
		}
		if err := rc.validateRightCtx(); err != nil {
			return err
		}
	}
	return nil
}

func (d *DFA) validateRightCtx() error {
	if len(d.RightCtx) > 0 {
		return buildErr(InvalidState, ErrNestedRightCtx, "automaton declares %d right contexts", len(d.RightCtx))
	}
	for i := range d.States {
		if err := d.validateState(toStateID(i), true); err != nil {
			return err
		}
	}
	return nil
}

func (d *DFA) validateState(id StateID, rightCtx bool) error {
	s := &d.States[id]
	for i, rg := range s.Ranges {
		if !utf8.ValidRune(rg.Lo) || !utf8.ValidRune(rg.Hi) || rg.Lo > rg.Hi {
			return buildErr(id, ErrInvalidRune, "range [%U, %U]", rg.Lo, rg.Hi)
		}
		if i > 0 && s.Ranges[i-1].Hi >= rg.Lo {
			return buildErr(id, ErrOverlappingRange, "[%U, %U] overlaps [%U, %U]",
				rg.Lo, rg.Hi, s.Ranges[i-1].Lo, s.Ranges[i-1].Hi)
		}
	}
	if err := d.validateCandidates(id, s.Accepting, rightCtx); err != nil {
		return err
	}
	var err error
	s.Successors(func(t Trans) {
		if err != nil {
			return
		}
		err = d.validateTrans(id, t, rightCtx)
	})
	return err
}

func (d *DFA) validateTrans(id StateID, t Trans, rightCtx bool) error {
	switch t.Kind {
	case TransGoto:
		if int(t.Next) >= len(d.States) {
			return buildErr(id, ErrUnknownState, "transition to %d", t.Next)
		}
		return nil
	case TransAccept:
		if rightCtx {
			return buildErr(id, ErrNestedRightCtx, "right-context automata cannot accept on a transition")
		}
		return d.validateCandidates(id, t.Accept, false)
	default:
		return buildErr(id, nil, "unknown transition kind %s", t.Kind)
	}
}

func (d *DFA) validateCandidates(id StateID, cands []Accepting, rightCtx bool) error {
	for i, c := range cands {
		if rightCtx {
			if c.HasRightCtx() {
				return buildErr(id, ErrNestedRightCtx, "candidate %d", i)
			}
			continue
		}
		if int(c.Action) >= len(d.Actions) {
			return buildErr(id, ErrUnknownAction, "candidate %d action %d", i, c.Action)
		}
		if !c.HasRightCtx() {
			if i != len(cands)-1 {
				return buildErr(id, ErrUnreachableCandidate, "candidate %d", i+1)
			}
			continue
		}
		if int(c.RightCtx) >= len(d.RightCtx) {
			return buildErr(id, ErrUnknownRightCtx, "candidate %d right context %d", i, c.RightCtx)
		}
	}
	return nil
}

func findRuleSet(ruleSets []RuleSet, name string) (RuleSet, bool) {
	for _, rs := range ruleSets {
		if rs.Name == name {
			return rs, true
		}
	}
	return RuleSet{}, false
}

// toStateID converts a slice length to an ID, panicking on overflow.
// InvalidState itself is never a valid index.
func toStateID(n int) StateID {
	id := StateID(conv.IntToUint32(n))
	if id == InvalidState {
		panic("integer overflow: index out of StateID range")
	}
	return id
}
