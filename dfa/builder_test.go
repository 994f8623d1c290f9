package dfa

import (
	"errors"
	"testing"
)

// identDFA builds [a-z]+ with a skip rule for ' '.
func identDFA(t *testing.T) *DFA {
	t.Helper()
	b := NewBuilder()
	s0 := b.AddState()
	s1 := b.AddState()
	ident := b.AddAction("ident", ActionSimple)
	space := b.AddAction("space", ActionSkip)

	mustOK(t, b.AddRange(s0, 'a', 'z', Goto(s1)))
	mustOK(t, b.AddChar(s0, ' ', Accept(Unguarded(space))))
	mustOK(t, b.AddRange(s1, 'a', 'z', Goto(s1)))
	mustOK(t, b.AddAccepting(s1, Unguarded(ident)))

	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return d
}

func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildInitRuleSet(t *testing.T) {
	d := identDFA(t)

	if start, ok := d.Start(InitRuleSet); !ok || start != 0 {
		t.Errorf("Start(%q) = %d, %v, want 0, true", InitRuleSet, start, ok)
	}
	if !d.States[0].Initial {
		t.Error("state 0 is not initial")
	}
	if d.States[1].Initial {
		t.Error("state 1 is initial")
	}
	if !d.IsRuleSetStart(0) || d.IsRuleSetStart(1) {
		t.Error("IsRuleSetStart() disagrees with the rule-set table")
	}
}

func TestBuildPredecessors(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddState()
	s1 := b.AddState()
	s2 := b.AddState()
	s3 := b.AddState()
	act := b.AddAction("a", ActionSimple)

	// s0 reaches s1 twice (counted once), s1 and s2 both reach s3.
	mustOK(t, b.AddChar(s0, 'a', Goto(s1)))
	mustOK(t, b.AddChar(s0, 'b', Goto(s1)))
	mustOK(t, b.AddChar(s0, 'c', Goto(s2)))
	mustOK(t, b.AddRange(s1, '0', '9', Goto(s3)))
	mustOK(t, b.SetAny(s2, Goto(s3)))
	mustOK(t, b.AddRange(s3, '0', '9', Goto(s3)))
	mustOK(t, b.AddAccepting(s3, Unguarded(act)))

	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []int{0, 1, 1, 3}
	for i, w := range want {
		if got := d.States[i].Predecessors; got != w {
			t.Errorf("state %d Predecessors = %d, want %d", i, got, w)
		}
	}
}

func TestAddRangeKeepsOrder(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddState()
	mustOK(t, b.AddRange(s0, 'x', 'z', Goto(s0)))
	mustOK(t, b.AddRange(s0, 'a', 'c', Goto(s0)))
	mustOK(t, b.AddRange(s0, 'm', 'm', Goto(s0)))

	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	los := []rune{'a', 'm', 'x'}
	for i, lo := range los {
		if got := d.States[0].Ranges[i].Lo; got != lo {
			t.Errorf("Ranges[%d].Lo = %q, want %q", i, got, lo)
		}
	}
}

func TestAddRangeErrors(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi rune
		want   error
	}{
		{"overlap_left", 'a', 'e', ErrOverlappingRange},
		{"overlap_right", 'h', 'z', ErrOverlappingRange},
		{"contained", 'f', 'f', ErrOverlappingRange},
		{"reversed", 'z', 'a', ErrInvalidRune},
		{"surrogate", 0xD800, 0xD800, ErrInvalidRune},
		{"beyond_max", 'a', 0x110000, ErrInvalidRune},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			s0 := b.AddState()
			mustOK(t, b.AddRange(s0, 'e', 'h', Goto(s0)))

			err := b.AddRange(s0, tt.lo, tt.hi, Goto(s0))
			if !errors.Is(err, tt.want) {
				t.Errorf("AddRange(%q, %q) error = %v, want %v", tt.lo, tt.hi, err, tt.want)
			}
			var be *BuildError
			if !errors.As(err, &be) || be.StateID != s0 {
				t.Errorf("AddRange() error = %#v, want *BuildError at state %d", err, s0)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Builder)
		want  error
	}{
		{
			name:  "no_states",
			setup: func(b *Builder) {},
			want:  ErrNoStates,
		},
		{
			name: "unknown_goto",
			setup: func(b *Builder) {
				s := b.AddState()
				_ = b.AddChar(s, 'a', Goto(7))
			},
			want: ErrUnknownState,
		},
		{
			name: "unknown_action",
			setup: func(b *Builder) {
				s := b.AddState()
				_ = b.AddAccepting(s, Unguarded(3))
			},
			want: ErrUnknownAction,
		},
		{
			name: "unknown_right_ctx",
			setup: func(b *Builder) {
				s := b.AddState()
				a := b.AddAction("a", ActionSimple)
				_ = b.AddAccepting(s, Guarded(a, 0))
			},
			want: ErrUnknownRightCtx,
		},
		{
			name: "unreachable_candidate",
			setup: func(b *Builder) {
				s := b.AddState()
				a := b.AddAction("a", ActionSimple)
				c := b.AddAction("c", ActionSimple)
				_ = b.AddChar(s, 'x', Accept(Unguarded(a), Unguarded(c)))
			},
			want: ErrUnreachableCandidate,
		},
		{
			name: "duplicate_rule_set",
			setup: func(b *Builder) {
				s := b.AddState()
				b.AddRuleSet("Str", s)
				b.AddRuleSet("Str", s)
			},
			want: ErrDuplicateRuleSet,
		},
		{
			name: "init_not_state_zero",
			setup: func(b *Builder) {
				b.AddState()
				s1 := b.AddState()
				b.AddRuleSet(InitRuleSet, s1)
			},
			want: ErrUnknownState,
		},
		{
			name: "rule_set_out_of_range",
			setup: func(b *Builder) {
				b.AddState()
				b.AddRuleSet("Str", 5)
			},
			want: ErrUnknownState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.setup(b)
			_, err := b.Build()
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRightCtxValidation(t *testing.T) {
	t.Run("accept_transition", func(t *testing.T) {
		rb := NewBuilder()
		s := rb.AddState()
		_ = rb.AddChar(s, 'B', Accept(Unguarded(0)))
		if _, err := rb.BuildRightCtx(); !errors.Is(err, ErrNestedRightCtx) {
			t.Errorf("BuildRightCtx() error = %v, want %v", err, ErrNestedRightCtx)
		}
	})

	t.Run("guarded_candidate", func(t *testing.T) {
		rb := NewBuilder()
		s := rb.AddState()
		_ = rb.AddAccepting(s, Guarded(0, 0))
		if _, err := rb.BuildRightCtx(); !errors.Is(err, ErrNestedRightCtx) {
			t.Errorf("BuildRightCtx() error = %v, want %v", err, ErrNestedRightCtx)
		}
	})

	t.Run("nested_automata", func(t *testing.T) {
		inner := &DFA{States: []State{{}}}
		outer := &DFA{States: []State{{}}, RightCtx: []*DFA{inner}}
		if err := outer.validateRightCtx(); !errors.Is(err, ErrNestedRightCtx) {
			t.Errorf("validateRightCtx() error = %v, want %v", err, ErrNestedRightCtx)
		}
	})

	t.Run("valid", func(t *testing.T) {
		rb := NewBuilder()
		s0 := rb.AddState()
		s1 := rb.AddState()
		mustOK(t, rb.AddChar(s0, 'B', Goto(s1)))
		mustOK(t, rb.MarkAccepting(s1))
		rc, err := rb.BuildRightCtx()
		if err != nil {
			t.Fatalf("BuildRightCtx() error = %v", err)
		}
		if !rc.States[1].IsAccepting() {
			t.Error("state 1 of right context is not accepting")
		}
	})
}

func TestStateLookup(t *testing.T) {
	d := identDFA(t)
	s0 := d.State(0)
	anyT := Goto(0)
	s0.Any = &anyT

	tests := []struct {
		name string
		r    rune
		kind TransKind
		next StateID
		ok   bool
	}{
		{"char", ' ', TransAccept, InvalidState, true},
		{"range_lo", 'a', TransGoto, 1, true},
		{"range_hi", 'z', TransGoto, 1, true},
		{"wildcard", '7', TransGoto, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s0.Lookup(tt.r)
			if ok != tt.ok || got.Kind != tt.kind || got.Next != tt.next {
				t.Errorf("Lookup(%q) = %v, %v, want kind %s next %d, %v",
					tt.r, got, ok, tt.kind, tt.next, tt.ok)
			}
		})
	}

	if _, ok := d.State(1).Lookup('7'); ok {
		t.Error("Lookup('7') on state 1 = true, want false")
	}
	if d.State(2) != nil || d.State(InvalidState) != nil {
		t.Error("State() returned non-nil for an invalid ID")
	}
}

func TestBuildCopiesStates(t *testing.T) {
	b := NewBuilder()
	s0 := b.AddState()
	mustOK(t, b.AddChar(s0, 'a', Goto(s0)))
	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	mustOK(t, b.AddChar(s0, 'b', Goto(s0)))
	if _, ok := d.States[0].Chars['b']; ok {
		t.Error("builder mutation leaked into a built DFA")
	}
}

func TestParseActionKind(t *testing.T) {
	for _, k := range []ActionKind{ActionSkip, ActionSimple, ActionCustom} {
		got, err := ParseActionKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseActionKind(%q) = %v, %v, want %v", k.String(), got, err, k)
		}
	}
	if _, err := ParseActionKind("bogus"); err == nil {
		t.Error("ParseActionKind(\"bogus\") error = nil, want error")
	}
}
