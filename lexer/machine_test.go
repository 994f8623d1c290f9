package lexer

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/coregx/lexgen/dfa"
)

func TestMachineScenarios(t *testing.T) {
	tests := []struct {
		name    string
		fixture string
		input   string
		want    []string
	}{
		{
			name:    "invalid_token_after_ident",
			fixture: "ident.yaml",
			input:   "ab 12cd",
			want:    []string{"ident:ab@0-2", "InvalidToken@0:3:3", "InvalidToken@0:4:4", "ident:cd@5-7"},
		},
		{
			name:    "whitespace_only",
			fixture: "ident.yaml",
			input:   "   ",
			want:    nil,
		},
		{
			name:    "empty",
			fixture: "ident.yaml",
			input:   "",
			want:    nil,
		},
		{
			name:    "right_context_holds",
			fixture: "rightctx.yaml",
			input:   "AB",
			want:    []string{"a_before_b:A@0-1", "b:B@1-2"},
		},
		{
			name:    "right_context_fails",
			fixture: "rightctx.yaml",
			input:   "A A",
			want:    []string{"a:A@0-1", "a:A@2-3"},
		},
		{
			name:    "right_context_at_end",
			fixture: "rightctx.yaml",
			input:   "A",
			want:    []string{"a:A@0-1"},
		},
		{
			name:    "accept_transition_guard_holds",
			fixture: "rightctx.yaml",
			input:   "CD",
			want:    []string{"c_before_d:C@0-1", "other:D@1-2"},
		},
		{
			name:    "accept_transition_falls_back_to_wildcard",
			fixture: "rightctx.yaml",
			input:   "CX",
			want:    []string{"other:C@0-1", "other:X@1-2"},
		},
		{
			name:    "maximal_munch",
			fixture: "ops.yaml",
			input:   "===>=",
			want:    []string{"eq:==@0-2", "arrow:=>@2-4", "assign:=@4-5"},
		},
		{
			name:    "backtrack_over_two_chars",
			fixture: "ops.yaml",
			input:   "ababc",
			want:    []string{"a:a@0-1", "InvalidToken@0:1:1", "abc:abc@2-5"},
		},
		{
			name:    "backtrack_at_end",
			fixture: "ops.yaml",
			input:   "ab",
			want:    []string{"a:a@0-1", "InvalidToken@0:1:1"},
		},
		{
			name:    "search_table_ranges",
			fixture: "unicode.yaml",
			input:   "añ ωλ 世界 d 한글",
			want: []string{
				"word:añ@0-3", "word:ωλ@4-8", "word:世界@9-15", "dee:d@16-17", "word:한글@18-24",
			},
		},
		{
			name:    "guarded_accepting_state",
			fixture: "unicode.yaml",
			input:   "x12 x",
			want:    []string{"xnum:x12@0-3", "word:x@4-5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := loadDFA(t, tt.fixture)
			m := newMachine(t, d, namedActions(d))
			got := drain(t, m.Lexer(tt.input, struct{}{}))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("lex(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMachineRuleSetSwitch(t *testing.T) {
	d := loadDFA(t, "strings.yaml")
	m := newMachine(t, d, stringActions(d))

	tests := []struct {
		input string
		want  []string
	}{
		{`"ab"cd`, []string{`string:"ab"@0-4`, "ident:cd@4-6"}},
		{`x "a\"b" y`, []string{"ident:x@0-1", `string:"a\"b"@2-8`, "ident:y@9-10"}},
		{`""`, []string{`string:""@0-2`}},
		// Unterminated: the failed match started at the opening quote.
		{`ab "cd`, []string{"ident:ab@0-2", "InvalidToken@0:3:3"}},
	}

	for _, tt := range tests {
		got := drain(t, m.Lexer(tt.input, struct{}{}))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("lex(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMachinePositions(t *testing.T) {
	d := loadDFA(t, "ident.yaml")
	m := newMachine(t, d, namedActions(d))
	l := m.Lexer("ab\n  cd", struct{}{})

	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Start.String() != "0:0" || tok.End.String() != "0:2" {
		t.Errorf("first token span = %s-%s, want 0:0-0:2", tok.Start, tok.End)
	}

	// The newline has no rule.
	if _, err := l.Next(); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Next() error = %v, want %v", err, ErrInvalidToken)
	}

	tok, err = l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Start.Line != 1 || tok.Start.Column != 2 || tok.Start.Offset != 5 || tok.End.Column != 4 {
		t.Errorf("second token span = %+v-%+v, want line 1 columns 2-4 offset 5", tok.Start, tok.End)
	}
}

func TestMachineTabWidth(t *testing.T) {
	d := loadDFA(t, "strings.yaml")
	m, err := NewMachine(d, stringActions(d), DefaultConfig().WithTabWidth(8))
	if err != nil {
		t.Fatal(err)
	}
	tok, err := m.Lexer(`"`+"\t"+`"x`, struct{}{}).Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.End.Column != 10 {
		t.Errorf("End.Column = %d, want 10", tok.End.Column)
	}
}

func TestMachineEndOfInputStaysDone(t *testing.T) {
	d := loadDFA(t, "ident.yaml")
	m := newMachine(t, d, namedActions(d))
	l := m.Lexer("ab", struct{}{})

	if _, err := l.Next(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := l.Next(); err != io.EOF {
			t.Fatalf("Next() #%d error = %v, want io.EOF", i, err)
		}
	}
	if !l.Done() {
		t.Error("Done() = false after end of input")
	}
}

func TestMachineEndOfInputTransition(t *testing.T) {
	b := dfa.NewBuilder()
	s0 := b.AddState()
	s1 := b.AddState()
	word := b.AddAction("word", dfa.ActionSimple)
	eof := b.AddAction("eof", dfa.ActionSimple)
	_ = b.AddRange(s0, 'a', 'z', dfa.Goto(s1))
	_ = b.SetEOI(s0, dfa.Accept(dfa.Unguarded(eof)))
	_ = b.AddRange(s1, 'a', 'z', dfa.Goto(s1))
	_ = b.AddAccepting(s1, dfa.Unguarded(word))
	d, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	m := newMachine(t, d, namedActions(d))
	got := drain(t, m.Lexer("ab", struct{}{}))
	want := []string{"word:ab@0-2", "eof:@2-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lex = %q, want %q", got, want)
	}
}

func TestMachineCustomError(t *testing.T) {
	errReserved := errors.New("reserved word")
	d := loadDFA(t, "ident.yaml")
	acts := namedActions(d)
	acts["ident"] = func(l *testLexer) Result[string] {
		if l.Match() == "goto" {
			return Fail[string](errReserved)
		}
		return Return(l.Match())
	}
	m := newMachine(t, d, acts)
	l := m.Lexer("x goto y", struct{}{})

	var toks []string
	var errs []error
	for tok, err := range l.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		toks = append(toks, tok.Value)
	}

	if !reflect.DeepEqual(toks, []string{"x", "y"}) {
		t.Errorf("tokens = %q, want [x y]", toks)
	}
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
	if !errors.Is(errs[0], errReserved) {
		t.Errorf("error = %v, want it to wrap %v", errs[0], errReserved)
	}
	var le *Error
	if !errors.As(errs[0], &le) || le.Kind != Custom || le.Pos.Offset != 2 {
		t.Errorf("error = %#v, want Custom at offset 2", errs[0])
	}
	if errors.Is(errs[0], ErrInvalidToken) {
		t.Error("custom error matches ErrInvalidToken")
	}
}

type counter struct {
	idents int
	peeks  []rune
}

func TestMachineUserStateAndPeek(t *testing.T) {
	d := loadDFA(t, "ident.yaml")
	acts := Actions[string, counter]{
		"ident": func(l *Lexer[string, counter]) Result[string] {
			st := l.State()
			st.idents++
			r, ok := l.Peek()
			if !ok {
				r = -1
			}
			st.peeks = append(st.peeks, r)
			return Return(l.Match())
		},
	}
	m, err := NewMachine(d, acts, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	l := m.Lexer("ab cd", counter{})
	for range l.All() {
	}

	if got := l.State().idents; got != 2 {
		t.Errorf("idents = %d, want 2", got)
	}
	if want := []rune{' ', -1}; !reflect.DeepEqual(l.State().peeks, want) {
		t.Errorf("peeks = %q, want %q", l.State().peeks, want)
	}
}

func TestMachineResetMatch(t *testing.T) {
	d := loadDFA(t, "strings.yaml")
	acts := stringActions(d)
	// Drop the opening quote from string tokens.
	acts["open"] = func(l *testLexer) Result[string] {
		l.ResetMatch()
		l.Switch("Str")
		return Continue[string]()
	}
	m := newMachine(t, d, acts)

	got := drain(t, m.Lexer(`"ab"`, struct{}{}))
	want := []string{`string:ab"@1-4`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lex = %q, want %q", got, want)
	}
}

func TestSwitchUnknownRuleSetPanics(t *testing.T) {
	d := loadDFA(t, "ident.yaml")
	acts := namedActions(d)
	acts["ident"] = func(l *testLexer) Result[string] {
		l.Switch("Nope")
		return Continue[string]()
	}
	m := newMachine(t, d, acts)

	defer func() {
		if recover() == nil {
			t.Error("Switch to an unknown rule set did not panic")
		}
	}()
	_, _ = m.Lexer("a", struct{}{}).Next()
}

func TestNewMachineMissingAction(t *testing.T) {
	d := loadDFA(t, "ident.yaml")
	_, err := NewMachine(d, Actions[string, struct{}]{}, DefaultConfig())
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewMachine() error = %v, want %v", err, ErrInvalidConfig)
	}
}

func TestNewMachineInvalidConfig(t *testing.T) {
	d := loadDFA(t, "ident.yaml")
	_, err := NewMachine(d, namedActions(d), DefaultConfig().WithTabWidth(0))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewMachine() error = %v, want %v", err, ErrInvalidConfig)
	}
}

func TestLexerSkipTo(t *testing.T) {
	d := loadDFA(t, "ident.yaml")
	m := newMachine(t, d, namedActions(d))
	l := m.Lexer("ab ?? cd", struct{}{})

	if _, err := l.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Next(); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Next() error = %v, want invalid token", err)
	}
	l.SkipTo(5)
	l.SkipTo(1) // backwards: ignored

	got := drain(t, l)
	want := []string{"ident:cd@6-8"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after SkipTo = %q, want %q", got, want)
	}
}
