// Package codegen compiles a DFA into a dispatch program and renders it as Go
// source.
//
// Compile lowers an automaton to a Program: one dispatch arm per independent
// state, with single-predecessor states spliced into their predecessor's arm,
// character and range transitions merged into one guard per destination, and
// large range groups replaced by binary-searched tables. The Dispatcher runs a
// Program directly on the lexer runtime; Emit renders the same Program as a Go
// switch statement. Both produce exactly the tokens lexer.Machine produces for
// the source automaton.
package codegen

import (
	"fmt"
	"strings"

	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/lexer"
)

// StepKind identifies what a Step does.
type StepKind uint8

const (
	// StepGoto sets the dispatch state to another arm.
	StepGoto StepKind = iota

	// StepInline runs an inlined state's block in place.
	StepInline

	// StepAccept invokes the first applicable candidate, else runs Else.
	StepAccept

	// StepBacktrack falls back to the remembered candidate, or fails.
	StepBacktrack

	// StepEnd ends the token stream.
	StepEnd
)

// String returns a human-readable representation of the StepKind
func (k StepKind) String() string {
	switch k {
	case StepGoto:
		return "Goto"
	case StepInline:
		return "Inline"
	case StepAccept:
		return "Accept"
	case StepBacktrack:
		return "Backtrack"
	case StepEnd:
		return "End"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Step is the action taken after a guard matches.
type Step struct {
	Kind   StepKind
	Next   int             // StepGoto: arm index
	Block  *Block          // StepInline
	Accept []dfa.Accepting // StepAccept
	Else   *Step           // StepAccept
}

// Terminates reports whether the step always returns from the dispatch
// function.
func (s *Step) Terminates() bool {
	switch s.Kind {
	case StepBacktrack:
		return true
	case StepAccept:
		if n := len(s.Accept); n > 0 && !s.Accept[n-1].HasRightCtx() {
			return true
		}
		return s.Else.Terminates()
	case StepInline:
		return s.Block.Terminates()
	default:
		return false
	}
}

// Guard is a disjunction of character tests.
type Guard struct {
	Chars  []rune
	Ranges [][2]rune
	Table  int // index into Program.Tables, or -1
}

// Match reports whether r satisfies the guard.
func (g Guard) Match(r rune, tables [][][2]rune) bool {
	if g.Table >= 0 {
		return lexer.InTable(r, tables[g.Table])
	}
	for _, c := range g.Chars {
		if r == c {
			return true
		}
	}
	for _, rg := range g.Ranges {
		if rg[0] <= r && r <= rg[1] {
			return true
		}
	}
	return false
}

// Case is one guarded alternative of a block.
type Case struct {
	Guard Guard
	Step  Step
}

// Block is the code of one state: entry actions, the character switch and the
// end-of-input handler.
type Block struct {
	// State is the DFA state the block was generated from.
	State dfa.StateID

	// Start is set on state 0, which begins a new match on entry.
	Start bool

	// Accepting is the candidate list remembered on entry.
	Accepting []dfa.Accepting

	// Cases are tested in order against the next character.
	Cases []Case

	// Default runs when no case matches.
	Default Step

	// EOI runs at end of input.
	EOI Step
}

// Terminates reports whether every character path through the block returns.
// The end-of-input path always does.
func (b *Block) Terminates() bool {
	if !b.Default.Terminates() {
		return false
	}
	for i := range b.Cases {
		if !b.Cases[i].Step.Terminates() {
			return false
		}
	}
	return true
}

// Arm is a dispatch arm.
type Arm struct {
	State dfa.StateID
	Block *Block
}

// RuleSet maps a rule-set name to its arm.
type RuleSet struct {
	Name string
	Arm  int
}

// Program is a compiled automaton.
type Program struct {
	// Arms are the dispatch arms. The last one doubles as the default label.
	Arms []Arm

	RuleSets []RuleSet
	Actions  []dfa.Action
	RightCtx []*RightCtxProgram

	// Tables are sorted disjoint ranges shared by guards.
	Tables [][][2]rune

	// Inlined and Unreachable count states without an arm.
	Inlined     int
	Unreachable int
}

// RuleSetMap returns the rule-set table as a name → arm map.
func (p *Program) RuleSetMap() map[string]int {
	m := make(map[string]int, len(p.RuleSets))
	for _, rs := range p.RuleSets {
		m[rs.Name] = rs.Arm
	}
	return m
}

// Stats summarizes a program.
type Stats struct {
	Arms        int
	Inlined     int
	Unreachable int
	Guards      int
	Tables      int
	RightCtx    int
}

// Stats returns counts describing the program's shape.
func (p *Program) Stats() Stats {
	st := Stats{
		Arms:        len(p.Arms),
		Inlined:     p.Inlined,
		Unreachable: p.Unreachable,
		Tables:      len(p.Tables),
		RightCtx:    len(p.RightCtx),
	}
	var walk func(b *Block)
	var walkStep func(s *Step)
	walkStep = func(s *Step) {
		switch s.Kind {
		case StepInline:
			walk(s.Block)
		case StepAccept:
			walkStep(s.Else)
		}
	}
	walk = func(b *Block) {
		st.Guards += len(b.Cases)
		for i := range b.Cases {
			walkStep(&b.Cases[i].Step)
		}
		walkStep(&b.Default)
	}
	for _, arm := range p.Arms {
		walk(arm.Block)
	}
	return st
}

// String returns a human-readable listing of the program
func (p *Program) String() string {
	var sb strings.Builder
	for i, arm := range p.Arms {
		fmt.Fprintf(&sb, "arm %d (state %d):\n", i, arm.State)
		writeBlock(&sb, arm.Block, "  ")
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, b *Block, indent string) {
	if b.Start {
		fmt.Fprintf(sb, "%sreset match\n", indent)
	}
	if len(b.Accepting) > 0 {
		fmt.Fprintf(sb, "%sremember %v\n", indent, b.Accepting)
	}
	for _, c := range b.Cases {
		fmt.Fprintf(sb, "%s%s => ", indent, c.Guard)
		writeStep(sb, &c.Step, indent)
	}
	fmt.Fprintf(sb, "%s_ => ", indent)
	writeStep(sb, &b.Default, indent)
	fmt.Fprintf(sb, "%seoi => ", indent)
	writeStep(sb, &b.EOI, indent)
}

func writeStep(sb *strings.Builder, s *Step, indent string) {
	switch s.Kind {
	case StepGoto:
		fmt.Fprintf(sb, "goto %d\n", s.Next)
	case StepInline:
		fmt.Fprintf(sb, "inline state %d\n", s.Block.State)
		writeBlock(sb, s.Block, indent+"  ")
	case StepAccept:
		fmt.Fprintf(sb, "accept %v else ", s.Accept)
		writeStep(sb, s.Else, indent)
	default:
		fmt.Fprintf(sb, "%s\n", strings.ToLower(s.Kind.String()))
	}
}

// String returns the guard as a disjunction.
func (g Guard) String() string {
	if g.Table >= 0 {
		return fmt.Sprintf("table%d", g.Table)
	}
	parts := make([]string, 0, len(g.Chars)+len(g.Ranges))
	for _, c := range g.Chars {
		parts = append(parts, fmt.Sprintf("%q", c))
	}
	for _, rg := range g.Ranges {
		parts = append(parts, fmt.Sprintf("%q..%q", rg[0], rg[1]))
	}
	return strings.Join(parts, " | ")
}
