package codegen

import (
	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/input"
)

// RCTargetKind identifies where a right-context transition leads.
type RCTargetKind uint8

const (
	// RCNext continues in another arm.
	RCNext RCTargetKind = iota

	// RCAccept reports that the right context holds.
	RCAccept

	// RCFail reports that the right context does not hold.
	RCFail
)

// RCTarget is the outcome of one right-context step.
type RCTarget struct {
	Kind RCTargetKind
	Next int
}

// RCCase is a guarded right-context transition.
type RCCase struct {
	Guard  Guard
	Target RCTarget
}

// RCArm is one state of a compiled right context.
type RCArm struct {
	// Accepting arms hold without reading input.
	Accepting bool

	Cases   []RCCase
	Default RCTarget
	EOI     RCTarget
}

// RightCtxProgram is a compiled right-context automaton. Every state keeps
// its arm; transitions into accepting states resolve to RCAccept directly.
type RightCtxProgram struct {
	Arms []RCArm
}

// Eval reports whether the right context holds for the input after c.
// c is a copy, so the caller's cursor does not move.
func (p *RightCtxProgram) Eval(c input.Cursor, tables [][][2]rune) bool {
	state := 0
	for {
		arm := &p.Arms[state]
		if arm.Accepting {
			return true
		}
		r, size := c.Next()
		t := arm.Default
		if size == 0 {
			t = arm.EOI
		} else {
			for i := range arm.Cases {
				if arm.Cases[i].Guard.Match(r, tables) {
					t = arm.Cases[i].Target
					break
				}
			}
		}
		switch t.Kind {
		case RCAccept:
			return true
		case RCFail:
			return false
		default:
			state = t.Next
		}
	}
}

func compileRightCtx(a *dfa.DFA, tables *tablePool, maxGuardSize int) *RightCtxProgram {
	target := func(t dfa.Trans) RCTarget {
		if a.States[t.Next].IsAccepting() {
			return RCTarget{Kind: RCAccept}
		}
		return RCTarget{Kind: RCNext, Next: int(t.Next)}
	}
	key := func(t RCTarget) dfa.StateID {
		if t.Kind == RCAccept {
			return dfa.InvalidState
		}
		return dfa.StateID(t.Next)
	}

	p := &RightCtxProgram{Arms: make([]RCArm, len(a.States))}
	for i := range a.States {
		s := &a.States[i]
		arm := &p.Arms[i]
		if s.IsAccepting() {
			arm.Accepting = true
			continue
		}
		arm.Default = RCTarget{Kind: RCFail}
		if s.Any != nil {
			arm.Default = target(*s.Any)
		}
		arm.EOI = RCTarget{Kind: RCFail}
		if s.EOI != nil {
			arm.EOI = target(*s.EOI)
		}

		chars := make(map[dfa.StateID][]rune)
		targets := make(map[dfa.StateID]RCTarget)
		for _, r := range s.SortedChars() {
			t := target(s.Chars[r])
			chars[key(t)] = append(chars[key(t)], r)
			targets[key(t)] = t
		}
		for _, k := range sortedKeys(chars) {
			arm.Cases = append(arm.Cases, RCCase{
				Guard:  Guard{Chars: chars[k], Table: -1},
				Target: targets[k],
			})
		}

		ranges := make(map[dfa.StateID][][2]rune)
		for _, rg := range s.Ranges {
			t := target(rg.Trans)
			ranges[key(t)] = append(ranges[key(t)], [2]rune{rg.Lo, rg.Hi})
			targets[key(t)] = t
		}
		for _, k := range sortedKeys(ranges) {
			g := Guard{Ranges: ranges[k], Table: -1}
			if len(g.Ranges) > maxGuardSize {
				g = Guard{Table: tables.add(g.Ranges)}
			}
			arm.Cases = append(arm.Cases, RCCase{Guard: g, Target: targets[k]})
		}
	}
	return p
}
