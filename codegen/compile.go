package codegen

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/internal/sparse"
)

// Compile lowers d to a dispatch program.
//
// Every reachable state gets a dispatch arm unless it is inlined: a state is
// spliced into its predecessor when it has exactly one predecessor and is not
// state 0, a rule-set start or the target of an end-of-input transition.
// Unreachable states are dropped. Arms keep the relative order of their
// states, so state 0 is always arm 0.
func Compile(d *dfa.DFA, opts Options) (*Program, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, &Error{Message: "invalid automaton", Cause: err}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &compiler{
		dfa:    d,
		opts:   opts,
		logger: logger,
		tables: newTablePool(),
		blocks: make(map[dfa.StateID]*Block),
	}
	c.plan()

	p := &Program{
		Actions:     append([]dfa.Action(nil), d.Actions...),
		Inlined:     c.inlined,
		Unreachable: len(d.States) - c.reachable.Len(),
	}
	for i := range d.States {
		id := dfa.StateID(i)
		if c.renum[id] < 0 {
			continue
		}
		p.Arms = append(p.Arms, Arm{State: id, Block: c.block(id)})
	}
	for _, rs := range d.RuleSets {
		p.RuleSets = append(p.RuleSets, RuleSet{Name: rs.Name, Arm: c.renum[rs.Start]})
	}
	for _, rc := range d.RightCtx {
		p.RightCtx = append(p.RightCtx, compileRightCtx(rc, c.tables, c.opts.MaxGuardSize))
	}
	p.Tables = c.tables.tables

	logger.Debug("compiled dispatch program",
		"states", len(d.States),
		"arms", len(p.Arms),
		"inlined", p.Inlined,
		"unreachable", p.Unreachable,
		"tables", len(p.Tables),
		"right_contexts", len(p.RightCtx))
	return p, nil
}

type compiler struct {
	dfa    *dfa.DFA
	opts   Options
	logger *slog.Logger
	tables *tablePool

	reachable *sparse.Set
	parent    []dfa.StateID
	inline    []bool
	inlined   int
	renum     []int

	blocks map[dfa.StateID]*Block
}

// plan decides which states become arms and computes their arm indices.
func (c *compiler) plan() {
	n := len(c.dfa.States)
	c.reachable = sparse.New(n)
	c.parent = make([]dfa.StateID, n)
	for i := range c.parent {
		c.parent[i] = dfa.InvalidState
	}
	pinned := make([]bool, n)

	c.reachable.Insert(0)
	pinned[0] = true
	for _, rs := range c.dfa.RuleSets {
		c.reachable.Insert(uint32(rs.Start))
		pinned[rs.Start] = true
	}
	// Len grows while the worklist is walked.
	for i := 0; i < c.reachable.Len(); i++ {
		from := dfa.StateID(c.reachable.At(i))
		s := &c.dfa.States[from]
		if s.EOI != nil && s.EOI.Kind == dfa.TransGoto {
			pinned[s.EOI.Next] = true
		}
		s.Successors(func(t dfa.Trans) {
			if t.Kind != dfa.TransGoto {
				return
			}
			c.parent[t.Next] = from
			c.reachable.Insert(uint32(t.Next))
		})
	}

	c.inline = make([]bool, n)
	if c.opts.Inline {
		for i := range c.dfa.States {
			id := dfa.StateID(i)
			c.inline[i] = c.reachable.Contains(uint32(id)) && !pinned[i] &&
				c.dfa.States[i].Predecessors == 1
		}
		for i := range c.inline {
			if c.inline[i] && !c.anchored(dfa.StateID(i)) {
				c.inline[i] = false
			}
		}
	}

	c.renum = make([]int, n)
	arm := 0
	for i := range c.dfa.States {
		switch {
		case !c.reachable.Contains(uint32(i)):
			c.renum[i] = -1
		case c.inline[i]:
			c.renum[i] = -1
			c.inlined++
			c.logger.Debug("inline state", "state", i, "into", c.parent[i])
		default:
			c.renum[i] = arm
			arm++
		}
	}
}

// anchored reports whether following sole predecessors from id reaches a
// state with an arm. Otherwise id sits on a cycle of inlined states.
func (c *compiler) anchored(id dfa.StateID) bool {
	p := c.parent[id]
	for range c.inline {
		if p == dfa.InvalidState || p == id {
			return false
		}
		if !c.inline[p] {
			return true
		}
		p = c.parent[p]
	}
	return false
}

// block returns the code of state id, building it on first use.
func (c *compiler) block(id dfa.StateID) *Block {
	if b, ok := c.blocks[id]; ok {
		return b
	}
	s := &c.dfa.States[id]
	b := &Block{State: id, Start: id == 0}
	c.blocks[id] = b
	if id != 0 {
		b.Accepting = s.Accepting
	}
	b.Default = c.fallback(s)
	b.Cases = c.cases(s, &b.Default)
	b.EOI = c.endOfInput(id, s)
	return b
}

// cases orders the character tests of s: accepting chars one by one, chars
// grouped by destination, accepting ranges one by one, then ranges grouped by
// destination. Chars precede ranges, so an exact char always wins.
func (c *compiler) cases(s *dfa.State, def *Step) []Case {
	var out []Case
	charGroups := make(map[dfa.StateID][]rune)
	for _, r := range s.SortedChars() {
		t := s.Chars[r]
		if t.Kind == dfa.TransAccept {
			out = append(out, Case{
				Guard: Guard{Chars: []rune{r}, Table: -1},
				Step:  c.accept(t.Accept, def),
			})
			continue
		}
		charGroups[t.Next] = append(charGroups[t.Next], r)
	}
	for _, next := range sortedKeys(charGroups) {
		out = append(out, Case{
			Guard: Guard{Chars: charGroups[next], Table: -1},
			Step:  c.goTo(next),
		})
	}

	rangeGroups := make(map[dfa.StateID][][2]rune)
	for _, rg := range s.Ranges {
		if rg.Trans.Kind == dfa.TransAccept {
			out = append(out, Case{
				Guard: Guard{Ranges: [][2]rune{{rg.Lo, rg.Hi}}, Table: -1},
				Step:  c.accept(rg.Trans.Accept, def),
			})
			continue
		}
		rangeGroups[rg.Trans.Next] = append(rangeGroups[rg.Trans.Next], [2]rune{rg.Lo, rg.Hi})
	}
	for _, next := range sortedKeys(rangeGroups) {
		g := Guard{Ranges: rangeGroups[next], Table: -1}
		if len(g.Ranges) > c.opts.MaxGuardSize {
			g = Guard{Table: c.tables.add(g.Ranges)}
		}
		out = append(out, Case{Guard: g, Step: c.goTo(next)})
	}
	return out
}

// fallback is taken when no char or range matches.
func (c *compiler) fallback(s *dfa.State) Step {
	if s.Any == nil {
		return Step{Kind: StepBacktrack}
	}
	if s.Any.Kind == dfa.TransGoto {
		return c.goTo(s.Any.Next)
	}
	return c.accept(s.Any.Accept, &Step{Kind: StepBacktrack})
}

func (c *compiler) endOfInput(id dfa.StateID, s *dfa.State) Step {
	otherwise := Step{Kind: StepBacktrack}
	if id == 0 {
		otherwise = Step{Kind: StepEnd}
	}
	switch {
	case s.EOI == nil:
		return otherwise
	case s.EOI.Kind == dfa.TransGoto:
		// End-of-input targets are never inlined.
		return Step{Kind: StepGoto, Next: c.renum[s.EOI.Next]}
	default:
		return c.accept(s.EOI.Accept, &otherwise)
	}
}

func (c *compiler) goTo(next dfa.StateID) Step {
	if c.inline[next] {
		return Step{Kind: StepInline, Block: c.block(next)}
	}
	return Step{Kind: StepGoto, Next: c.renum[next]}
}

func (c *compiler) accept(cands []dfa.Accepting, otherwise *Step) Step {
	e := *otherwise
	return Step{Kind: StepAccept, Accept: cands, Else: &e}
}

func sortedKeys[V any](m map[dfa.StateID]V) []dfa.StateID {
	keys := make([]dfa.StateID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// tablePool deduplicates search tables.
type tablePool struct {
	tables [][][2]rune
	index  map[string]int
}

func newTablePool() *tablePool {
	return &tablePool{index: make(map[string]int)}
}

func (tp *tablePool) add(ranges [][2]rune) int {
	var sb strings.Builder
	for _, rg := range ranges {
		fmt.Fprintf(&sb, "%x-%x,", rg[0], rg[1])
	}
	key := sb.String()
	if i, ok := tp.index[key]; ok {
		return i
	}
	i := len(tp.tables)
	tp.tables = append(tp.tables, append([][2]rune(nil), ranges...))
	tp.index[key] = i
	return i
}
