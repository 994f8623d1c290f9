package dfa

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v2"
)

// Document is the serialized form of a DFA.
//
// Characters are written either as a one-rune string ("a", "\n") or in
// U+XXXX notation. Quote keys that YAML would otherwise read as booleans
// ("y", "n"). Candidates refer to actions by name and to right contexts
// by index.
//
//	rule_sets:
//	  - {name: Init, start: 0}
//	actions:
//	  - {name: ident, kind: simple}
//	  - {name: space, kind: skip}
//	states:
//	  - ranges: [{lo: a, hi: z, goto: 1}]
//	    chars: {" ": {accept: [{action: space}]}}
//	  - ranges: [{lo: a, hi: z, goto: 1}]
//	    accepting: [{action: ident}]
type Document struct {
	RuleSets      []RuleSetDoc  `yaml:"rule_sets,omitempty"`
	Actions       []ActionDoc   `yaml:"actions"`
	States        []StateDoc    `yaml:"states"`
	RightContexts []RightCtxDoc `yaml:"right_contexts,omitempty"`
}

// RuleSetDoc is a serialized RuleSet.
type RuleSetDoc struct {
	Name  string `yaml:"name"`
	Start int    `yaml:"start"`
}

// ActionDoc is a serialized Action. Kind is one of skip, simple, custom.
type ActionDoc struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind,omitempty"`
}

// StateDoc is a serialized State.
type StateDoc struct {
	Chars     map[string]TransDoc `yaml:"chars,omitempty"`
	Ranges    []RangeDoc          `yaml:"ranges,omitempty"`
	Any       *TransDoc           `yaml:"any,omitempty"`
	EOI       *TransDoc           `yaml:"eoi,omitempty"`
	Accepting []CandidateDoc      `yaml:"accepting,omitempty"`

	// Final marks an accepting right-context state.
	Final bool `yaml:"final,omitempty"`
}

// RangeDoc is a serialized Range.
type RangeDoc struct {
	Lo       string `yaml:"lo"`
	Hi       string `yaml:"hi"`
	TransDoc `yaml:",inline"`
}

// TransDoc is a serialized Trans: exactly one of Goto and Accept is set.
type TransDoc struct {
	Goto   *int           `yaml:"goto,omitempty"`
	Accept []CandidateDoc `yaml:"accept,omitempty"`
}

// CandidateDoc is a serialized Accepting.
type CandidateDoc struct {
	Action   string `yaml:"action"`
	RightCtx *int   `yaml:"right_ctx,omitempty"`
}

// RightCtxDoc is a serialized right-context automaton.
type RightCtxDoc struct {
	States []StateDoc `yaml:"states"`
}

// ParseYAML decodes and builds a DFA from its YAML document form.
func ParseYAML(data []byte) (*DFA, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("dfa: decode yaml: %w", err)
	}
	return doc.Build()
}

// Build converts the document into a validated DFA.
func (doc *Document) Build() (*DFA, error) {
	b := NewBuilderWithCapacity(len(doc.States))
	actions := make(map[string]ActionID, len(doc.Actions))
	for _, a := range doc.Actions {
		kind, err := ParseActionKind(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("dfa: action %q: %w", a.Name, err)
		}
		if _, dup := actions[a.Name]; dup {
			return nil, fmt.Errorf("dfa: duplicate action %q", a.Name)
		}
		actions[a.Name] = b.AddAction(a.Name, kind)
	}
	for i, rc := range doc.RightContexts {
		rb := NewBuilderWithCapacity(len(rc.States))
		if err := rb.loadStates(rc.States, nil); err != nil {
			return nil, fmt.Errorf("dfa: right context %d: %w", i, err)
		}
		auto, err := rb.BuildRightCtx()
		if err != nil {
			return nil, fmt.Errorf("dfa: right context %d: %w", i, err)
		}
		b.AddRightCtx(auto)
	}
	if err := b.loadStates(doc.States, actions); err != nil {
		return nil, fmt.Errorf("dfa: %w", err)
	}
	for _, rs := range doc.RuleSets {
		if rs.Start < 0 {
			return nil, fmt.Errorf("dfa: rule set %q: %w", rs.Name, ErrUnknownState)
		}
		b.AddRuleSet(rs.Name, toStateID(rs.Start))
	}
	return b.Build()
}

// loadStates adds states from docs. A nil action table loads a right-context
// automaton, where only Final marks acceptance.
func (b *Builder) loadStates(docs []StateDoc, actions map[string]ActionID) error {
	for range docs {
		b.AddState()
	}
	for i, sd := range docs {
		id := toStateID(i)
		for key, td := range sd.Chars {
			r, err := parseRune(key)
			if err != nil {
				return err
			}
			t, err := td.trans(actions)
			if err != nil {
				return err
			}
			if err := b.AddChar(id, r, t); err != nil {
				return err
			}
		}
		for _, rd := range sd.Ranges {
			lo, err := parseRune(rd.Lo)
			if err != nil {
				return err
			}
			hi, err := parseRune(rd.Hi)
			if err != nil {
				return err
			}
			t, err := rd.trans(actions)
			if err != nil {
				return err
			}
			if err := b.AddRange(id, lo, hi, t); err != nil {
				return err
			}
		}
		if sd.Any != nil {
			t, err := sd.Any.trans(actions)
			if err != nil {
				return err
			}
			if err := b.SetAny(id, t); err != nil {
				return err
			}
		}
		if sd.EOI != nil {
			t, err := sd.EOI.trans(actions)
			if err != nil {
				return err
			}
			if err := b.SetEOI(id, t); err != nil {
				return err
			}
		}
		if sd.Final {
			if actions != nil {
				return fmt.Errorf("state %d: final is only valid in right contexts", i)
			}
			if err := b.MarkAccepting(id); err != nil {
				return err
			}
		}
		cands, err := candidates(sd.Accepting, actions)
		if err != nil {
			return err
		}
		for _, c := range cands {
			if err := b.AddAccepting(id, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (td *TransDoc) trans(actions map[string]ActionID) (Trans, error) {
	switch {
	case td.Goto != nil && len(td.Accept) == 0:
		if *td.Goto < 0 {
			return Trans{}, fmt.Errorf("%w: goto %d", ErrUnknownState, *td.Goto)
		}
		return Goto(toStateID(*td.Goto)), nil
	case td.Goto == nil && len(td.Accept) > 0:
		cands, err := candidates(td.Accept, actions)
		if err != nil {
			return Trans{}, err
		}
		return Accept(cands...), nil
	default:
		return Trans{}, fmt.Errorf("transition needs exactly one of goto and accept")
	}
}

func candidates(docs []CandidateDoc, actions map[string]ActionID) ([]Accepting, error) {
	out := make([]Accepting, 0, len(docs))
	for _, cd := range docs {
		id, ok := actions[cd.Action]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, cd.Action)
		}
		c := Unguarded(id)
		if cd.RightCtx != nil {
			if *cd.RightCtx < 0 {
				return nil, fmt.Errorf("%w: %d", ErrUnknownRightCtx, *cd.RightCtx)
			}
			c.RightCtx = RightCtxID(toStateID(*cd.RightCtx))
		}
		out = append(out, c)
	}
	return out, nil
}

func parseRune(s string) (rune, error) {
	if strings.HasPrefix(s, "U+") && len(s) > 2 {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidRune, s)
		}
		return rune(v), nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRune, s)
	}
	return r, nil
}
