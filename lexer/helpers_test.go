package lexer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/coregx/lexgen/dfa"
)

type testLexer = Lexer[string, struct{}]

func loadDFA(t *testing.T, name string) *dfa.DFA {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	d, err := dfa.ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML(%s) error = %v", name, err)
	}
	return d
}

// namedActions implements every simple action as "name:match".
func namedActions(d *dfa.DFA) Actions[string, struct{}] {
	acts := Actions[string, struct{}]{}
	for _, a := range d.Actions {
		if a.Kind != dfa.ActionSimple {
			continue
		}
		name := a.Name
		acts[name] = Simple(func(l *testLexer) string {
			return name + ":" + l.Match()
		})
	}
	return acts
}

// stringActions adds the rule-set switching actions of strings.yaml.
func stringActions(d *dfa.DFA) Actions[string, struct{}] {
	acts := namedActions(d)
	acts["open"] = func(l *testLexer) Result[string] {
		l.Switch("Str")
		return Continue[string]()
	}
	acts["close"] = func(l *testLexer) Result[string] {
		return l.SwitchAndReturn("Init", "string:"+l.Match())
	}
	return acts
}

func newMachine(t *testing.T, d *dfa.DFA, acts Actions[string, struct{}]) *Machine[string, struct{}] {
	t.Helper()
	m, err := NewMachine(d, acts, DefaultConfig())
	if err != nil {
		t.Fatalf("NewMachine() error = %v", err)
	}
	return m
}

// describe renders a Next result as "value@start-end" or "Kind@line:col:offset".
func describe(tok Token[string], err error) string {
	if err != nil {
		var le *Error
		if errors.As(err, &le) {
			return fmt.Sprintf("%s@%d:%d:%d", le.Kind, le.Pos.Line, le.Pos.Column, le.Pos.Offset)
		}
		return "error:" + err.Error()
	}
	return fmt.Sprintf("%s@%d-%d", tok.Value, tok.Start.Offset, tok.End.Offset)
}

// drain collects every result up to end of input.
func drain(t *testing.T, l *testLexer) []string {
	t.Helper()
	var out []string
	for i := 0; ; i++ {
		if i > 1000 {
			t.Fatalf("no end of input after %d results: %v", i, out)
		}
		tok, err := l.Next()
		if err == io.EOF {
			return out
		}
		out = append(out, describe(tok, err))
	}
}
