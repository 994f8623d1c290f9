package codegen

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/lexer"
	"github.com/stretchr/testify/require"
)

type testLexer = lexer.Lexer[string, struct{}]

var fixtures = []string{"ident.yaml", "rightctx.yaml", "ops.yaml", "strings.yaml", "unicode.yaml"}

func loadDFA(t testing.TB, name string) *dfa.DFA {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "testdata", name))
	require.NoError(t, err)
	d, err := dfa.ParseYAML(data)
	require.NoError(t, err, "ParseYAML(%s)", name)
	return d
}

// testActions implements simple actions as "name:match" and the rule-set
// switching actions of strings.yaml.
func testActions(d *dfa.DFA) lexer.Actions[string, struct{}] {
	acts := lexer.Actions[string, struct{}]{}
	for _, a := range d.Actions {
		if a.Kind != dfa.ActionSimple {
			continue
		}
		name := a.Name
		acts[name] = lexer.Simple(func(l *testLexer) string {
			return name + ":" + l.Match()
		})
	}
	acts["open"] = func(l *testLexer) lexer.Result[string] {
		l.Switch("Str")
		return lexer.Continue[string]()
	}
	acts["close"] = func(l *testLexer) lexer.Result[string] {
		return l.SwitchAndReturn("Init", "string:"+l.Match())
	}
	return acts
}

func describe(tok lexer.Token[string], err error) string {
	if err != nil {
		var le *lexer.Error
		if errors.As(err, &le) {
			return fmt.Sprintf("%s@%s:%d", le.Kind, le.Pos, le.Pos.Offset)
		}
		return "error:" + err.Error()
	}
	return fmt.Sprintf("%s@%s:%d-%s:%d", tok.Value, tok.Start, tok.Start.Offset, tok.End, tok.End.Offset)
}

func drain(t testing.TB, l *testLexer) []string {
	t.Helper()
	var out []string
	for i := 0; ; i++ {
		require.LessOrEqual(t, i, 1000, "no end of input: %v", out)
		tok, err := l.Next()
		if err == io.EOF {
			return out
		}
		out = append(out, describe(tok, err))
	}
}

func compile(t testing.TB, d *dfa.DFA, opts Options) *Program {
	t.Helper()
	p, err := Compile(d, opts)
	require.NoError(t, err)
	return p
}

func newDispatcher(t testing.TB, p *Program, acts lexer.Actions[string, struct{}]) *Dispatcher[string, struct{}] {
	t.Helper()
	disp, err := NewDispatcher(p, acts, lexer.DefaultConfig())
	require.NoError(t, err)
	return disp
}
