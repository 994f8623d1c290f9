package lexer_test

import (
	"errors"
	"fmt"

	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/lexer"
)

// wordsDFA accepts lowercase words and skips single spaces.
func wordsDFA() *dfa.DFA {
	b := dfa.NewBuilder()
	start := b.AddState()
	word := b.AddState()
	ident := b.AddAction("ident", dfa.ActionSimple)
	space := b.AddAction("space", dfa.ActionSkip)

	mustOK(b.AddRange(start, 'a', 'z', dfa.Goto(word)))
	mustOK(b.AddRange(word, 'a', 'z', dfa.Goto(word)))
	mustOK(b.AddAccepting(word, dfa.Unguarded(ident)))
	mustOK(b.AddChar(start, ' ', dfa.Accept(dfa.Unguarded(space))))

	d, err := b.Build()
	mustOK(err)
	return d
}

func mustOK(err error) {
	if err != nil {
		panic(err)
	}
}

// ExampleMachine runs an automaton directly from its tables.
func ExampleMachine() {
	m, err := lexer.NewMachine(wordsDFA(), lexer.Actions[string, struct{}]{
		"ident": lexer.Simple(func(l *lexer.Lexer[string, struct{}]) string {
			return l.Match()
		}),
	}, lexer.DefaultConfig())
	if err != nil {
		panic(err)
	}

	for tok, err := range m.Lexer("let x 1", struct{}{}).All() {
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%s %s-%s\n", tok.Value, tok.Start, tok.End)
	}
	// Output:
	// let 0:0-0:3
	// x 0:4-0:5
	// lexer: invalid token at 0:6
}

// ExampleNewMachine shows the error for a semantic action without an
// implementation.
func ExampleNewMachine() {
	_, err := lexer.NewMachine(wordsDFA(), lexer.Actions[string, struct{}]{}, lexer.DefaultConfig())
	fmt.Println(errors.Is(err, lexer.ErrInvalidConfig))
	fmt.Println(err)
	// Output:
	// true
	// lexer: no implementation for simple action "ident"
}
