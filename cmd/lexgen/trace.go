package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/coregx/lexgen/dfa"
	"github.com/coregx/lexgen/internal/conv"
	"github.com/coregx/lexgen/lexer"
	"github.com/coregx/lexgen/recovery"
)

type traceLexer = lexer.Lexer[string, struct{}]

func runTrace(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("dfa", "", "YAML automaton `file`")
	tabWidth := fs.Uint("tab-width", uint(lexer.DefaultConfig().TabWidth), "columns per tab")
	sync := fs.String("sync", "", "comma-separated `literals` to skip to after an invalid token")
	verbose := fs.Bool("v", false, "log backtracking failures and rule-set switches")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *path == "" || fs.NArg() > 1 {
		fmt.Fprintln(stderr, "trace: need -dfa FILE and at most one INPUT")
		fs.Usage()
		return errUsage
	}

	width, ok := conv.UintToUint32(*tabWidth)
	if !ok {
		return fmt.Errorf("tab width %d out of range", *tabWidth)
	}

	d, err := loadDFA(*path)
	if err != nil {
		return err
	}
	cfg := lexer.DefaultConfig().
		WithTabWidth(width).
		WithLogger(newLogger(stderr, *verbose))
	m, err := lexer.NewMachine(d, traceActions(d), cfg)
	if err != nil {
		return err
	}

	var syncer *recovery.Syncer
	if *sync != "" {
		if syncer, err = recovery.NewSyncer(strings.Split(*sync, ",")...); err != nil {
			return err
		}
	}

	src := fs.Arg(0)
	if fs.NArg() == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		src = string(data)
	}

	tokens, errs := 0, 0
	for tok, err := range recovery.Resync[string](m.Lexer(src, struct{}{}), syncer) {
		if err != nil {
			errs++
			fmt.Fprintf(stdout, "error\t%v\n", err)
			continue
		}
		tokens++
		fmt.Fprintf(stdout, "%s-%s\t%s\t%q\n", tok.Start, tok.End, tok.Value,
			src[tok.Start.Offset:tok.End.Offset])
	}
	fmt.Fprintf(stdout, "%d tokens, %d errors\n", tokens, errs)
	return nil
}

// traceActions makes every non-skip action return its own name.
func traceActions(d *dfa.DFA) lexer.Actions[string, struct{}] {
	acts := lexer.Actions[string, struct{}]{}
	for _, a := range d.Actions {
		if a.Kind == dfa.ActionSkip {
			continue
		}
		name := a.Name
		acts[name] = lexer.Simple(func(*traceLexer) string { return name })
	}
	return acts
}
