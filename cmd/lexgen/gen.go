package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/coregx/lexgen/codegen"
	"github.com/coregx/lexgen/dfa"
)

type genFlags struct {
	pkg      string
	name     string
	token    string
	state    string
	out      string
	maxGuard int
	noInline bool
	verbose  bool
}

func runGen(args []string, stdout, stderr io.Writer) error {
	var gf genFlags
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&gf.pkg, "pkg", "", "package `name` of the generated files (default: the directory name)")
	fs.StringVar(&gf.name, "name", "", "declaration `prefix` (default: derived from the file name)")
	fs.StringVar(&gf.token, "token", "string", "token value `type`; import/path.Type imports the package")
	fs.StringVar(&gf.state, "state", "struct{}", "user state `type`; import/path.Type imports the package")
	fs.StringVar(&gf.out, "out", "", "output `file` (single input only)")
	fs.IntVar(&gf.maxGuard, "max-guard", codegen.DefaultMaxGuardSize, "largest range group tested without a search table")
	fs.BoolVar(&gf.noInline, "no-inline", false, "give every reachable state its own dispatch arm")
	fs.BoolVar(&gf.verbose, "v", false, "log optimizer decisions")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "gen: no input globs")
		fs.Usage()
		return errUsage
	}

	logger := newLogger(stderr, gf.verbose)
	files, err := expandGlobs(fs.Args())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %s", strings.Join(fs.Args(), " "))
	}
	if gf.out != "" && len(files) > 1 {
		return fmt.Errorf("-out needs a single input, got %d", len(files))
	}

	opts := codegen.DefaultOptions().
		WithMaxGuardSize(gf.maxGuard).
		WithInline(!gf.noInline).
		WithLogger(logger)
	for _, file := range files {
		target := gf.out
		if target == "" {
			target = strings.TrimSuffix(file, filepath.Ext(file)) + "_lexer.go"
		}
		if err := generate(file, target, gf, opts); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		logger.Info("generated lexer", "source", file, "output", target)
		fmt.Fprintln(stdout, target)
	}
	return nil
}

// expandGlobs returns the sorted, de-duplicated files matching patterns.
func expandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("invalid glob %q", pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func generate(file, target string, gf genFlags, opts codegen.Options) error {
	d, err := loadDFA(file)
	if err != nil {
		return err
	}
	p, err := codegen.Compile(d, opts)
	if err != nil {
		return err
	}

	eo := codegen.EmitOptions{
		Package:   gf.pkg,
		Name:      gf.name,
		TokenType: gf.token,
		StateType: gf.state,
		Header:    "Source: " + filepath.Base(file),
	}
	if eo.Package == "" {
		abs, err := filepath.Abs(target)
		if err != nil {
			return err
		}
		eo.Package = filepath.Base(filepath.Dir(abs))
	}
	if eo.Name == "" {
		eo.Name = codegen.ExportName(strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
	}
	if eo.Name == "" {
		return errors.New("cannot derive a name from the file name; use -name")
	}

	src, err := codegen.Emit(p, eo)
	if err != nil {
		return err
	}
	st := p.Stats()
	opts.Logger.Debug("program shape",
		"source", file,
		"arms", st.Arms,
		"inlined", st.Inlined,
		"unreachable", st.Unreachable,
		"guards", st.Guards,
		"tables", st.Tables)
	return os.WriteFile(target, src, 0o644)
}

func loadDFA(file string) (*dfa.DFA, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return dfa.ParseYAML(data)
}
