// Command lexgen compiles lexer automata to Go and runs them.
//
// Usage:
//
//	lexgen gen [flags] GLOB...
//	lexgen trace -dfa FILE [flags] [INPUT]
//
// gen compiles every YAML automaton matching the globs (doublestar syntax,
// e.g. "lexers/**/*.yaml") and writes x_lexer.go next to each x.yaml.
// trace runs one automaton over INPUT, or standard input, and prints its
// tokens and errors.
//
// Log output goes to standard error. LEXGEN_LOG_LEVEL selects the level
// (debug, info, warn, error); -v selects debug.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

const usage = `usage:
  lexgen gen [flags] GLOB...
  lexgen trace -dfa FILE [flags] [INPUT]
  lexgen version

Run "lexgen <command> -h" for command flags.
`

// run executes one command and returns the process exit code: 0 on success,
// 1 on failure, 2 on bad usage.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "gen":
		err = runGen(args[1:], stdout, stderr)
	case "trace":
		err = runTrace(args[1:], stdin, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "lexgen %s\n", Version)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "lexgen %s: %v\n", args[0], err)
		return 1
	}
}

// errUsage reports a flag error already printed by the flag set.
var errUsage = errors.New("usage")

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := parseLogLevel(getEnv("LEXGEN_LOG_LEVEL", "info"))
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
