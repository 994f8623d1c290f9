// Package recovery resynchronizes a lexing session after invalid input.
//
// On its own a session recovers from an InvalidToken error by dropping the
// failed match and restarting at the next character, which tends to produce
// a burst of errors inside one bad region. Panic-mode recovery instead drops
// everything up to and including the next synchronization literal, such as a
// statement terminator or a newline.
//
// Sync literals are located with an Aho-Corasick automaton, so the cost of a
// resync does not depend on the number of literals.
package recovery

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/coregx/ahocorasick"
	"github.com/coregx/lexgen/lexer"
)

var (
	// ErrNoLiterals indicates a Syncer was built without literals
	ErrNoLiterals = errors.New("recovery: no sync literals")

	// ErrEmptyLiteral indicates an empty sync literal, which would match everywhere
	ErrEmptyLiteral = errors.New("recovery: empty sync literal")
)

// Syncer finds synchronization literals in the input.
type Syncer struct {
	auto     *ahocorasick.Automaton
	literals []string
}

// NewSyncer builds a Syncer over the given literals.
func NewSyncer(literals ...string) (*Syncer, error) {
	if len(literals) == 0 {
		return nil, ErrNoLiterals
	}
	builder := ahocorasick.NewBuilder()
	for _, lit := range literals {
		if lit == "" {
			return nil, ErrEmptyLiteral
		}
		builder.AddPattern([]byte(lit))
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("recovery: build automaton: %w", err)
	}
	return &Syncer{
		auto:     auto,
		literals: append([]string(nil), literals...),
	}, nil
}

// Literals returns the sync literals in the order they were given.
func (s *Syncer) Literals() []string {
	return append([]string(nil), s.literals...)
}

// Next returns the byte span of the first sync literal in text that starts at
// or after at.
func (s *Syncer) Next(text []byte, at int) (start, end int, ok bool) {
	if at < 0 || at >= len(text) {
		return 0, 0, false
	}
	m := s.auto.Find(text, at)
	if m == nil {
		return 0, 0, false
	}
	return m.Start, m.End, true
}

// Source is a token stream that can skip input. *lexer.Lexer satisfies it.
type Source[T any] interface {
	Next() (lexer.Token[T], error)
	SkipTo(off int)
	Offset() int
	Input() string
}

// Resync returns an iterator over the tokens and errors of src. After an
// InvalidToken error it skips past the next sync literal, or to the end of
// input when none is left. Other errors are passed through without skipping.
// A nil Syncer leaves recovery to the session.
func Resync[T any](src Source[T], s *Syncer) iter.Seq2[lexer.Token[T], error] {
	return func(yield func(lexer.Token[T], error) bool) {
		var text []byte
		for {
			tok, err := src.Next()
			if err == io.EOF {
				return
			}
			if !yield(tok, err) {
				return
			}
			if s == nil || !errors.Is(err, lexer.ErrInvalidToken) {
				continue
			}
			if text == nil {
				text = []byte(src.Input())
			}
			if _, end, ok := s.Next(text, src.Offset()); ok {
				src.SkipTo(end)
			} else {
				src.SkipTo(len(text))
			}
		}
	}
}

// Collect drains src with Resync and returns the tokens and errors separately.
func Collect[T any](src Source[T], s *Syncer) ([]lexer.Token[T], []error) {
	var (
		toks []lexer.Token[T]
		errs []error
	)
	for tok, err := range Resync(src, s) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		toks = append(toks, tok)
	}
	return toks, errs
}
