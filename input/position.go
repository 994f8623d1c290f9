// Package input provides the lexer's view of its source text: a position
// tracker and a cheaply copyable cursor over an immutable string.
package input

import (
	"fmt"

	"golang.org/x/text/width"
)

// DefaultTabWidth is the column advance of a tab character.
const DefaultTabWidth = 4

// Position is a location in the source text. Line and Column are 0-based.
type Position struct {
	Line   uint32
	Column uint32
	Offset int // byte offset
}

// String returns the position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Advance moves the position past r, which occupies size bytes of input.
//
// A newline starts a new line at column 0 and a tab advances the column by
// tabWidth. Other characters advance the column by their display width:
// 2 for East Asian wide and fullwidth characters, 1 for everything else,
// including zero-width and ambiguous characters.
func (p *Position) Advance(r rune, size int, tabWidth uint32) {
	p.Offset += size
	switch r {
	case '\n':
		p.Line++
		p.Column = 0
	case '\t':
		p.Column += tabWidth
	default:
		p.Column += RuneWidth(r)
	}
}

// RuneWidth returns the number of columns r occupies.
func RuneWidth(r rune) uint32 {
	if r < 0x1100 {
		// Nothing below U+1100 is wide.
		return 1
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}
