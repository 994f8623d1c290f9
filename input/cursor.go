package input

import (
	"unicode/utf8"

	"github.com/coregx/lexgen/internal/ascii"
)

// Cursor is a read position in an immutable string.
//
// Copying a Cursor is O(1) and yields an independent view: advancing the copy
// never moves the original. Right-context lookahead relies on this.
type Cursor struct {
	src      string
	off      int
	asciiEnd int // bytes before asciiEnd are ASCII: one byte per rune
}

// NewCursor returns a cursor at the start of src.
func NewCursor(src string) Cursor {
	end := len(src)
	if !ascii.IsASCII(src) {
		end = ascii.FirstNonASCII(src)
	}
	return Cursor{src: src, asciiEnd: end}
}

// Next consumes one rune and returns it with its encoded size.
// At end of input size is 0. Invalid UTF-8 decodes as utf8.RuneError with size 1.
func (c *Cursor) Next() (rune, int) {
	if c.off >= len(c.src) {
		return 0, 0
	}
	if c.off < c.asciiEnd {
		r := rune(c.src[c.off])
		c.off++
		return r, 1
	}
	r, size := utf8.DecodeRuneInString(c.src[c.off:])
	c.off += size
	return r, size
}

// Peek returns the next rune without consuming it.
func (c Cursor) Peek() (rune, bool) {
	r, size := c.Next()
	return r, size > 0
}

// Offset returns the byte offset of the next rune.
func (c Cursor) Offset() int {
	return c.off
}

// Rest returns the unconsumed input.
func (c Cursor) Rest() string {
	return c.src[c.off:]
}

// AtEnd reports whether all input has been consumed.
func (c Cursor) AtEnd() bool {
	return c.off >= len(c.src)
}

// At returns a cursor over the same input positioned at byte offset off.
// Offsets outside the input are clamped.
func (c Cursor) At(off int) Cursor {
	switch {
	case off < 0:
		off = 0
	case off > len(c.src):
		off = len(c.src)
	}
	c.off = off
	return c
}
