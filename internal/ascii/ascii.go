// Package ascii detects all-ASCII input so the cursor can decode one byte per
// rune without going through UTF-8 decoding.
package ascii

// hi8 has the high bit of every byte lane set.
const hi8 = uint64(0x8080808080808080)

// IsASCII reports whether every byte of s is below 0x80.
//
// It uses SWAR (SIMD Within A Register): eight bytes are packed into one
// uint64 and tested against hi8 in a single AND. Inputs shorter than eight
// bytes are checked byte by byte.
func IsASCII(s string) bool {
	n := len(s)
	if n < 8 {
		for i := 0; i < n; i++ {
			if s[i] >= 0x80 {
				return false
			}
		}
		return true
	}

	idx := 0
	for idx+8 <= n {
		if load64(s, idx)&hi8 != 0 {
			return false
		}
		idx += 8
	}

	for idx < n {
		if s[idx] >= 0x80 {
			return false
		}
		idx++
	}
	return true
}

// FirstNonASCII returns the index of the first non-ASCII byte, or -1 if all bytes are ASCII.
func FirstNonASCII(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return i
		}
	}
	return -1
}

// load64 reads eight bytes of s starting at i as a little-endian uint64.
func load64(s string, i int) uint64 {
	_ = s[i+7] // bounds check hint
	return uint64(s[i]) | uint64(s[i+1])<<8 | uint64(s[i+2])<<16 | uint64(s[i+3])<<24 |
		uint64(s[i+4])<<32 | uint64(s[i+5])<<40 | uint64(s[i+6])<<48 | uint64(s[i+7])<<56
}
