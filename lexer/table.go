package lexer

// InTable reports whether r falls in one of the sorted, disjoint inclusive
// ranges of table. Generated dispatchers use it in place of long guards.
func InTable(r rune, table [][2]rune) bool {
	lo, hi := 0, len(table)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		switch {
		case r < table[mid][0]:
			hi = mid
		case r > table[mid][1]:
			lo = mid + 1
		default:
			return true
		}
	}
	return false
}
