package strings

import (
	"strings"
)

// CellMaxLen is the default width of free-text table cells such as parse
// errors and flag reasons.
const CellMaxLen = 60

// minLen leaves room for one character plus "...".
const minLen = 4

// Truncate collapses s to a single line and shortens it to maxLen runes,
// ending in "..." when cut. maxLen below 4 is treated as 4.
func Truncate(s string, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
