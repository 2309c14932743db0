package formatting

import "strings"

// truncate collapses whitespace to single spaces and cuts s to max runes.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
