package domain

import "strings"

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
