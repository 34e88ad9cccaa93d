// Package strcase converts Go field names to the snake_case keys used in
// validation error payloads.
package strcase

import (
	"strings"
	"unicode"
)

// words splits an identifier at lower→upper transitions and at the end of an
// initialism: "RemindBeforeMinutes" → [Remind Before Minutes],
// "HTTPServer" → [HTTP Server], "GoalID" → [Goal ID].
func words(s string) []string {
	rs := []rune(s)
	var out []string
	start := 0
	for i := 1; i < len(rs); i++ {
		if !unicode.IsUpper(rs[i]) {
			continue
		}
		prev := rs[i-1]
		endsInitialism := unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
		if unicode.IsLower(prev) || unicode.IsDigit(prev) || endsInitialism {
			out = append(out, string(rs[start:i]))
			start = i
		}
	}
	if start < len(rs) {
		out = append(out, string(rs[start:]))
	}
	return out
}

// ToLowerSnake lowercases the words of s and joins them with underscores.
func ToLowerSnake(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}
