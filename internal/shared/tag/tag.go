// Package tag normalizes user supplied labels on todos and notes.
package tag

import (
	"strings"

	"github.com/samber/lo"
)

// Max is the number of tags kept per item.
const Max = 10

// MaxLength is the longest tag accepted, in bytes.
const MaxLength = 32

// Normalize trims, lower-cases and de-duplicates tags, dropping empty ones.
// Order of first appearance is kept and the result never exceeds Max.
func Normalize(tags []string) []string {
	out := lo.Uniq(lo.FilterMap(tags, func(t string, _ int) (string, bool) {
		t = strings.ToLower(strings.TrimSpace(t))
		return t, t != ""
	}))
	if len(out) > Max {
		out = out[:Max]
	}
	return out
}

// Valid reports whether every tag fits MaxLength.
func Valid(tags []string) bool {
	return lo.EveryBy(tags, func(t string) bool { return len(t) <= MaxLength })
}
