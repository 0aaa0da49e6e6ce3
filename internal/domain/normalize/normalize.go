// Package normalize prepares raw text for embedding and indexing.
package normalize

import (
	"strings"
	"unicode"
)

// MaxTextLength is the embedding model's input ceiling in runes.
const MaxTextLength = 8000

// Text trims, collapses whitespace runs to a single space, strips characters
// outside letters/digits/whitespace, and truncates to MaxTextLength runes.
// Deterministic and idempotent; empty input yields empty output.
// Document-side and query-side text must pass through here identically so
// stored and queried vectors share one normalization space.
func Text(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	written := 0

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			inSpace = true
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if inSpace && written > 0 {
				if written+1 >= MaxTextLength {
					return b.String()
				}
				b.WriteRune(' ')
				written++
			}
			inSpace = false
			if written >= MaxTextLength {
				return b.String()
			}
			b.WriteRune(r)
			written++
		default:
			// drop punctuation and symbols
		}
	}

	return b.String()
}
