package game

import (
	"strings"

	"github.com/lox/gofish/internal/deck"
)

// NormalizeGuess canonicalises raw guess text: surrounding space is trimmed,
// the word is title-cased, and a trailing "s" is stripped so "jacks" becomes
// "Jack". The plural strip is purely textual and applies to every guess, so
// "6s" also normalises to "6".
func NormalizeGuess(raw string) string {
	g := strings.TrimSpace(raw)
	if g == "" {
		return g
	}

	g = strings.ToUpper(g[:1]) + strings.ToLower(g[1:])
	if strings.HasSuffix(g, "s") {
		g = strings.TrimSuffix(g, "s")
	}
	return g
}

// ParseGuess normalises raw guess text and resolves it to a rank. The second
// return is the normalized form; the third is false when the text does not
// name a rank at all.
func ParseGuess(raw string) (deck.Rank, string, bool) {
	normalized := NormalizeGuess(raw)
	for _, r := range deck.Ranks() {
		if r.String() == normalized {
			return r, normalized, true
		}
	}
	return 0, normalized, false
}
