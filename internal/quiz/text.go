package quiz

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeText is the comparison key for option texts: NFC, case-folded,
// whitespace collapsed. "To Eat" and " to  eat" collide.
func normalizeText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(norm.NFC.String(s))
}

// distinctTexts reports whether no two texts share a comparison key.
func distinctTexts(texts []string) bool {
	seen := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		key := normalizeText(t)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}
