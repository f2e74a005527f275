package metadata

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a label for comparison: decompose, drop combining marks,
// lowercase, trim.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.TrimSpace(strings.ToLower(folded))
}

// prioritySynonyms maps a normalized input to the canonical priority name.
var prioritySynonyms = func() map[string]string {
	table := map[string][]string{
		"alta":       {"alta", "high"},
		"media":      {"media", "média", "medium"},
		"baixa":      {"baixa", "low"},
		"mais alta":  {"mais alta", "highest"},
		"mais baixa": {"mais baixa", "lowest"},
	}

	out := make(map[string]string)
	for canonical, words := range table {
		for _, w := range words {
			out[Normalize(w)] = canonical
		}
	}
	return out
}()
