// Package normalize folds display strings into comparable keys and coerces
// spreadsheet cells into numbers.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchKind ranks how a candidate matched a query. Higher is better.
type MatchKind int

// Match kinds.
const (
	MatchNone MatchKind = iota
	MatchSubstring
	MatchPrefix
	MatchExact
)

// Text lowercases s, folds accents, drops a leading "the ", turns
// punctuation into spaces and collapses whitespace runs.
func Text(s string) string {
	return fold(s, nil)
}

// Numeric is Text for numeric-looking cells: '%', '.' and '-' survive.
func Numeric(s string) string {
	return fold(s, func(r rune) bool { return r == '%' || r == '.' || r == '-' })
}

// Match compares a query and a candidate after normalizing both.
// An empty query matches everything as a prefix.
func Match(query, candidate string) MatchKind {
	q, c := Text(query), Text(candidate)
	switch {
	case q == c:
		return MatchExact
	case strings.HasPrefix(c, q):
		return MatchPrefix
	case strings.Contains(c, q):
		return MatchSubstring
	default:
		return MatchNone
	}
}

func fold(s string, keep func(rune) bool) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(accentFolder(), s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\'' || r == '’':
			// "Hedonite's" -> "hedonites"
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case keep != nil && keep(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	return strings.TrimPrefix(out, "the ")
}

// accentFolder is rebuilt per call: transform.Transformer values are stateful.
func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
