package textnorm

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Normalize prepares Persian review text for the tokenizer: compatibility forms
// are folded, Arabic letter variants are mapped to their Persian equivalents,
// short-vowel diacritics and tatweel are dropped and whitespace is collapsed.
// Zero-width non-joiners are kept because they are part of Persian spelling.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// Transformers hold state, so the chain is built per call
	t := transform.Chain(
		norm.NFKC,
		runes.Remove(runes.Predicate(isDroppable)),
		runes.Map(toPersian),
		width.Fold,
	)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	return strings.Join(strings.Fields(result), " ")
}

// NormalizeAll normalizes every text, preserving order
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = Normalize(text)
	}
	return out
}

// isDroppable reports Arabic harakat, superscript alef and tatweel
func isDroppable(r rune) bool {
	switch {
	case r >= '\u064b' && r <= '\u0652':
		return true
	case r == '\u0670', r == '\u0640':
		return true
	}
	return false
}

// toPersian maps Arabic code points to the forms used in Persian text
func toPersian(r rune) rune {
	switch {
	case r == 'ك':
		return 'ک'
	case r == 'ي', r == 'ى':
		return 'ی'
	case r == 'ة':
		return 'ه'
	case r >= '٠' && r <= '٩':
		return '۰' + (r - '٠')
	}
	return r
}
