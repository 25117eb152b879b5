package answer

import (
	"strings"
	"unicode"
)

const quoteRunes = "\"'“”‘’`"

// Normalize converts raw answer text into the canonical comparison form used
// for both storage (override texts) and matching: trim, lowercase, strip
// surrounding quotes, drop a single leading article, drop punctuation except
// hyphens and apostrophes inside a word, collapse whitespace runs.
// Never fails; empty input normalizes to "" which matches nothing.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, quoteRunes)
	s = stripLeadingArticle(s)

	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	space := false
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r):
			space = true
		case r == '-' || r == '\'', r == '’':
			// keep only when joining two word characters
			if !space && i > 0 && i+1 < len(runes) && isWordRune(runes[i-1]) && isWordRune(runes[i+1]) {
				if r == '’' {
					r = '\''
				}
				out = append(out, r)
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, r)
		}
	}
	return string(out)
}

// stripLeadingArticle removes one leading "a", "an", or "the" token when it is
// followed by whitespace. A bare article is left alone.
func stripLeadingArticle(s string) string {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i <= 0 {
		return s
	}
	switch s[:i] {
	case "a", "an", "the":
		return strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	return s
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
