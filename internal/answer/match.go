package answer

import "strings"

// Tolerance maps candidate length to the number of edits allowed when
// comparing a user answer against an accepted candidate. Short candidates
// must match exactly so trivially wrong answers are not waved through.
type Tolerance struct {
	ExactMaxLen   int // candidates up to this many runes allow 0 edits
	OneEditMaxLen int // candidates up to this many runes allow 1 edit
}

// DefaultTolerance is the tier table used when none is configured.
func DefaultTolerance() Tolerance {
	return Tolerance{ExactMaxLen: 3, OneEditMaxLen: 7}
}

func (t Tolerance) allowedEdits(candidateLen int) int {
	switch {
	case candidateLen <= t.ExactMaxLen:
		return 0
	case candidateLen <= t.OneEditMaxLen:
		return 1
	default:
		return 2
	}
}

// Matcher decides accept/reject for a user answer against a canonical answer
// plus a set of override texts. It holds only configuration; Accepted is a
// pure function of its inputs, which is what makes replay-based repair sound.
type Matcher struct {
	tol Tolerance
}

func NewMatcher(tol Tolerance) Matcher {
	return Matcher{tol: tol}
}

func DefaultMatcher() Matcher {
	return Matcher{tol: DefaultTolerance()}
}

// Accepted reports whether userAnswer matches any canonical alternative or
// override, exactly or within the length-scaled edit tolerance.
func (m Matcher) Accepted(userAnswer, canonicalAnswer string, overrides []string) bool {
	got := Normalize(userAnswer)
	if got == "" {
		return false
	}

	candidates := Alternatives(canonicalAnswer)
	for _, o := range overrides {
		candidates = append(candidates, Normalize(o))
	}

	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if got == cand {
			return true
		}
		if levenshtein(got, cand) <= m.tol.allowedEdits(len([]rune(cand))) {
			return true
		}
	}
	return false
}

// Alternatives expands a canonical answer into its normalized accepted forms.
// The dataset encodes variants two ways: slash-separated alternatives
// ("Holland/The Netherlands") and parenthetical optional fragments
// ("Mount (Mt.) Everest" accepts both "mount everest" and "mt everest").
func Alternatives(canonicalAnswer string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		n := Normalize(s)
		if n == "" {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	for _, part := range strings.Split(canonicalAnswer, "/") {
		for _, variant := range expandParens(part) {
			add(variant)
		}
	}
	return out
}

// expandParens resolves the first parenthetical group as dropped, kept in
// place, or substituted for the preceding word, then recurses for any
// remaining groups.
func expandParens(s string) []string {
	open := strings.Index(s, "(")
	if open < 0 {
		return []string{s}
	}
	end := strings.Index(s[open:], ")")
	if end < 0 {
		return []string{s}
	}
	end += open

	before := s[:open]
	inner := s[open+1 : end]
	after := s[end+1:]

	variants := []string{
		before + after,
		before + inner + after,
	}
	if prefix, ok := dropLastWord(before); ok {
		variants = append(variants, prefix+inner+after)
	}

	var out []string
	for _, v := range variants {
		out = append(out, expandParens(v)...)
	}
	return out
}

// dropLastWord removes the trailing word of s, reporting whether one existed.
func dropLastWord(s string) (string, bool) {
	trimmed := strings.TrimRight(s, " \t")
	if trimmed == "" {
		return "", false
	}
	i := strings.LastIndexAny(trimmed, " \t")
	if i < 0 {
		return "", true
	}
	return trimmed[:i+1], true
}

// levenshtein computes edit distance with unit-cost insert/delete/substitute.
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min3(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
		}
	}
	return dp[m]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
