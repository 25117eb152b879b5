package answer

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  The French Revolution ", "french revolution"},
		{"a Tale of Two Cities", "tale of two cities"},
		{"An Apple", "apple"},
		{`"Casablanca"`, "casablanca"},
		{"Mt. Everest", "mt everest"},
		{"  what   is    love?", "what is love"},
		{"mother-in-law", "mother-in-law"},
		{"O'Brien", "o'brien"},
		{"re- entry", "re entry"},
		{"the", "the"}, // bare article is not stripped
		{"", ""},
		{"   ", ""},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeEmptyNeverMatches(t *testing.T) {
	m := DefaultMatcher()
	if m.Accepted("", "anything", nil) {
		t.Fatalf("empty answer must be rejected")
	}
	if m.Accepted("   ", "anything", nil) {
		t.Fatalf("whitespace answer must be rejected")
	}
}
