package gurmukhi_test

import (
	"testing"
	"unicode/utf8"

	"github.com/banilabs/banitrack/internal/gurmukhi"
)

// sampleLines are real corpus lines covering matras, tippi, addak, nukta
// variants, and danda punctuation.
var sampleLines = []string{
	"ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ ਨਿਰਭਉ ਨਿਰਵੈਰੁ",
	"ਧੰਨ ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ ਜਿਨਿ ਸਿਰਿਆ ਤਿਨੈ ਸਵਾਰਿਆ ॥",
	"ਗੁਰਮੁਖਿ ਲਾਧਾ ਮਨਮੁਖਿ ਗਵਾਇਆ ॥",
	"ਸੋ ਦਰੁ ਕੇਹਾ ਸੋ ਘਰੁ ਕੇਹਾ ਜਿਤੁ ਬਹਿ ਸਰਬ ਸਮਾਲੇ ॥",
	"ਜ਼ਰਾ ਸ਼ਬਦ ਖ਼ਾਸ",
}

func TestNormalizeIdempotent(t *testing.T) {
	cases := append([]string{"", "   ", "\t\n", "ਇਕ  ਦੋ\tਤਿੰਨ"}, sampleLines...)
	for _, in := range cases {
		once := gurmukhi.Normalize(in)
		twice := gurmukhi.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeEmptyAndWhitespace(t *testing.T) {
	for _, in := range []string{"", " ", "  \t\n  "} {
		if got := gurmukhi.Normalize(in); got != "" {
			t.Errorf("Normalize(%q) = %q, want empty", in, got)
		}
	}
}

func TestNormalizeStripsPunctuation(t *testing.T) {
	got := gurmukhi.Normalize("ਗੁਰਮੁਖਿ ਲਾਧਾ ਮਨਮੁਖਿ ਗਵਾਇਆ ॥")
	want := "ਗੁਰਮੁਖਿ ਲਾਧਾ ਮਨਮੁਖਿ ਗਵਾਇਆ"
	if got != want {
		t.Errorf("Normalize danda: got %q, want %q", got, want)
	}
}

func TestNormalizeFoldsNuktaVariants(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ਸ਼ਬਦ", "ਸਬਦ"},
		{"ਖ਼ਾਸ", "ਖਾਸ"},
		{"ਜ਼ਰਾ", "ਜਰਾ"},
		{"ਫ਼ਕੀਰ", "ਫਕੀਰ"},
	}
	for _, tt := range tests {
		if got := gurmukhi.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := gurmukhi.Normalize("  ਇਕ   ਦੋ \t ਤਿੰਨ  ")
	if got != "ਇਕ ਦੋ ਤਿੰਨ" {
		t.Errorf("Normalize whitespace: got %q", got)
	}
}

func TestStripMatras(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ਸਤਿ ਨਾਮੁ", "ਸਤ ਨਮ"},
		{"ਧੰਨ", "ਧਨ"},
		{"ਗੁਰੂ", "ਗਰ"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := gurmukhi.StripMatras(tt.in); got != tt.want {
			t.Errorf("StripMatras(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripMatrasIdempotent(t *testing.T) {
	for _, in := range sampleLines {
		once := gurmukhi.StripMatras(in)
		if twice := gurmukhi.StripMatras(once); once != twice {
			t.Errorf("StripMatras not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestFirstLetters(t *testing.T) {
	got := gurmukhi.FirstLetters("ਧੰਨ ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ")
	if got != "ਧਧਰਗ" {
		t.Errorf("FirstLetters = %q, want %q", got, "ਧਧਰਗ")
	}
	if n := utf8.RuneCountInString(got); n != 4 {
		t.Errorf("FirstLetters rune count = %d, want 4", n)
	}
}

func TestFirstLettersEmpty(t *testing.T) {
	if got := gurmukhi.FirstLetters("   "); got != "" {
		t.Errorf("FirstLetters(whitespace) = %q, want empty", got)
	}
}
