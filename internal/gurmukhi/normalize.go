// Package gurmukhi canonicalizes Gurmukhi script text for resilient fuzzy
// comparison between noisy speech transcripts and corpus lines.
//
// Three forms are produced, from least to most aggressive:
//
//  1. Normalize — canonical NFC composition with nukta letter variants folded
//     to their base forms, scripture punctuation removed, and whitespace
//     collapsed. Vowel signs are preserved.
//  2. StripMatras — Normalize plus removal of all dependent vowel signs and
//     nasalisation/gemination marks, leaving only base consonant skeletons.
//  3. FirstLetters — the first rune of each whitespace-delimited token of the
//     normalized text, concatenated. A coarse key used as a last-resort
//     search fallback for short utterances.
//
// All functions are deterministic and idempotent: f(f(x)) == f(x) for every
// input, including the empty string.
package gurmukhi

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Gurmukhi combining marks. The nukta is folded away during Normalize (it
// distinguishes Persian-loan consonants that speech engines confuse freely);
// the rest are removed only by StripMatras.
const (
	adakBindi = 'ਁ'
	bindi     = 'ਂ'
	visarga   = 'ਃ'
	nukta     = '਼'
	virama    = '੍'
	udaat     = 'ੑ'
	tippi     = 'ੰ'
	addak     = 'ੱ'
	yakash    = 'ੵ'
)

// Normalize returns the canonical comparison form of text: NFC-composed,
// nukta variants folded (ਸ਼→ਸ, ਖ਼→ਖ, ਜ਼→ਜ …), danda and sentence punctuation
// removed, whitespace collapsed to single spaces, leading/trailing space
// trimmed. Empty or whitespace-only input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// Decompose so precomposed nukta letters (U+0A33, U+0A36, U+0A59…U+0A5E)
	// split into base consonant + combining nukta, then drop the nukta and
	// recompose.
	decomposed := norm.NFD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r == nukta || isPunct(r) {
			continue
		}
		b.WriteRune(r)
	}

	return collapseSpace(norm.NFC.String(b.String()))
}

// StripMatras returns the consonant-skeleton form of text: Normalize, then
// every dependent vowel sign, virama, and nasalisation or gemination mark is
// deleted. Useful when the transcription engine drops or invents matras.
func StripMatras(text string) string {
	normalized := Normalize(text)
	if normalized == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if isMatra(r) {
			continue
		}
		b.WriteRune(r)
	}
	return collapseSpace(b.String())
}

// FirstLetters normalizes text and concatenates the first rune of every
// whitespace-delimited token. "ਧੰਨ ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ" → "ਧਧਰਗ".
func FirstLetters(text string) string {
	normalized := Normalize(text)
	if normalized == "" {
		return ""
	}

	var b strings.Builder
	for _, word := range strings.Fields(normalized) {
		for _, r := range word {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

// isMatra reports whether r is a dependent vowel sign or one of the nasal /
// gemination / subjoining marks deleted by StripMatras.
func isMatra(r rune) bool {
	switch {
	case r >= 'ਾ' && r <= 'ੂ': // ਾ ਿ ੀ ੁ ੂ
		return true
	case r == 'ੇ' || r == 'ੈ': // ੇ ੈ
		return true
	case r == 'ੋ' || r == 'ੌ': // ੋ ੌ
		return true
	case r == virama || r == udaat || r == yakash:
		return true
	case r == adakBindi || r == bindi || r == visarga:
		return true
	case r == tippi || r == addak:
		return true
	}
	return false
}

// isPunct reports whether r is scripture or sentence punctuation stripped by
// Normalize. The danda (।) and double danda (॥) are verse delimiters in the
// source text, not content.
func isPunct(r rune) bool {
	switch r {
	case '।', '॥': // । ॥
		return true
	case '.', ',', '!', '?', ';', ':':
		return true
	}
	return false
}

// collapseSpace replaces every run of Unicode whitespace with a single space
// and trims the result.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
