// Package match scores noisy speech transcripts against corpus lines and
// implements the two search strategies of the alignment engine: cold-start
// search over the whole corpus to establish an anchor, and windowed search
// near a known position to track recitation cheaply.
//
// One scoring algorithm is used throughout: a Levenshtein ratio on the
// canonical normalized forms, scaled to 0–100. The windowed path adds a
// position-weighted contextual component on top of the same base ratio, so
// thresholds from both strategies are directly comparable.
package match

import (
	"time"
	"unicode/utf8"

	"github.com/antzucaro/matchr"

	"github.com/banilabs/banitrack/internal/gurmukhi"
)

// Defaults for the matcher configuration. Cold-start favours precision (a
// false new-document anchor is costly); windowed favours recall (once
// anchored, missing a line stalls the highlight).
const (
	DefaultColdStartThreshold = 50
	DefaultMatraThreshold     = 55
	DefaultWindowedThreshold  = 30
	DefaultPhraseMinWords     = 2
	DefaultPhraseMaxWords     = 4
	DefaultLookahead          = 2
	DefaultEarlyExitScore     = 95
	DefaultCacheTTL           = 5 * time.Minute

	// wordMatchFloor is the per-word similarity needed for a transcript word
	// to count as an in-sequence match during contextual scoring.
	wordMatchFloor = 70

	// queryTailWords bounds how many trailing words feed candidate phrase
	// generation for windowed search.
	queryTailWords = 8
)

// Config tunes the matcher. Zero fields take the package defaults.
type Config struct {
	// ColdStartThreshold is the minimum 0–100 score for a cold-start result.
	ColdStartThreshold int

	// MatraThreshold is the (stricter) minimum score for the matra-stripped
	// retry stage of cold-start search.
	MatraThreshold int

	// WindowedThreshold is the (lower) minimum score for windowed search.
	WindowedThreshold int

	// PhraseMinWords and PhraseMaxWords bound the candidate phrase lengths
	// generated from the transcript tail for windowed search.
	PhraseMinWords int
	PhraseMaxWords int

	// Lookahead is K: windowed search scores lines current..current+K.
	Lookahead int

	// EarlyExitScore short-circuits a corpus scan once a line scores this
	// high; nothing later can be meaningfully better.
	EarlyExitScore int

	// CacheTTL bounds how long cold-start results are reused for identical
	// queries. Zero disables the cache; negative values keep the default.
	CacheTTL time.Duration
}

// withDefaults fills zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.ColdStartThreshold == 0 {
		c.ColdStartThreshold = DefaultColdStartThreshold
	}
	if c.MatraThreshold == 0 {
		c.MatraThreshold = DefaultMatraThreshold
	}
	if c.WindowedThreshold == 0 {
		c.WindowedThreshold = DefaultWindowedThreshold
	}
	if c.PhraseMinWords == 0 {
		c.PhraseMinWords = DefaultPhraseMinWords
	}
	if c.PhraseMaxWords == 0 {
		c.PhraseMaxWords = DefaultPhraseMaxWords
	}
	if c.Lookahead == 0 {
		c.Lookahead = DefaultLookahead
	}
	if c.EarlyExitScore == 0 {
		c.EarlyExitScore = DefaultEarlyExitScore
	}
	if c.CacheTTL < 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	return c
}

// Result is one accepted match. Exactly one of the two index interpretations
// applies depending on which search produced it: cold-start indexes into the
// library, windowed into the flattened resident sequence.
type Result struct {
	// LineIndex is the matched line's index.
	LineIndex int

	// Score is the 0–100 match score.
	Score int

	// Span is the text evidence: the candidate phrase (windowed) or query
	// form (cold-start) that produced the score.
	Span string

	// Stage names the strategy stage that matched: "full", "matraless",
	// "first-letters", "contextual", or "similarity".
	Stage string
}

// Similarity scores two strings on the unified 0–100 scale:
// round(100 × (1 − Levenshtein/maxRuneLen)) over normalized forms. Identical
// non-empty strings score 100; an empty side scores 0.
func Similarity(a, b string) int {
	return ratio(gurmukhi.Normalize(a), gurmukhi.Normalize(b))
}

// ratio is Similarity over already-normalized inputs.
func ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	max := la
	if lb > max {
		max = lb
	}
	d := matchr.Levenshtein(a, b)
	if d >= max {
		return 0
	}
	return int(100*float64(max-d)/float64(max) + 0.5)
}
