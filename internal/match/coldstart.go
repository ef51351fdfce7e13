package match

import (
	"strings"
	"unicode/utf8"

	"github.com/banilabs/banitrack/internal/cache"
	"github.com/banilabs/banitrack/pkg/corpus"
)

// minFirstLetterKey is the shortest first-letter key worth searching on.
// Shorter keys match too many lines to anchor safely.
const minFirstLetterKey = 4

// Matcher performs fuzzy search over a fixed line library. It is immutable
// after construction apart from its internal result cache and safe for
// concurrent use.
type Matcher struct {
	cfg  Config
	lib  *corpus.Library
	idx  *invertedIndex
	cold *cache.TTL[string, Result]
}

// NewMatcher builds a matcher (and its word index) over lib.
func NewMatcher(lib *corpus.Library, cfg Config) *Matcher {
	cfg = cfg.withDefaults()
	return &Matcher{
		cfg:  cfg,
		lib:  lib,
		idx:  buildIndex(lib),
		cold: cache.New[string, Result](cfg.CacheTTL),
	}
}

// Config returns the resolved configuration.
func (m *Matcher) Config() Config { return m.cfg }

// ColdStart searches the whole library for the line best matching query,
// with no positional prior. A spoken fragment is usually much shorter than
// its corpus line, so scoring is partial: the query is compared against
// same-length word windows of each line, not only the whole line. Three
// stages run in order, each only when the previous found nothing above its
// threshold:
//
//  1. full normalized text against [corpus.Line].Normalized
//  2. matra-stripped skeletons, at the stricter matra threshold
//  3. first-letter keys, for heavily garbled transcripts
//
// Results for identical queries are served from a TTL cache. The second
// return is false when no stage produced a score at or above its threshold.
func (m *Matcher) ColdStart(query string) (Result, bool) {
	q := queryForms(query)
	if q.normalized == "" {
		return Result{}, false
	}

	if r, ok := m.cold.Get(q.normalized); ok {
		return r, true
	}

	r, ok := m.coldStages(q)
	if ok {
		m.cold.Set(q.normalized, r)
	}
	return r, ok
}

type query struct {
	normalized   string
	matraless    string
	firstLetters string
}

func queryForms(raw string) query {
	line := corpus.NewLine(raw)
	return query{
		normalized:   line.Normalized,
		matraless:    line.Matraless,
		firstLetters: line.FirstLetters,
	}
}

func (m *Matcher) coldStages(q query) (Result, bool) {
	qWords := strings.Fields(q.normalized)
	scoreNormalized := func(l corpus.Line) int {
		return phraseSimilarity(qWords, strings.Fields(l.Normalized))
	}

	// Stage 1: normalized text over index candidates, full scan fallback.
	indices := m.idx.candidates(q.normalized)
	if r, ok := m.scanLibrary(indices, scoreNormalized, m.cfg.ColdStartThreshold, "full", q.normalized); ok {
		return r, true
	}
	if indices != nil {
		if r, ok := m.scanLibrary(nil, scoreNormalized, m.cfg.ColdStartThreshold, "full", q.normalized); ok {
			return r, true
		}
	}

	// Stage 2: consonant skeletons. Stricter threshold, since stripping
	// matras collapses many near-misses into false positives.
	if q.matraless != "" {
		mWords := strings.Fields(q.matraless)
		scoreMatraless := func(l corpus.Line) int {
			return phraseSimilarity(mWords, strings.Fields(l.Matraless))
		}
		if r, ok := m.scanLibrary(nil, scoreMatraless, m.cfg.MatraThreshold, "matraless", q.matraless); ok {
			return r, true
		}
	}

	// Stage 3: first-letter keys, containment-style.
	if utf8.RuneCountInString(q.firstLetters) >= minFirstLetterKey {
		scoreLetters := func(l corpus.Line) int {
			return letterKeyScore(q.firstLetters, l.FirstLetters)
		}
		if r, ok := m.scanLibrary(nil, scoreLetters, m.cfg.ColdStartThreshold, "first-letters", q.firstLetters); ok {
			return r, true
		}
	}

	return Result{}, false
}

// scanLibrary scores every candidate line (all lines when indices is nil) and
// returns the best result at or above threshold. Ties go to the lowest line
// index; a score at or above the early-exit bound stops the scan.
func (m *Matcher) scanLibrary(indices []int, score func(corpus.Line) int, threshold int, stage, span string) (Result, bool) {
	best := Result{LineIndex: -1, Stage: stage, Span: span}
	visit := func(i int) bool {
		s := score(m.lib.At(i))
		if s > best.Score {
			best.Score = s
			best.LineIndex = i
		}
		return s >= m.cfg.EarlyExitScore
	}

	if indices == nil {
		for i := 0; i < m.lib.Len(); i++ {
			if visit(i) {
				break
			}
		}
	} else {
		for _, i := range indices {
			if visit(i) {
				break
			}
		}
	}

	if best.LineIndex < 0 || best.Score < threshold {
		return Result{}, false
	}
	return best, true
}

// letterKeyScore compares a query first-letter key against a line key. A key
// contained verbatim in the line key is a full match; otherwise the best
// same-length rune window is scored.
func letterKeyScore(qKey, lineKey string) int {
	if strings.Contains(lineKey, qKey) {
		return 100
	}
	qr := []rune(qKey)
	lr := []rune(lineKey)
	if len(qr) >= len(lr) {
		return ratio(qKey, lineKey)
	}
	best := 0
	for s := 0; s+len(qr) <= len(lr); s++ {
		if r := ratio(qKey, string(lr[s:s+len(qr)])); r > best {
			best = r
		}
	}
	return best
}

// SearchLines runs a cold-start style partial scan over an arbitrary line
// slice (typically the resident sequence) instead of the library, at the
// cold-start threshold. Used to re-anchor within already-fetched documents
// before falling back to the whole corpus.
func (m *Matcher) SearchLines(lines []corpus.SeqLine, queryText string) (Result, bool) {
	q := queryForms(queryText)
	if q.normalized == "" || len(lines) == 0 {
		return Result{}, false
	}
	qWords := strings.Fields(q.normalized)

	best := Result{LineIndex: -1, Stage: "full", Span: q.normalized}
	for i, sl := range lines {
		s := phraseSimilarity(qWords, strings.Fields(sl.Line.Normalized))
		if s > best.Score {
			best.Score = s
			best.LineIndex = i
		}
		if s >= m.cfg.EarlyExitScore {
			break
		}
	}

	if best.LineIndex < 0 || best.Score < m.cfg.ColdStartThreshold {
		return Result{}, false
	}
	return best, true
}
