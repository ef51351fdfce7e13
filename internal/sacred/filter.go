// Package sacred detects and strips fixed liturgical interjections from
// transcript text. Congregational exclamations ("ਵਾਹਿਗੁਰੂ", the jaikara, the
// fateh) are shouted between and over recited lines; left in the transcript
// they inflate apparent content length and corrupt search queries, so the
// filter is applied both to the subtitle preview and to text before it is
// counted or sent as a search query.
//
// Patterns are matched longest-first: once a longer phrase has consumed a
// region of text, its sub-phrases can only match whatever remains. Ties in
// length resolve by table order. A second pass over already-filtered text is
// a no-op.
package sacred

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Phrase is one liturgical phrase in its original-script and
// roman-transliteration forms. Either form may be empty.
type Phrase struct {
	// Name is a stable identifier for logging and display.
	Name string

	// Gurmukhi is the original-script form, matched literally.
	Gurmukhi string

	// Roman is the transliterated form, matched case-insensitively.
	Roman string
}

// Match records the first detected occurrence of a pattern.
type Match struct {
	// Name is the Phrase.Name of the matched pattern.
	Name string

	// Text is the exact text that was removed at the first occurrence.
	Text string

	// Index is the byte offset of the first occurrence in the
	// whitespace-collapsed input as it stood when this pattern was evaluated
	// (longer patterns run first).
	Index int
}

// Result is the outcome of one DetectAndRemove pass.
type Result struct {
	// Matches holds one entry per pattern that occurred, in evaluation
	// (longest-first) order. The first entry is the display match.
	Matches []Match

	// FilteredText is the input with all pattern occurrences removed and
	// whitespace re-collapsed.
	FilteredText string
}

// pattern pairs a Phrase with its compiled matchers.
type pattern struct {
	phrase   Phrase
	gurmukhi *regexp.Regexp
	roman    *regexp.Regexp
	weight   int // rune length of the longest form, for ordering
}

// Filter strips sacred phrases from text. It is read-only after construction
// and safe for concurrent use.
type Filter struct {
	patterns []pattern
}

// New returns a Filter loaded with the built-in phrase table.
func New() *Filter {
	return NewWithPhrases(DefaultPhrases())
}

// NewWithPhrases returns a Filter for a custom phrase table. Phrase forms are
// whitespace-collapsed before compiling. Phrases are ordered longest-first by
// rune length of their longest form; equal lengths keep the given order.
func NewWithPhrases(phrases []Phrase) *Filter {
	ps := make([]pattern, 0, len(phrases))
	for _, ph := range phrases {
		ph.Gurmukhi = strings.Join(strings.Fields(ph.Gurmukhi), " ")
		ph.Roman = strings.Join(strings.Fields(ph.Roman), " ")
		p := pattern{phrase: ph}
		if ph.Gurmukhi != "" {
			p.gurmukhi = regexp.MustCompile(regexp.QuoteMeta(ph.Gurmukhi))
			p.weight = utf8.RuneCountInString(ph.Gurmukhi)
		}
		if ph.Roman != "" {
			p.roman = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(ph.Roman))
			if n := utf8.RuneCountInString(ph.Roman); n > p.weight {
				p.weight = n
			}
		}
		if p.gurmukhi == nil && p.roman == nil {
			continue
		}
		ps = append(ps, p)
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].weight > ps[j].weight })
	return &Filter{patterns: ps}
}

// DetectAndRemove makes a single pass over the pattern table, longest phrase
// first, removing every literal occurrence of each pattern and recording the
// first occurrence per pattern for display. The returned FilteredText has
// leftover whitespace collapsed; filtering an already-filtered text returns
// it unchanged.
func (f *Filter) DetectAndRemove(text string) Result {
	// Collapse whitespace before matching: the patterns are single-spaced
	// literals, so irregular spacing would otherwise survive the first pass
	// and be stripped on the second.
	res := Result{FilteredText: strings.Join(strings.Fields(text), " ")}
	if res.FilteredText == "" {
		return res
	}

	for _, p := range f.patterns {
		matched := false
		for _, re := range []*regexp.Regexp{p.gurmukhi, p.roman} {
			if re == nil {
				continue
			}
			if loc := re.FindStringIndex(res.FilteredText); loc != nil {
				if !matched {
					res.Matches = append(res.Matches, Match{
						Name:  p.phrase.Name,
						Text:  res.FilteredText[loc[0]:loc[1]],
						Index: loc[0],
					})
					matched = true
				}
				res.FilteredText = re.ReplaceAllLiteralString(res.FilteredText, " ")
			}
		}
	}

	res.FilteredText = strings.Join(strings.Fields(res.FilteredText), " ")
	return res
}

// Clean is a convenience wrapper returning only the filtered text.
func (f *Filter) Clean(text string) string {
	return f.DetectAndRemove(text).FilteredText
}

// DefaultPhrases returns the built-in interjection table: the Mul Mantar
// opening, the jaikara, the Khalsa fateh, and the short exclamations they
// contain. Callers may append their own phrases before building a Filter.
func DefaultPhrases() []Phrase {
	return []Phrase{
		{
			Name:     "mul-mantar-opening",
			Gurmukhi: "ੴ ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ ਨਿਰਭਉ ਨਿਰਵੈਰੁ ਅਕਾਲ ਮੂਰਤਿ ਅਜੂਨੀ ਸੈਭੰ ਗੁਰ ਪ੍ਰਸਾਦਿ",
			Roman:    "ik onkar sat naam karta purakh nirbhau nirvair akal moorat ajooni saibhang gur prasad",
		},
		{
			Name:     "fateh",
			Gurmukhi: "ਵਾਹਿਗੁਰੂ ਜੀ ਕਾ ਖਾਲਸਾ ਵਾਹਿਗੁਰੂ ਜੀ ਕੀ ਫਤਹਿ",
			Roman:    "waheguru ji ka khalsa waheguru ji ki fateh",
		},
		{
			Name:     "jaikara",
			Gurmukhi: "ਬੋਲੇ ਸੋ ਨਿਹਾਲ ਸਤਿ ਸ੍ਰੀ ਅਕਾਲ",
			Roman:    "bole so nihal sat sri akal",
		},
		{
			Name:     "sat-naam-karta-purakh",
			Gurmukhi: "ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ",
			Roman:    "sat naam karta purakh",
		},
		{
			Name:     "satnam-waheguru",
			Gurmukhi: "ਸਤਿਨਾਮ ਵਾਹਿਗੁਰੂ",
			Roman:    "satnam waheguru",
		},
		{
			Name:     "dhan-dhan-ramdas",
			Gurmukhi: "ਧੰਨ ਧੰਨ ਸ੍ਰੀ ਗੁਰੂ ਰਾਮਦਾਸ ਸਾਹਿਬ ਜੀ",
			Roman:    "dhan dhan sri guru ramdas sahib ji",
		},
		{
			Name:     "waheguru",
			Gurmukhi: "ਵਾਹਿਗੁਰੂ",
			Roman:    "waheguru",
		},
		{
			Name:     "satnam",
			Gurmukhi: "ਸਤਿਨਾਮ",
			Roman:    "satnam",
		},
	}
}
