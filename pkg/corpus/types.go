// Package corpus models the fixed reference text the alignment engine
// searches against: a flat library of lines for whole-corpus search, and
// retrievable documents (shabads) with ordered lines and previous/next
// navigation for progressive tracking.
package corpus

import (
	"context"

	"github.com/banilabs/banitrack/internal/gurmukhi"
)

// Line is one corpus line with its precomputed comparison forms. The derived
// fields are deterministic functions of Raw; construct with [NewLine] so they
// stay consistent.
type Line struct {
	// Raw is the line as it appears in the source text (NFC-composed).
	Raw string

	// Normalized is the canonical comparison form (nukta folded, punctuation
	// stripped, whitespace collapsed).
	Normalized string

	// Matraless is the consonant-skeleton form with all vowel signs removed.
	Matraless string

	// FirstLetters is the first rune of each word, concatenated.
	FirstLetters string
}

// NewLine derives all comparison forms for a raw corpus line.
func NewLine(raw string) Line {
	return Line{
		Raw:          raw,
		Normalized:   gurmukhi.Normalize(raw),
		Matraless:    gurmukhi.StripMatras(raw),
		FirstLetters: gurmukhi.FirstLetters(raw),
	}
}

// Nav holds the previous/next document links exposed by the corpus source.
// Empty string means no neighbour in that direction.
type Nav struct {
	Previous string
	Next     string
}

// Meta carries display metadata for a document.
type Meta struct {
	// Ang is the page number in the printed volume, when known.
	Ang int

	// Raag is the musical measure the document is set in.
	Raag string

	// Writer is the attributed author.
	Writer string

	// Source identifies the scripture collection.
	Source string
}

// Document is a retrievable named unit of corpus content: an ordered line
// sequence plus navigation links and metadata.
type Document struct {
	ID    string
	Lines []Line
	Nav   Nav
	Meta  Meta
}

// Fetcher retrieves a document by id from the corpus source.
type Fetcher interface {
	FetchDocument(ctx context.Context, id string) (*Document, error)
}

// Resolver maps a matched corpus line to the id of the document containing
// it. Cold-start search runs over the flat library, which carries no document
// grouping; the resolver bridges a line hit to a fetchable document.
type Resolver interface {
	ResolveDocument(ctx context.Context, line Line) (string, error)
}

// Library is the flat, read-once line list used for whole-corpus cold-start
// search. It is immutable after construction and safe for concurrent use.
type Library struct {
	lines []Line
}

// NewLibrary derives comparison forms for every raw line. Empty lines are
// skipped.
func NewLibrary(raws []string) *Library {
	lines := make([]Line, 0, len(raws))
	for _, raw := range raws {
		l := NewLine(raw)
		if l.Normalized == "" {
			continue
		}
		lines = append(lines, l)
	}
	return &Library{lines: lines}
}

// Lines returns the backing slice. Callers must not modify it.
func (l *Library) Lines() []Line { return l.lines }

// Len returns the number of lines.
func (l *Library) Len() int { return len(l.lines) }

// At returns the line at index i.
func (l *Library) At(i int) Line { return l.lines[i] }
