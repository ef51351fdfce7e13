// Package align holds the progressive alignment state of a listening
// session: which document is being recited and which line the reader is on.
// Per cleaned transcript fragment it decides between cold-start search (no
// anchor) and windowed search (anchored), and pages the next document into
// the resident sequence before recitation reaches the boundary.
package align

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/banilabs/banitrack/internal/match"
	"github.com/banilabs/banitrack/pkg/corpus"
)

// Defaults for the aligner configuration.
const (
	// DefaultPrefetchMargin triggers look-ahead paging when the anchor is
	// within this many lines of the end of the resident sequence.
	DefaultPrefetchMargin = 2

	// DefaultFetchTimeout bounds a single document fetch.
	DefaultFetchTimeout = 10 * time.Second
)

// Config tunes the aligner. Zero fields take the package defaults.
type Config struct {
	PrefetchMargin int
	FetchTimeout   time.Duration

	// Logger receives fetch and re-anchor diagnostics. Nil uses
	// [slog.Default].
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.PrefetchMargin == 0 {
		c.PrefetchMargin = DefaultPrefetchMargin
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Position is the aligner's answer for one fragment: the line currently
// being recited within the flattened resident sequence.
type Position struct {
	// DocID is the document owning the matched line.
	DocID string

	// SeqIndex is the line's index in the flattened resident sequence.
	SeqIndex int

	// LineInDoc is the line's index within its owning document.
	LineInDoc int

	// Text is the raw corpus line, for display.
	Text string

	// Score and Stage describe the match that produced this position.
	Score int
	Stage string

	// ReAnchored is true when this position came from a cold-start or
	// whole-sequence re-anchor rather than a windowed advance. Only a
	// re-anchor may move the position backward.
	ReAnchored bool
}

// Aligner tracks reading position across documents. Align calls are
// serialised; the asynchronous prefetch path takes the same lock when it
// lands, so a fetch result arriving after Reset is discarded by epoch.
type Aligner struct {
	cfg      Config
	matcher  *match.Matcher
	lib      *corpus.Library
	fetcher  corpus.Fetcher
	resolver corpus.Resolver
	log      *slog.Logger

	mu       sync.Mutex
	seq      *corpus.Sequence
	anchored bool
	current  int
	epoch    uint64
	pending  map[string]struct{}
	fetches  singleflight.Group
}

// New creates an unanchored aligner over the given corpus collaborators.
func New(m *match.Matcher, lib *corpus.Library, fetcher corpus.Fetcher, resolver corpus.Resolver, cfg Config) *Aligner {
	cfg = cfg.withDefaults()
	return &Aligner{
		cfg:      cfg,
		matcher:  m,
		lib:      lib,
		fetcher:  fetcher,
		resolver: resolver,
		log:      cfg.Logger.With(slog.String("component", "aligner")),
		seq:      corpus.NewSequence(),
		pending:  make(map[string]struct{}),
	}
}

// Align processes one cleaned transcript fragment. The boolean is false when
// no corpus position could be established; that is a valid outcome, retried
// on the next fragment, not an error. The error reports fetch or resolve
// failures; alignment state is left intact so the next fragment retries.
func (a *Aligner) Align(ctx context.Context, transcript string) (Position, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.anchored {
		return a.coldAnchor(ctx, transcript)
	}

	if r, ok := a.matcher.Windowed(a.seq.Lines(), a.current, transcript); ok {
		a.current = r.LineIndex
		pos := a.position(r.Score, r.Stage, false)
		a.maybePrefetch()
		return pos, true, nil
	}

	// Windowed found nothing: re-anchor within the resident sequence first,
	// then over the whole corpus. Never leave the state stale.
	if r, ok := a.matcher.SearchLines(a.seq.Lines(), transcript); ok {
		a.log.Debug("re-anchored within resident sequence",
			slog.Int("from", a.current), slog.Int("to", r.LineIndex), slog.Int("score", r.Score))
		a.current = r.LineIndex
		pos := a.position(r.Score, r.Stage, true)
		a.maybePrefetch()
		return pos, true, nil
	}

	return a.coldAnchor(ctx, transcript)
}

// coldAnchor runs whole-corpus cold-start search and loads the matched
// document. Called with the lock held.
func (a *Aligner) coldAnchor(ctx context.Context, transcript string) (Position, bool, error) {
	r, ok := a.matcher.ColdStart(transcript)
	if !ok {
		return Position{}, false, nil
	}
	line := a.lib.At(r.LineIndex)

	docID, err := a.resolver.ResolveDocument(ctx, line)
	if err != nil {
		a.log.Warn("resolve failed", slog.Int("line", r.LineIndex), slog.Any("error", err))
		return Position{}, false, fmt.Errorf("align: resolve document: %w", err)
	}

	if !a.seq.Resident(docID) {
		doc, err := a.fetchDocument(ctx, docID)
		if err != nil {
			a.log.Warn("fetch failed", slog.String("doc", docID), slog.Any("error", err))
			return Position{}, false, fmt.Errorf("align: fetch document %s: %w", docID, err)
		}
		a.seq.Append(doc)
	}

	idx := a.locate(docID, line)
	if idx < 0 {
		// The resolver pointed at a document that does not contain the
		// library line verbatim. Fall back to searching the fetched text.
		sr, ok := a.matcher.SearchLines(a.seq.Lines(), transcript)
		if !ok {
			return Position{}, false, nil
		}
		idx = sr.LineIndex
	}

	wasAnchored := a.anchored
	a.anchored = true
	a.current = idx
	a.log.Info("anchored",
		slog.String("doc", a.seq.At(idx).DocID),
		slog.Int("line", idx),
		slog.Int("score", r.Score),
		slog.String("stage", r.Stage),
		slog.Bool("reanchor", wasAnchored))

	pos := a.position(r.Score, r.Stage, wasAnchored)
	a.maybePrefetch()
	return pos, true, nil
}

// locate finds the flattened index of the given library line within the
// named resident document, or -1.
func (a *Aligner) locate(docID string, line corpus.Line) int {
	for i, sl := range a.seq.Lines() {
		if sl.DocID == docID && sl.Line.Normalized == line.Normalized {
			return i
		}
	}
	return -1
}

func (a *Aligner) position(score int, stage string, reanchored bool) Position {
	sl := a.seq.At(a.current)
	return Position{
		DocID:      sl.DocID,
		SeqIndex:   a.current,
		LineInDoc:  sl.LineInDoc,
		Text:       sl.Line.Raw,
		Score:      score,
		Stage:      stage,
		ReAnchored: reanchored,
	}
}

// maybePrefetch starts an asynchronous fetch of the next document when the
// anchor is close to the end of the resident sequence. Called with the lock
// held. A document already resident or already being fetched is never
// requested again.
func (a *Aligner) maybePrefetch() {
	if a.seq.Len()-1-a.current > a.cfg.PrefetchMargin {
		return
	}
	tail := a.seq.Tail()
	if tail == nil || tail.Nav.Next == "" {
		return
	}
	next := tail.Nav.Next
	if a.seq.Resident(next) {
		return
	}
	if _, inFlight := a.pending[next]; inFlight {
		return
	}

	a.pending[next] = struct{}{}
	epoch := a.epoch
	a.log.Debug("prefetching next document", slog.String("doc", next))
	go a.prefetch(next, epoch)
}

// prefetch fetches id and appends it to the sequence, unless the session was
// reset while the fetch was in flight.
func (a *Aligner) prefetch(id string, epoch uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.FetchTimeout)
	defer cancel()

	doc, err := a.fetchDocument(ctx, id)

	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, id)

	if err != nil {
		// Retried opportunistically on the next boundary check.
		a.log.Warn("prefetch failed", slog.String("doc", id), slog.Any("error", err))
		return
	}
	if epoch != a.epoch {
		a.log.Debug("discarding stale prefetch", slog.String("doc", id))
		return
	}
	a.seq.Append(doc)
}

// fetchDocument funnels all document retrieval through a singleflight group
// so the synchronous cold-start path and the asynchronous prefetch path never
// issue two concurrent fetches for the same id.
func (a *Aligner) fetchDocument(ctx context.Context, id string) (*corpus.Document, error) {
	v, err, _ := a.fetches.Do(id, func() (any, error) {
		return a.fetcher.FetchDocument(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*corpus.Document), nil
}

// Anchored reports whether a reading position is currently established.
func (a *Aligner) Anchored() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.anchored
}

// Position returns the current reading position. The boolean is false when
// unanchored.
func (a *Aligner) Position() (Position, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.anchored {
		return Position{}, false
	}
	return a.position(0, "", false), true
}

// CurrentDocument returns the document owning the current line, or nil when
// unanchored.
func (a *Aligner) CurrentDocument() *corpus.Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.anchored {
		return nil
	}
	return a.seq.DocAt(a.current)
}

// Lines returns a snapshot of the flattened resident sequence for display.
func (a *Aligner) Lines() []corpus.SeqLine {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]corpus.SeqLine, a.seq.Len())
	copy(out, a.seq.Lines())
	return out
}

// PendingFetches returns the ids currently being prefetched.
func (a *Aligner) PendingFetches() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.pending))
	for id := range a.pending {
		out = append(out, id)
	}
	return out
}

// Reset returns the aligner to the unanchored state and drops all resident
// documents. Any in-flight prefetch result arriving afterward is discarded.
func (a *Aligner) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.epoch++
	a.anchored = false
	a.current = 0
	a.seq.Reset()
	a.pending = make(map[string]struct{})
	a.log.Info("alignment state reset")
}
