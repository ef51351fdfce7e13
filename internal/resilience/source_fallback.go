package resilience

import (
	"context"

	"github.com/banilabs/banitrack/pkg/corpus"
)

// CorpusSource bundles the two corpus backend capabilities that participate in
// failover.
type CorpusSource interface {
	corpus.Fetcher
	corpus.Resolver
}

// SourceFallback implements [CorpusSource] with automatic failover across
// corpus backends. Each backend has its own circuit breaker; when the primary
// fails or its breaker is open, the next healthy fallback is tried.
type SourceFallback struct {
	group *FallbackGroup[CorpusSource]
}

// Compile-time interface assertion.
var _ CorpusSource = (*SourceFallback)(nil)

// NewSourceFallback creates a [SourceFallback] with primary as the preferred
// backend.
func NewSourceFallback(primary CorpusSource, primaryName string, cfg FallbackConfig) *SourceFallback {
	return &SourceFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional corpus source as a fallback.
func (f *SourceFallback) AddFallback(name string, s CorpusSource) {
	f.group.AddFallback(name, s)
}

// FetchDocument loads a document from the first healthy backend.
func (f *SourceFallback) FetchDocument(ctx context.Context, id string) (*corpus.Document, error) {
	return ExecuteWithResult(f.group, func(s CorpusSource) (*corpus.Document, error) {
		return s.FetchDocument(ctx, id)
	})
}

// ResolveDocument resolves a corpus line to its owning document via the first
// healthy backend.
func (f *SourceFallback) ResolveDocument(ctx context.Context, line corpus.Line) (string, error) {
	return ExecuteWithResult(f.group, func(s CorpusSource) (string, error) {
		return s.ResolveDocument(ctx, line)
	})
}
