package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banilabs/banitrack/pkg/corpus"
)

// ErrSourceNotRegistered is returned by [Registry.CreateSource] when no
// factory has been registered under the requested source name.
var ErrSourceNotRegistered = errors.New("config: corpus source not registered")

// Source is a document-retrieval backend: it fetches documents by id and
// resolves matched lines back to document ids.
type Source interface {
	corpus.Fetcher
	corpus.Resolver
}

// Registry maps corpus source names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]func(SourceEntry) (Source, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]func(SourceEntry) (Source, error)),
	}
}

// RegisterSource registers a corpus source factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSource(name string, factory func(SourceEntry) (Source, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[name] = factory
}

// CreateSource instantiates a corpus source using the factory registered
// under entry.Name. Returns [ErrSourceNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateSource(entry SourceEntry) (Source, error) {
	r.mu.RLock()
	factory, ok := r.sources[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotRegistered, entry.Name)
	}
	return factory(entry)
}
