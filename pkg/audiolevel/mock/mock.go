// Package mock provides a controllable test double for the audiolevel
// package.
package mock

import (
	"sync"

	"github.com/banilabs/banitrack/pkg/audiolevel"
)

// Source is a mock implementation of audiolevel.Source whose level tests set
// directly.
type Source struct {
	mu sync.Mutex

	// LevelResult is returned by Level.
	LevelResult float64

	// LevelCallCount is the number of times Level was called.
	LevelCallCount int
}

// SetLevel updates the value returned by Level. Thread-safe.
func (s *Source) SetLevel(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LevelResult = v
}

// Level returns LevelResult and records the call.
func (s *Source) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LevelCallCount++
	return s.LevelResult
}

// Ensure Source implements audiolevel.Source at compile time.
var _ audiolevel.Source = (*Source)(nil)
