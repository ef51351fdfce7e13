// Package mock provides test doubles for the dictation package interfaces.
//
// Use Recognizer to verify that the caller starts sessions with the expected
// Config and to control how many sessions may start. Use Session to feed
// controlled fragments and errors to the consumer.
//
// Example:
//
//	sess := mock.NewSession()
//	r := &mock.Recognizer{Session: sess}
//	handle, _ := r.Start(ctx, cfg)
//	sess.EmitFinal("ਸਤਿ ਨਾਮੁ", 0.92)
//	sess.End()
package mock

import (
	"context"
	"sync"

	"github.com/banilabs/banitrack/pkg/dictation"
)

// StartCall records a single invocation of Recognizer.Start.
type StartCall struct {
	// Ctx is the context passed to Start.
	Ctx context.Context
	// Cfg is the Config passed to Start.
	Cfg dictation.Config
}

// Recognizer is a mock implementation of dictation.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// StartFunc, if non-nil, fully replaces the default Start behaviour.
	// Useful when a test needs a fresh Session per restart.
	StartFunc func(ctx context.Context, cfg dictation.Config) (dictation.SessionHandle, error)

	// Session is the SessionHandle returned by Start. If nil, Start returns
	// a new default Session.
	Session dictation.SessionHandle

	// StartErr, if non-nil, is returned as the error from Start.
	StartErr error

	// StartCalls records every call to Start in order.
	StartCalls []StartCall
}

// Start records the call, then delegates to StartFunc when set, otherwise
// returns Session, StartErr.
func (r *Recognizer) Start(ctx context.Context, cfg dictation.Config) (dictation.SessionHandle, error) {
	r.mu.Lock()
	r.StartCalls = append(r.StartCalls, StartCall{Ctx: ctx, Cfg: cfg})
	fn := r.StartFunc
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, cfg)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	if r.Session != nil {
		return r.Session, nil
	}
	return NewSession(), nil
}

// StartCallCount returns the number of Start calls. Thread-safe.
func (r *Recognizer) StartCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.StartCalls)
}

// Reset clears all recorded calls. Thread-safe.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartCalls = nil
}

// Ensure Recognizer implements dictation.Recognizer at compile time.
var _ dictation.Recognizer = (*Recognizer)(nil)

// Session is a mock implementation of dictation.SessionHandle. Tests drive
// the consumer with Emit and fail it with EmitError, then End the session.
type Session struct {
	mu sync.Mutex

	// StopErr, if non-nil, is returned by Stop.
	StopErr error

	// AbortErr, if non-nil, is returned by Abort.
	AbortErr error

	// StopCallCount is the number of times Stop was called.
	StopCallCount int

	// AbortCallCount is the number of times Abort was called.
	AbortCallCount int

	results chan dictation.Fragment
	errors  chan error
	ended   bool
}

// NewSession returns a Session with buffered channels ready for emitting.
func NewSession() *Session {
	return &Session{
		results: make(chan dictation.Fragment, 16),
		errors:  make(chan error, 16),
	}
}

// Emit delivers a fragment to the consumer.
func (s *Session) Emit(f dictation.Fragment) {
	s.results <- f
}

// EmitFinal delivers a committed fragment with the given text and confidence.
func (s *Session) EmitFinal(text string, confidence float64) {
	s.Emit(dictation.Fragment{Text: text, Confidence: confidence, IsFinal: true})
}

// EmitError delivers an error to the consumer.
func (s *Session) EmitError(err error) {
	s.errors <- err
}

// End closes both channels, signalling the session's end. Safe to call more
// than once.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	close(s.results)
	close(s.errors)
}

// Results returns the fragment channel.
func (s *Session) Results() <-chan dictation.Fragment { return s.results }

// Errors returns the error channel.
func (s *Session) Errors() <-chan error { return s.errors }

// Stop records the call, ends the session, and returns StopErr.
func (s *Session) Stop() error {
	s.mu.Lock()
	s.StopCallCount++
	err := s.StopErr
	s.mu.Unlock()
	s.End()
	return err
}

// Abort records the call, ends the session, and returns AbortErr.
func (s *Session) Abort() error {
	s.mu.Lock()
	s.AbortCallCount++
	err := s.AbortErr
	s.mu.Unlock()
	s.End()
	return err
}

// Ensure Session implements dictation.SessionHandle at compile time.
var _ dictation.SessionHandle = (*Session)(nil)
