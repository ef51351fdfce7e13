// Package dictation defines the Recognizer interface for continuous
// speech-dictation backends.
//
// A dictation recognizer wraps a streaming speech-to-text capability (a
// browser speech API bridge, a cloud STT service, or a local model) and
// exposes a uniform session surface. The central abstraction is
// SessionHandle: once started, a session emits Fragment values — provisional
// interim results superseded as recognition refines, and committed finals —
// until it ends on its own or is stopped.
//
// Dictation sessions are failure-prone by nature: providers routinely end
// sessions after silence or transient hiccups. Errors are delivered on a
// dedicated channel using the coded sentinel errors in this package so the
// lifecycle layer can classify them; a session ending is signalled by the
// result channel closing and is not itself an error.
//
// Implementations must be safe for concurrent use.
package dictation

import "context"

// Config describes recognition settings for a new dictation session.
type Config struct {
	// Language is the BCP-47 language tag for recognition (e.g., "pa-IN").
	// An empty string lets the provider auto-detect, if supported.
	Language string

	// InterimResults requests provisional fragments in addition to finals.
	InterimResults bool
}

// SessionHandle represents a running dictation session. It is an interface so
// test code can provide mock implementations without a live provider.
//
// Callers must end the session with Stop or Abort when it is no longer
// needed; failing to do so may leak goroutines inside the provider. All
// methods must be safe for concurrent use.
type SessionHandle interface {
	// Results returns a read-only channel emitting recognition fragments in
	// arrival order. The channel is closed when the session ends, for any
	// reason.
	Results() <-chan Fragment

	// Errors returns a read-only channel emitting session errors, classified
	// with the package sentinel errors where applicable. An error does not
	// necessarily end the session; the Results channel closing does. The
	// channel is closed when the session ends.
	Errors() <-chan error

	// Stop ends the session gracefully, allowing buffered audio to produce
	// final fragments before the channels close. Calling Stop more than once
	// is safe and returns nil.
	Stop() error

	// Abort ends the session immediately, discarding buffered audio. Pending
	// recognition is reported as [ErrAborted] before the channels close.
	Abort() error
}

// Recognizer is the abstraction over any dictation backend.
//
// Implementations must be safe for concurrent use, but the audio capture
// device is exclusive: starting a new session must tear down any session the
// recognizer already has running.
type Recognizer interface {
	// Start opens a new dictation session. The returned SessionHandle is
	// live immediately.
	//
	// Returns [ErrUnsupported] when the backend has no dictation capability
	// at all; that condition is permanent for the process and retrying is
	// pointless.
	Start(ctx context.Context, cfg Config) (SessionHandle, error)
}
