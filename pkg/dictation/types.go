package dictation

import "errors"

// Fragment is a single recognition result from a dictation session. Interim
// fragments are provisional and superseded by later fragments; final
// fragments are committed.
type Fragment struct {
	// Text is the recognized speech content: the session's accumulated
	// transcript so far, not a delta since the previous fragment.
	Text string

	// Confidence is the recognition confidence (0.0–1.0). May be zero when
	// the provider does not report confidence.
	Confidence float64

	// IsFinal marks a committed result. Non-final fragments are provisional.
	IsFinal bool
}

// Sentinel errors delivered on a session's Errors channel, or returned from
// Start. Providers wrap these so callers classify with [errors.Is].
var (
	// ErrNoSpeech reports that the provider ended recognition because it
	// detected no speech. Recoverable; the caller decides when to restart.
	ErrNoSpeech = errors.New("dictation: no speech detected")

	// ErrAborted reports that the session was torn down by Abort before
	// recognition completed. Recoverable.
	ErrAborted = errors.New("dictation: session aborted")

	// ErrUnsupported reports that no dictation capability is available.
	// Permanent for the process; never retried.
	ErrUnsupported = errors.New("dictation: not supported")
)
