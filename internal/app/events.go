package app

import (
	"github.com/banilabs/banitrack/internal/align"
	"github.com/banilabs/banitrack/internal/speech"
)

// Event bus topics published by the session. Subscribers register typed
// handlers matching the payload documented per topic.
const (
	// TopicSpeechState carries a [StateEvent] on every lifecycle transition.
	TopicSpeechState = "speech.state"

	// TopicSubtitle carries a [SubtitleEvent] whenever the display text
	// changes, including clears.
	TopicSubtitle = "subtitle.updated"

	// TopicAlignment carries an [AlignmentEvent] whenever the tracked
	// reading position updates.
	TopicAlignment = "alignment.changed"

	// TopicNoSpeech carries a [NoSpeechEvent] whenever the consecutive
	// no-speech counter changes.
	TopicNoSpeech = "speech.nospeech"

	// TopicSpeechError carries an error from the dictation layer.
	TopicSpeechError = "speech.error"
)

// StateEvent reports a dictation lifecycle transition.
type StateEvent struct {
	State speech.State
}

// SubtitleEvent reports the current display text after sacred-phrase
// filtering. Phrase names the first detected sacred phrase of the update, if
// any.
type SubtitleEvent struct {
	Text   string
	Phrase string
}

// AlignmentEvent reports a reading-position update.
type AlignmentEvent struct {
	Position align.Position
}

// NoSpeechEvent reports the consecutive no-speech counter. Exhausted is true
// on the update that reached the configured maximum and triggered a session
// reset.
type NoSpeechEvent struct {
	Count     int
	Exhausted bool
}
