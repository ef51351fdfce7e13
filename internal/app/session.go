package app

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/banilabs/banitrack/internal/align"
	"github.com/banilabs/banitrack/internal/observe"
	"github.com/banilabs/banitrack/internal/sacred"
	"github.com/banilabs/banitrack/internal/speech"
	"github.com/banilabs/banitrack/pkg/dictation"
)

// DefaultMinAlignWords is the minimum filtered word count before a transcript
// fragment is used as a search query. Shorter fragments are all but noise to
// the matcher and would thrash the anchor.
const DefaultMinAlignWords = 2

// SessionConfig tunes a [Session]. Zero fields take the package defaults.
type SessionConfig struct {
	// MinAlignWords gates alignment on the filtered transcript word count.
	MinAlignWords int

	// Logger receives session diagnostics. Nil uses [slog.Default].
	Logger *slog.Logger
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.MinAlignWords == 0 {
		c.MinAlignWords = DefaultMinAlignWords
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Session is one live captioning session: dictation fragments flow in, sacred
// interjections are stripped for display and search, and the aligner tracks
// the reading position. Updates are published on the event bus.
//
// Each fragment's Text carries the recognizer's accumulated session
// transcript, per the [dictation.Fragment] contract, so the latest filtered
// fragment alone serves as the search query.
//
// Session methods are safe for concurrent use. The dictation callbacks are
// obtained via [Session.Callbacks] and handed to the speech manager at
// construction.
type Session struct {
	cfg     SessionConfig
	bus     evbus.Bus
	metrics *observe.Metrics
	log     *slog.Logger

	mu         sync.Mutex
	ctx        context.Context
	filter     *sacred.Filter
	aligner    *align.Aligner
	transcript string
	subtitle   string
	lastState  speech.State
}

// NewSession creates a session publishing on bus. filter and aligner must not
// be nil; metrics may be nil to disable instrumentation.
func NewSession(bus evbus.Bus, filter *sacred.Filter, aligner *align.Aligner, metrics *observe.Metrics, cfg SessionConfig) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:     cfg,
		bus:     bus,
		metrics: metrics,
		log:     cfg.Logger.With(slog.String("component", "session")),
		ctx:     context.Background(),
		filter:  filter,
		aligner: aligner,
	}
}

// Bind sets the context used for alignment fetches triggered by dictation
// callbacks. Call before the speech manager starts.
func (s *Session) Bind(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
}

// Callbacks returns the dictation callback set wired to this session.
func (s *Session) Callbacks() speech.Callbacks {
	return speech.Callbacks{
		OnState:         s.handleState,
		OnResult:        s.HandleFragment,
		OnError:         s.handleError,
		OnNoSpeechCount: s.handleNoSpeechCount,
		OnMaxEnds:       s.handleMaxEnds,
	}
}

// HandleFragment processes one transcript fragment: sacred phrases are
// stripped, the subtitle is refreshed, and when enough filtered content has
// accumulated the aligner is advanced. Also the entry point for
// transcript-over-HTTP driving.
func (s *Session) HandleFragment(f dictation.Fragment) {
	s.mu.Lock()
	ctx := s.ctx
	filter := s.filter
	aligner := s.aligner
	s.mu.Unlock()

	res := filter.DetectAndRemove(f.Text)

	phrase := ""
	if len(res.Matches) > 0 {
		phrase = res.Matches[0].Name
	}
	if s.metrics != nil {
		for _, m := range res.Matches {
			s.metrics.RecordSacredMatch(ctx, m.Name)
		}
	}

	s.mu.Lock()
	s.transcript = res.FilteredText
	changed := s.subtitle != res.FilteredText || phrase != ""
	s.subtitle = res.FilteredText
	s.mu.Unlock()

	if changed {
		s.bus.Publish(TopicSubtitle, SubtitleEvent{Text: res.FilteredText, Phrase: phrase})
	}

	if len(strings.Fields(res.FilteredText)) < s.cfg.MinAlignWords {
		return
	}

	anchoredBefore := aligner.Anchored()
	start := time.Now()
	pos, ok, err := aligner.Align(ctx, res.FilteredText)
	elapsed := time.Since(start)

	if s.metrics != nil {
		mode := "windowed"
		if !anchoredBefore {
			mode = "cold_start"
		}
		s.metrics.RecordSearch(ctx, mode, elapsed.Seconds())
	}
	if err != nil {
		s.log.Warn("alignment failed", slog.Any("error", err))
		return
	}
	if !ok {
		return
	}

	if s.metrics != nil {
		kind := "advance"
		switch {
		case !anchoredBefore:
			kind = "cold"
		case pos.ReAnchored:
			kind = "re_anchor"
		}
		s.metrics.RecordAnchor(ctx, pos.Stage, kind)
	}
	s.bus.Publish(TopicAlignment, AlignmentEvent{Position: pos})
}

func (s *Session) handleState(st speech.State) {
	s.mu.Lock()
	prev := s.lastState
	s.lastState = st
	ctx := s.ctx
	s.mu.Unlock()

	if s.metrics != nil && prev == speech.StateWaitingForVoice && st == speech.StateListening {
		s.metrics.RecordSpeechRestart(ctx, "auto")
	}
	s.bus.Publish(TopicSpeechState, StateEvent{State: st})
}

func (s *Session) handleError(err error) {
	s.bus.Publish(TopicSpeechError, err)
}

func (s *Session) handleNoSpeechCount(n int) {
	s.bus.Publish(TopicNoSpeech, NoSpeechEvent{Count: n})
}

// handleMaxEnds fires when dictation gives up on silence: the position and
// buffers reset so the next recitation cold-starts cleanly.
func (s *Session) handleMaxEnds() {
	s.mu.Lock()
	aligner := s.aligner
	s.transcript = ""
	s.subtitle = ""
	s.mu.Unlock()

	aligner.Reset()
	s.log.Info("silence limit reached, alignment reset")

	s.bus.Publish(TopicNoSpeech, NoSpeechEvent{Count: 0, Exhausted: true})
	s.bus.Publish(TopicSubtitle, SubtitleEvent{})
}

// Reset clears the transcript buffers and alignment state on demand.
func (s *Session) Reset() {
	s.mu.Lock()
	aligner := s.aligner
	s.transcript = ""
	s.subtitle = ""
	s.mu.Unlock()

	aligner.Reset()
	s.bus.Publish(TopicSubtitle, SubtitleEvent{})
}

// Subtitle returns the current filtered display text.
func (s *Session) Subtitle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtitle
}

// Transcript returns the latest filtered transcript fragment.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Position returns the current reading position, if anchored.
func (s *Session) Position() (align.Position, bool) {
	s.mu.Lock()
	aligner := s.aligner
	s.mu.Unlock()
	return aligner.Position()
}

// SetFilter swaps the sacred phrase filter. Used for config hot reload.
func (s *Session) SetFilter(f *sacred.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// SetAligner swaps the aligner, dropping alignment state. Used when matcher
// tuning changes at runtime.
func (s *Session) SetAligner(a *align.Aligner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aligner = a
	s.transcript = ""
	s.subtitle = ""
}
