// Package speech owns the continuous dictation session: an explicit state
// machine with auto-restart, error classification, and a voice-activity
// fallback that stops restart-storms during prolonged silence.
//
// Dictation providers routinely end sessions after silence or transient
// hiccups, so a single logical listening session spans many provider
// sessions. The manager hides that churn: it restarts dictation with a
// delay after recoverable ends, counts consecutive no-speech ends, and once
// the configured maximum is reached it stops restarting entirely and instead
// polls microphone volume, resuming only when voice is actually present.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/banilabs/banitrack/pkg/audiolevel"
	"github.com/banilabs/banitrack/pkg/dictation"
)

// State is the manager's position in the session lifecycle.
type State int

const (
	// StateIdle means no dictation session exists yet, or the capability is
	// permanently unavailable.
	StateIdle State = iota

	// StateListening means a dictation session is live.
	StateListening

	// StateWaitingForVoice means the previous session ended recoverably and
	// the manager is waiting on a restart timer or on detected voice
	// activity.
	StateWaitingForVoice

	// StateStopped is the terminal state after a manual stop. A stopped
	// manager never restarts; create a new one for the next session.
	StateStopped
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateWaitingForVoice:
		return "waiting_for_voice"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Defaults for the manager configuration.
const (
	DefaultMaxNoSpeech          = 3
	DefaultNoSpeechRestartDelay = 800 * time.Millisecond
	DefaultErrorRestartDelay    = 1200 * time.Millisecond
	DefaultVoiceThreshold       = 0.01
	DefaultVoicePollInterval    = 50 * time.Millisecond
)

// Config tunes the manager. Zero fields take the package defaults.
type Config struct {
	// MaxNoSpeech is the number of consecutive no-speech session ends after
	// which the manager switches from timed restarts to voice-gated restarts.
	MaxNoSpeech int

	// NoSpeechRestartDelay is the restart delay after a no-speech end or a
	// clean session end.
	NoSpeechRestartDelay time.Duration

	// ErrorRestartDelay is the longer restart delay after any other
	// recoverable error.
	ErrorRestartDelay time.Duration

	// VoiceThreshold is the RMS volume above which the voice monitor
	// considers speech present.
	VoiceThreshold float64

	// VoicePollInterval is how often the voice monitor samples volume.
	VoicePollInterval time.Duration

	// Dictation is passed through to [dictation.Recognizer.Start].
	Dictation dictation.Config

	// Logger receives lifecycle diagnostics. Nil uses [slog.Default].
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.MaxNoSpeech == 0 {
		c.MaxNoSpeech = DefaultMaxNoSpeech
	}
	if c.NoSpeechRestartDelay == 0 {
		c.NoSpeechRestartDelay = DefaultNoSpeechRestartDelay
	}
	if c.ErrorRestartDelay == 0 {
		c.ErrorRestartDelay = DefaultErrorRestartDelay
	}
	if c.VoiceThreshold == 0 {
		c.VoiceThreshold = DefaultVoiceThreshold
	}
	if c.VoicePollInterval == 0 {
		c.VoicePollInterval = DefaultVoicePollInterval
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Callbacks are the manager's event surface. All fields are optional.
// Callbacks are invoked from manager-owned goroutines, never concurrently
// with themselves, and must not block.
type Callbacks struct {
	// OnState fires on every state transition.
	OnState func(State)

	// OnResult fires for every transcript fragment, final and interim.
	OnResult func(dictation.Fragment)

	// OnError fires for recoverable and fatal errors alike; classify with
	// [errors.Is] against the dictation sentinel errors.
	OnError func(error)

	// OnNoSpeechCount fires whenever the consecutive no-speech counter
	// changes, including resets to zero.
	OnNoSpeechCount func(int)

	// OnMaxEnds fires once each time the no-speech counter reaches the
	// configured maximum.
	OnMaxEnds func()
}

// endKind classifies how the current dictation session ended.
type endKind int

const (
	endClean endKind = iota
	endNoSpeech
	endError
	endFatal
)

// Manager drives one logical listening session over a failure-prone
// dictation capability. Safe for concurrent use.
type Manager struct {
	cfg Config
	rec dictation.Recognizer
	vol audiolevel.Source
	cb  Callbacks
	log *slog.Logger

	mu          sync.Mutex
	state       State
	ctx         context.Context
	session     dictation.SessionHandle
	gen         int
	noSpeech    int
	lastEnd     endKind
	stopped     bool
	unsupported bool
	restart     *time.Timer
	monitor     chan struct{}
}

// New creates an idle manager. vol is sampled by the voice monitor and
// served by [Manager.Volume]; it must not be nil.
func New(rec dictation.Recognizer, vol audiolevel.Source, cfg Config, cb Callbacks) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg: cfg,
		rec: rec,
		vol: vol,
		cb:  cb,
		log: cfg.Logger.With(slog.String("component", "speech")),
	}
}

// Start opens the dictation session and begins listening. ctx governs this
// and every automatically restarted session. Returns [dictation.ErrUnsupported]
// (possibly wrapped) when the capability is permanently unavailable; the
// manager then stays idle for good.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return errors.New("speech: manager is stopped")
	}
	if m.unsupported {
		m.mu.Unlock()
		return dictation.ErrUnsupported
	}
	if m.state == StateListening {
		m.mu.Unlock()
		return nil
	}
	m.ctx = ctx
	fire, err := m.startSessionLocked()
	m.mu.Unlock()
	fire()
	return err
}

// startSessionLocked opens a provider session and hands it to a consumer
// goroutine. Returns the deferred callback emissions.
func (m *Manager) startSessionLocked() (func(), error) {
	sess, err := m.rec.Start(m.ctx, m.cfg.Dictation)
	if err != nil {
		if errors.Is(err, dictation.ErrUnsupported) {
			m.unsupported = true
			fire := m.transitionLocked(StateIdle)
			m.log.Error("dictation unsupported, staying idle", slog.Any("error", err))
			return join(fire, m.emitError(err)), err
		}
		m.log.Warn("dictation start failed", slog.Any("error", err))
		fire := m.transitionLocked(StateWaitingForVoice)
		m.scheduleRestartLocked(m.cfg.ErrorRestartDelay)
		return join(fire, m.emitError(err)), err
	}

	m.session = sess
	m.gen++
	m.lastEnd = endClean
	gen := m.gen
	fire := m.transitionLocked(StateListening)
	go m.consume(sess, gen)
	return fire, nil
}

// consume pumps one provider session's channels until both close, then
// reports the session end.
func (m *Manager) consume(sess dictation.SessionHandle, gen int) {
	results := sess.Results()
	errs := sess.Errors()
	for results != nil || errs != nil {
		select {
		case f, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			m.handleResult(f, gen)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				m.handleError(err, gen)
			}
		}
	}
	m.handleSessionEnd(gen)
}

func (m *Manager) handleResult(f dictation.Fragment, gen int) {
	m.mu.Lock()
	stale := gen != m.gen || m.stopped
	m.mu.Unlock()
	if stale {
		return
	}
	if m.cb.OnResult != nil {
		m.cb.OnResult(f)
	}
}

func (m *Manager) handleError(err error, gen int) {
	m.mu.Lock()
	if gen != m.gen || m.stopped {
		m.mu.Unlock()
		return
	}

	fire := func() {}
	switch {
	case errors.Is(err, dictation.ErrUnsupported):
		m.unsupported = true
		m.lastEnd = endFatal
		m.log.Error("dictation reported unsupported", slog.Any("error", err))

	case errors.Is(err, dictation.ErrNoSpeech):
		m.lastEnd = endNoSpeech
		m.noSpeech++
		m.log.Debug("no speech detected", slog.Int("consecutive", m.noSpeech))
		fire = m.emitNoSpeechCount(m.noSpeech)
		if m.noSpeech == m.cfg.MaxNoSpeech {
			fire = join(fire, m.emitMaxEnds())
		}

	case errors.Is(err, dictation.ErrAborted):
		// Abort is the expected echo of our own teardown.
		m.mu.Unlock()
		return

	default:
		m.lastEnd = endError
		if m.noSpeech != 0 {
			m.noSpeech = 0
			fire = m.emitNoSpeechCount(0)
		}
		m.log.Warn("dictation error", slog.Any("error", err))
	}
	fire = join(fire, m.emitError(err))
	m.mu.Unlock()
	fire()
}

// handleSessionEnd decides the next move after a session's channels close:
// timed restart, voice-gated wait, or nothing at all.
func (m *Manager) handleSessionEnd(gen int) {
	m.mu.Lock()
	if gen != m.gen || m.stopped {
		m.mu.Unlock()
		return
	}
	m.session = nil

	var fire func()
	switch m.lastEnd {
	case endFatal:
		fire = m.transitionLocked(StateIdle)

	case endNoSpeech:
		fire = m.transitionLocked(StateWaitingForVoice)
		if m.noSpeech >= m.cfg.MaxNoSpeech {
			// Restart-storm guard: no more timed restarts, resume only on
			// actual voice.
			m.startVoiceMonitorLocked()
		} else {
			m.scheduleRestartLocked(m.cfg.NoSpeechRestartDelay)
		}

	case endError:
		fire = m.transitionLocked(StateWaitingForVoice)
		m.scheduleRestartLocked(m.cfg.ErrorRestartDelay)

	default: // clean end, provider simply gave up
		fire = m.transitionLocked(StateWaitingForVoice)
		m.scheduleRestartLocked(m.cfg.NoSpeechRestartDelay)
	}
	m.mu.Unlock()
	fire()
}

func (m *Manager) scheduleRestartLocked(d time.Duration) {
	if m.restart != nil {
		m.restart.Stop()
	}
	m.restart = time.AfterFunc(d, m.restartNow)
}

func (m *Manager) restartNow() {
	m.mu.Lock()
	if m.stopped || m.unsupported || m.state != StateWaitingForVoice {
		m.mu.Unlock()
		return
	}
	fire, _ := m.startSessionLocked()
	m.mu.Unlock()
	fire()
}

// startVoiceMonitorLocked begins polling microphone volume. At most one
// monitor runs at a time.
func (m *Manager) startVoiceMonitorLocked() {
	if m.monitor != nil {
		return
	}
	stop := make(chan struct{})
	m.monitor = stop
	go m.monitorVoice(stop)
}

func (m *Manager) monitorVoice(stop chan struct{}) {
	ticker := time.NewTicker(m.cfg.VoicePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.vol.Level() < m.cfg.VoiceThreshold {
				continue
			}
			m.mu.Lock()
			if m.monitor != stop || m.stopped {
				m.mu.Unlock()
				return
			}
			if m.state != StateWaitingForVoice {
				// A manual Start already opened a session; stand down.
				m.monitor = nil
				m.mu.Unlock()
				return
			}
			m.monitor = nil
			m.noSpeech = 0
			m.log.Info("voice detected, resuming dictation")
			fire := m.emitNoSpeechCount(0)
			f2, _ := m.startSessionLocked()
			m.mu.Unlock()
			join(fire, f2)()
			return
		}
	}
}

// Stop ends the session permanently: the sticky stopped flag suppresses all
// future restarts, pending timers and the voice monitor are cancelled, and
// any live provider session is aborted.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	if m.restart != nil {
		m.restart.Stop()
		m.restart = nil
	}
	if m.monitor != nil {
		close(m.monitor)
		m.monitor = nil
	}
	sess := m.session
	m.session = nil
	fire := m.transitionLocked(StateStopped)
	m.mu.Unlock()

	if sess != nil {
		if err := sess.Abort(); err != nil {
			m.log.Warn("abort failed", slog.Any("error", err))
		}
	}
	fire()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// NoSpeechCount returns the consecutive no-speech counter.
func (m *Manager) NoSpeechCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.noSpeech
}

// Volume returns the current microphone RMS level, independent of dictation
// state.
func (m *Manager) Volume() float64 {
	return m.vol.Level()
}

// transitionLocked updates the state and returns the deferred OnState
// emission. A no-op transition emits nothing.
func (m *Manager) transitionLocked(s State) func() {
	if m.state == s {
		return func() {}
	}
	m.log.Debug("state transition",
		slog.String("from", m.state.String()), slog.String("to", s.String()))
	m.state = s
	if m.cb.OnState == nil {
		return func() {}
	}
	cb := m.cb.OnState
	return func() { cb(s) }
}

func (m *Manager) emitError(err error) func() {
	if m.cb.OnError == nil {
		return func() {}
	}
	cb := m.cb.OnError
	return func() { cb(err) }
}

func (m *Manager) emitNoSpeechCount(n int) func() {
	if m.cb.OnNoSpeechCount == nil {
		return func() {}
	}
	cb := m.cb.OnNoSpeechCount
	return func() { cb(n) }
}

func (m *Manager) emitMaxEnds() func() {
	if m.cb.OnMaxEnds == nil {
		return func() {}
	}
	cb := m.cb.OnMaxEnds
	return func() { cb() }
}

// join composes deferred emissions in order.
func join(a, b func()) func() {
	return func() {
		a()
		b()
	}
}
