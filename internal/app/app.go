// Package app wires all banitrack subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run starts dictation and blocks until the context is done, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithSource, WithRecognizer, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/banilabs/banitrack/internal/align"
	"github.com/banilabs/banitrack/internal/config"
	"github.com/banilabs/banitrack/internal/match"
	"github.com/banilabs/banitrack/internal/observe"
	"github.com/banilabs/banitrack/internal/resilience"
	"github.com/banilabs/banitrack/internal/sacred"
	"github.com/banilabs/banitrack/internal/speech"
	"github.com/banilabs/banitrack/pkg/audiolevel"
	"github.com/banilabs/banitrack/pkg/corpus"
	"github.com/banilabs/banitrack/pkg/corpus/banidb"
	"github.com/banilabs/banitrack/pkg/corpus/granthfile"
	"github.com/banilabs/banitrack/pkg/dictation"
)

// App owns all subsystem lifetimes and orchestrates the alignment pipeline.
type App struct {
	cfg     *config.Config
	bus     evbus.Bus
	metrics *observe.Metrics
	log     *slog.Logger

	lib        *corpus.Library
	source     config.Source
	recognizer dictation.Recognizer
	vol        audiolevel.Source
	manager    *speech.Manager
	session    *Session

	mu      sync.Mutex
	filter  *sacred.Filter
	matcher *match.Matcher
	aligner *align.Aligner

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithBus injects an event bus instead of creating a fresh one.
func WithBus(b evbus.Bus) Option {
	return func(a *App) { a.bus = b }
}

// WithMetrics injects a metrics instance instead of using the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLibrary injects a corpus library instead of loading one from disk.
func WithLibrary(lib *corpus.Library) Option {
	return func(a *App) { a.lib = lib }
}

// WithSource injects a corpus source instead of creating one from config.
func WithSource(s config.Source) Option {
	return func(a *App) { a.source = s }
}

// WithRecognizer injects a dictation recognizer. Without one the app runs in
// API-driven mode: transcripts arrive over HTTP only.
func WithRecognizer(r dictation.Recognizer) Option {
	return func(a *App) { a.recognizer = r }
}

// WithVolumeSource injects a microphone level source for voice gating.
func WithVolumeSource(v audiolevel.Source) Option {
	return func(a *App) { a.vol = v }
}

// DefaultRegistry returns a corpus source registry with the built-in sources
// registered.
func DefaultRegistry() *config.Registry {
	reg := config.NewRegistry()
	reg.RegisterSource("banidb", func(e config.SourceEntry) (config.Source, error) {
		var opts []banidb.Option
		if e.BaseURL != "" {
			opts = append(opts, banidb.WithBaseURL(e.BaseURL))
		}
		if e.UserAgent != "" {
			opts = append(opts, banidb.WithUserAgent(e.UserAgent))
		}
		if e.CacheTTLSeconds > 0 {
			opts = append(opts, banidb.WithCacheTTL(time.Duration(e.CacheTTLSeconds)*time.Second))
		}
		return banidb.New(opts...), nil
	})
	return reg
}

// New creates an App by wiring all subsystems together. reg supplies corpus
// source constructors; nil uses [DefaultRegistry]. Use Option functions to
// inject test doubles for any subsystem.
func New(cfg *config.Config, reg *config.Registry, opts ...Option) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default().With(slog.String("component", "app")),
	}
	for _, o := range opts {
		o(a)
	}

	if a.bus == nil {
		a.bus = evbus.New()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Corpus library ────────────────────────────────────────────────
	if a.lib == nil {
		if cfg.Corpus.Path == "" {
			return nil, fmt.Errorf("app: corpus.path is required when no library is injected")
		}
		lib, err := granthfile.Load(cfg.Corpus.Path)
		if err != nil {
			return nil, fmt.Errorf("app: load corpus: %w", err)
		}
		a.lib = lib
		a.log.Info("corpus loaded", slog.String("path", cfg.Corpus.Path), slog.Int("lines", lib.Len()))
	}

	// ── 2. Corpus source ─────────────────────────────────────────────────
	if a.source == nil {
		if reg == nil {
			reg = DefaultRegistry()
		}
		entry := cfg.Corpus.Source
		if entry.Name == "" {
			entry.Name = "banidb"
		}
		src, err := reg.CreateSource(entry)
		if err != nil {
			return nil, fmt.Errorf("app: create corpus source: %w", err)
		}
		a.source = resilience.NewSourceFallback(src, entry.Name, resilience.FallbackConfig{})
	}

	// ── 3. Sacred filter ─────────────────────────────────────────────────
	a.filter = buildFilter(cfg)

	// ── 4. Matcher + aligner ─────────────────────────────────────────────
	a.matcher = match.NewMatcher(a.lib, cfg.Matcher())
	a.aligner = align.New(a.matcher, a.lib, a.source, a.source, cfg.Aligner(slog.Default()))

	// ── 5. Session ───────────────────────────────────────────────────────
	a.session = NewSession(a.bus, a.filter, a.aligner, a.metrics, SessionConfig{})

	// ── 6. Dictation ─────────────────────────────────────────────────────
	if a.recognizer != nil {
		if a.vol == nil {
			a.vol = audiolevel.NewMeter()
		}
		a.manager = speech.New(a.recognizer, a.vol, cfg.Lifecycle(slog.Default()), a.session.Callbacks())
	}

	return a, nil
}

// buildFilter combines the built-in phrase table with configured extras.
func buildFilter(cfg *config.Config) *sacred.Filter {
	phrases := sacred.DefaultPhrases()
	phrases = append(phrases, cfg.ExtraPhrases()...)
	return sacred.NewWithPhrases(phrases)
}

// Run starts dictation (when a recognizer is configured) and blocks until ctx
// is done. Returns ctx.Err() after teardown of the dictation session.
func (a *App) Run(ctx context.Context) error {
	a.session.Bind(ctx)

	if a.manager != nil {
		if err := a.manager.Start(ctx); err != nil {
			if errors.Is(err, dictation.ErrUnsupported) {
				a.log.Warn("dictation unsupported, running in API-driven mode", slog.Any("error", err))
			} else {
				return fmt.Errorf("app: start dictation: %w", err)
			}
		}
	} else {
		a.log.Info("no recognizer configured, running in API-driven mode")
	}

	a.log.Info("app running", slog.Int("corpus_lines", a.lib.Len()))
	<-ctx.Done()

	if a.manager != nil {
		a.manager.Stop()
	}
	return ctx.Err()
}

// ApplyDiff applies a hot-reloadable config change. Sacred phrase changes
// swap the filter in place; matcher tuning changes rebuild the matcher and
// reset alignment state.
func (a *App) ApplyDiff(d config.ConfigDiff, newCfg *config.Config) {
	if d.SacredChanged {
		f := buildFilter(newCfg)
		a.mu.Lock()
		a.filter = f
		a.mu.Unlock()
		a.session.SetFilter(f)
		a.log.Info("sacred phrase table reloaded", slog.Int("changes", len(d.PhraseChanges)))
	}

	if d.MatchChanged {
		a.mu.Lock()
		a.cfg.Match = d.NewMatch
		matcher := match.NewMatcher(a.lib, newCfg.Matcher())
		aligner := align.New(matcher, a.lib, a.source, a.source, newCfg.Aligner(slog.Default()))
		a.matcher = matcher
		a.aligner = aligner
		a.mu.Unlock()
		a.session.SetAligner(aligner)
		a.log.Info("matcher retuned, alignment reset")
	}
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", slog.Int("closers", len(a.closers)))

		if a.manager != nil {
			a.manager.Stop()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.log.Warn("shutdown deadline exceeded", slog.Int("remaining", len(a.closers)-i))
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.log.Warn("closer error", slog.Int("index", i), slog.Any("error", err))
			}
		}

		a.log.Info("shutdown complete")
	})
	return shutdownErr
}

// Session returns the live captioning session.
func (a *App) Session() *Session { return a.session }

// Bus returns the event bus.
func (a *App) Bus() evbus.Bus { return a.bus }

// Metrics returns the metrics instance.
func (a *App) Metrics() *observe.Metrics { return a.metrics }

// Manager returns the speech manager, or nil in API-driven mode.
func (a *App) Manager() *speech.Manager { return a.manager }

// Library returns the loaded corpus library.
func (a *App) Library() *corpus.Library { return a.lib }

// Aligner returns the current aligner instance.
func (a *App) Aligner() *align.Aligner {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aligner
}
