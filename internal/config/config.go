// Package config provides the configuration schema, loader, file watcher,
// and corpus-source registry for the banitrack alignment server.
package config

import (
	"log/slog"
	"time"

	"github.com/banilabs/banitrack/internal/align"
	"github.com/banilabs/banitrack/internal/match"
	"github.com/banilabs/banitrack/internal/sacred"
	"github.com/banilabs/banitrack/internal/speech"
	"github.com/banilabs/banitrack/pkg/dictation"
)

// LogLevel controls log verbosity for the banitrack server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to its slog level. Unset or unknown levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure for banitrack.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server ServerConfig `yaml:"server"`
	Corpus CorpusConfig `yaml:"corpus"`
	Speech SpeechConfig `yaml:"speech"`
	Match  MatchConfig  `yaml:"match"`
	Align  AlignConfig  `yaml:"align"`
	Sacred SacredConfig `yaml:"sacred"`
}

// ServerConfig holds network and logging settings for the banitrack server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Hot-reloadable.
	LogLevel LogLevel `yaml:"log_level"`
}

// CorpusConfig describes where the reference text comes from: a bulk line
// file loaded at startup for whole-corpus search, and a keyed document source
// for retrieval and navigation.
type CorpusConfig struct {
	// Path is the bulk corpus text file, one verse per line.
	Path string `yaml:"path"`

	// Source selects and configures the document-retrieval backend.
	Source SourceEntry `yaml:"source"`
}

// SourceEntry is the common configuration block shared by all corpus source
// kinds. The Name field selects the constructor in the [Registry].
type SourceEntry struct {
	// Name selects the registered source implementation (e.g., "banidb").
	Name string `yaml:"name"`

	// BaseURL overrides the source's default API endpoint.
	// Leave empty to use the source's built-in default.
	BaseURL string `yaml:"base_url"`

	// UserAgent overrides the User-Agent header sent by HTTP sources.
	UserAgent string `yaml:"user_agent"`

	// CacheTTLSeconds bounds how long fetched documents are reused before
	// the source refetches. Zero keeps the source's default.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// Options holds source-specific configuration values not covered by the
	// standard fields above.
	Options map[string]any `yaml:"options"`
}

// SpeechConfig tunes the dictation lifecycle manager.
type SpeechConfig struct {
	// Language is the recognition language tag (e.g., "pa-IN").
	Language string `yaml:"language"`

	// InterimResults requests provisional fragments from the recognizer.
	InterimResults bool `yaml:"interim_results"`

	// MaxNoSpeech is the consecutive no-speech limit after which restarts
	// become voice-gated.
	MaxNoSpeech int `yaml:"max_no_speech"`

	// NoSpeechRestartDelayMS is the restart delay after a no-speech end,
	// in milliseconds.
	NoSpeechRestartDelayMS int `yaml:"no_speech_restart_delay_ms"`

	// ErrorRestartDelayMS is the restart delay after other recoverable
	// errors, in milliseconds.
	ErrorRestartDelayMS int `yaml:"error_restart_delay_ms"`

	// VoiceThreshold is the RMS volume treated as voice activity, in the
	// range (0, 1].
	VoiceThreshold float64 `yaml:"voice_threshold"`

	// VoicePollIntervalMS is the voice monitor sampling interval, in
	// milliseconds.
	VoicePollIntervalMS int `yaml:"voice_poll_interval_ms"`
}

// MatchConfig tunes the fuzzy matcher. Scores are on the 0–100 scale and
// thresholds are hot-reloadable.
type MatchConfig struct {
	ColdStartThreshold int `yaml:"cold_start_threshold"`
	MatraThreshold     int `yaml:"matra_threshold"`
	WindowedThreshold  int `yaml:"windowed_threshold"`
	PhraseMinWords     int `yaml:"phrase_min_words"`
	PhraseMaxWords     int `yaml:"phrase_max_words"`
	Lookahead          int `yaml:"lookahead"`
	EarlyExitScore     int `yaml:"early_exit_score"`
	CacheTTLSeconds    int `yaml:"cache_ttl_seconds"`
}

// AlignConfig tunes the progressive aligner.
type AlignConfig struct {
	// PrefetchMargin triggers look-ahead paging when the anchor is within
	// this many lines of the end of the resident sequence.
	PrefetchMargin int `yaml:"prefetch_margin"`

	// FetchTimeoutSeconds bounds a single document fetch.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
}

// SacredConfig extends the built-in liturgical phrase table. Hot-reloadable.
type SacredConfig struct {
	// ExtraPhrases are appended to the built-in table and take part in the
	// same longest-first precedence.
	ExtraPhrases []PhraseEntry `yaml:"extra_phrases"`
}

// PhraseEntry is one liturgical phrase in both scripts.
type PhraseEntry struct {
	// Name identifies the phrase in match reports and logs.
	Name string `yaml:"name"`

	// Gurmukhi is the original-script form, matched literally. At least one
	// of Gurmukhi and Roman must be set.
	Gurmukhi string `yaml:"gurmukhi"`

	// Roman is the transliterated form, matched case-insensitively.
	Roman string `yaml:"roman"`
}

// Matcher converts the match section to a [match.Config]. Zero fields keep
// the matcher's package defaults.
func (c *Config) Matcher() match.Config {
	return match.Config{
		ColdStartThreshold: c.Match.ColdStartThreshold,
		MatraThreshold:     c.Match.MatraThreshold,
		WindowedThreshold:  c.Match.WindowedThreshold,
		PhraseMinWords:     c.Match.PhraseMinWords,
		PhraseMaxWords:     c.Match.PhraseMaxWords,
		Lookahead:          c.Match.Lookahead,
		EarlyExitScore:     c.Match.EarlyExitScore,
		CacheTTL:           time.Duration(c.Match.CacheTTLSeconds) * time.Second,
	}
}

// Lifecycle converts the speech section to a [speech.Config]. Zero fields
// keep the manager's package defaults.
func (c *Config) Lifecycle(logger *slog.Logger) speech.Config {
	return speech.Config{
		MaxNoSpeech:          c.Speech.MaxNoSpeech,
		NoSpeechRestartDelay: time.Duration(c.Speech.NoSpeechRestartDelayMS) * time.Millisecond,
		ErrorRestartDelay:    time.Duration(c.Speech.ErrorRestartDelayMS) * time.Millisecond,
		VoiceThreshold:       c.Speech.VoiceThreshold,
		VoicePollInterval:    time.Duration(c.Speech.VoicePollIntervalMS) * time.Millisecond,
		Dictation: dictation.Config{
			Language:       c.Speech.Language,
			InterimResults: c.Speech.InterimResults,
		},
		Logger: logger,
	}
}

// Aligner converts the align section to an [align.Config]. Zero fields keep
// the aligner's package defaults.
func (c *Config) Aligner(logger *slog.Logger) align.Config {
	return align.Config{
		PrefetchMargin: c.Align.PrefetchMargin,
		FetchTimeout:   time.Duration(c.Align.FetchTimeoutSeconds) * time.Second,
		Logger:         logger,
	}
}

// ExtraPhrases converts the sacred section to [sacred.Phrase] values.
func (c *Config) ExtraPhrases() []sacred.Phrase {
	out := make([]sacred.Phrase, 0, len(c.Sacred.ExtraPhrases))
	for _, p := range c.Sacred.ExtraPhrases {
		out = append(out, sacred.Phrase{Name: p.Name, Gurmukhi: p.Gurmukhi, Roman: p.Roman})
	}
	return out
}
