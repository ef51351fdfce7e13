package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidSourceNames lists known corpus source names. Used by [Validate] to
// warn about unrecognised names; unknown names may still be registered by the
// embedding application.
var ValidSourceNames = []string{"banidb", "memory"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Corpus
	if cfg.Corpus.Path == "" {
		slog.Warn("corpus.path is empty; cold-start search needs a bulk corpus file")
	}
	if name := cfg.Corpus.Source.Name; name != "" && !slices.Contains(ValidSourceNames, name) {
		slog.Warn("unknown corpus source name — may be a typo or an application-registered source",
			"name", name,
			"known", ValidSourceNames,
		)
	}
	if cfg.Corpus.Source.CacheTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("corpus.source.cache_ttl_seconds %d must not be negative", cfg.Corpus.Source.CacheTTLSeconds))
	}

	// Speech
	if cfg.Speech.MaxNoSpeech < 0 {
		errs = append(errs, fmt.Errorf("speech.max_no_speech %d must not be negative", cfg.Speech.MaxNoSpeech))
	}
	if cfg.Speech.NoSpeechRestartDelayMS < 0 {
		errs = append(errs, fmt.Errorf("speech.no_speech_restart_delay_ms %d must not be negative", cfg.Speech.NoSpeechRestartDelayMS))
	}
	if cfg.Speech.ErrorRestartDelayMS < 0 {
		errs = append(errs, fmt.Errorf("speech.error_restart_delay_ms %d must not be negative", cfg.Speech.ErrorRestartDelayMS))
	}
	if cfg.Speech.VoiceThreshold < 0 || cfg.Speech.VoiceThreshold > 1 {
		errs = append(errs, fmt.Errorf("speech.voice_threshold %.3f is out of range [0, 1]", cfg.Speech.VoiceThreshold))
	}
	if cfg.Speech.VoicePollIntervalMS < 0 {
		errs = append(errs, fmt.Errorf("speech.voice_poll_interval_ms %d must not be negative", cfg.Speech.VoicePollIntervalMS))
	}

	// Match
	checkScore := func(field string, v int) {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("match.%s %d is out of range [0, 100]", field, v))
		}
	}
	checkScore("cold_start_threshold", cfg.Match.ColdStartThreshold)
	checkScore("matra_threshold", cfg.Match.MatraThreshold)
	checkScore("windowed_threshold", cfg.Match.WindowedThreshold)
	checkScore("early_exit_score", cfg.Match.EarlyExitScore)
	if cfg.Match.PhraseMinWords < 0 {
		errs = append(errs, fmt.Errorf("match.phrase_min_words %d must not be negative", cfg.Match.PhraseMinWords))
	}
	if cfg.Match.PhraseMinWords > 0 && cfg.Match.PhraseMaxWords > 0 &&
		cfg.Match.PhraseMinWords > cfg.Match.PhraseMaxWords {
		errs = append(errs, fmt.Errorf("match.phrase_min_words %d exceeds match.phrase_max_words %d",
			cfg.Match.PhraseMinWords, cfg.Match.PhraseMaxWords))
	}
	if cfg.Match.Lookahead < 0 {
		errs = append(errs, fmt.Errorf("match.lookahead %d must not be negative", cfg.Match.Lookahead))
	}
	if cfg.Match.CacheTTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("match.cache_ttl_seconds %d must not be negative", cfg.Match.CacheTTLSeconds))
	}

	// Align
	if cfg.Align.PrefetchMargin < 0 {
		errs = append(errs, fmt.Errorf("align.prefetch_margin %d must not be negative", cfg.Align.PrefetchMargin))
	}
	if cfg.Align.FetchTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("align.fetch_timeout_seconds %d must not be negative", cfg.Align.FetchTimeoutSeconds))
	}

	// Sacred phrases: duplicate names and empty patterns.
	phraseNamesSeen := make(map[string]int, len(cfg.Sacred.ExtraPhrases))
	for i, p := range cfg.Sacred.ExtraPhrases {
		prefix := fmt.Sprintf("sacred.extra_phrases[%d]", i)
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else {
			if prev, ok := phraseNamesSeen[p.Name]; ok {
				errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of sacred.extra_phrases[%d]", prefix, p.Name, prev))
			}
			phraseNamesSeen[p.Name] = i
		}
		if p.Gurmukhi == "" && p.Roman == "" {
			errs = append(errs, fmt.Errorf("%s needs at least one of gurmukhi or roman", prefix))
		}
	}

	return errors.Join(errs...)
}
