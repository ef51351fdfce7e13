package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/banilabs/banitrack/internal/config"
	"github.com/banilabs/banitrack/pkg/corpus"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

corpus:
  path: corpus/sggs.txt
  source:
    name: banidb
    base_url: https://api.banidb.com/v2
    user_agent: banitrack-test
    cache_ttl_seconds: 600

speech:
  language: pa-IN
  interim_results: true
  max_no_speech: 3
  no_speech_restart_delay_ms: 800
  error_restart_delay_ms: 1200
  voice_threshold: 0.01
  voice_poll_interval_ms: 50

match:
  cold_start_threshold: 50
  matra_threshold: 55
  windowed_threshold: 30
  phrase_min_words: 2
  phrase_max_words: 4
  lookahead: 2
  early_exit_score: 95
  cache_ttl_seconds: 300

align:
  prefetch_margin: 2
  fetch_timeout_seconds: 10

sacred:
  extra_phrases:
    - name: jaikara
      gurmukhi: "ਬੋਲੇ ਸੋ ਨਿਹਾਲ"
      roman: "bole so nihal"
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Corpus.Path != "corpus/sggs.txt" {
		t.Errorf("corpus.path: got %q", cfg.Corpus.Path)
	}
	if cfg.Corpus.Source.BaseURL != "https://api.banidb.com/v2" {
		t.Errorf("corpus.source.base_url: got %q", cfg.Corpus.Source.BaseURL)
	}
	if !cfg.Speech.InterimResults {
		t.Error("speech.interim_results: got false, want true")
	}
	if cfg.Match.EarlyExitScore != 95 {
		t.Errorf("match.early_exit_score: got %d, want 95", cfg.Match.EarlyExitScore)
	}
	if cfg.Align.PrefetchMargin != 2 {
		t.Errorf("align.prefetch_margin: got %d, want 2", cfg.Align.PrefetchMargin)
	}
	if len(cfg.Sacred.ExtraPhrases) != 1 {
		t.Fatalf("sacred.extra_phrases: got %d, want 1", len(cfg.Sacred.ExtraPhrases))
	}
	if cfg.Sacred.ExtraPhrases[0].Name != "jaikara" {
		t.Errorf("sacred.extra_phrases[0].name: got %q", cfg.Sacred.ExtraPhrases[0].Name)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	// An empty config should succeed (no required top-level fields).
	_, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
}

// ── Log level mapping ─────────────────────────────────────────────────────────

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level config.LogLevel
		valid bool
	}{
		{config.LogDebug, true},
		{config.LogInfo, true},
		{config.LogWarn, true},
		{config.LogError, true},
		{config.LogLevel("verbose"), false},
		{config.LogLevel(""), false},
	}
	for _, tt := range tests {
		if got := tt.level.IsValid(); got != tt.valid {
			t.Errorf("LogLevel(%q).IsValid() = %v, want %v", tt.level, got, tt.valid)
		}
	}
	if config.LogDebug.SlogLevel() >= config.LogInfo.SlogLevel() {
		t.Error("debug should map below info")
	}
	if got := config.LogLevel("").SlogLevel(); got != config.LogInfo.SlogLevel() {
		t.Errorf("unset level should map to info, got %v", got)
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_UnknownSource(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateSource(config.SourceEntry{Name: "nonexistent"})
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
	if !errors.Is(err, config.ErrSourceNotRegistered) {
		t.Errorf("expected ErrSourceNotRegistered, got: %v", err)
	}
}

func TestRegistry_RegisteredSource(t *testing.T) {
	reg := config.NewRegistry()
	want := &stubSource{}
	var gotEntry config.SourceEntry
	reg.RegisterSource("stub", func(e config.SourceEntry) (config.Source, error) {
		gotEntry = e
		return want, nil
	})
	got, err := reg.CreateSource(config.SourceEntry{Name: "stub", BaseURL: "http://x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != config.Source(want) {
		t.Error("returned source is not the expected instance")
	}
	if gotEntry.BaseURL != "http://x" {
		t.Errorf("factory entry base_url: got %q, want http://x", gotEntry.BaseURL)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.RegisterSource("broken", func(e config.SourceEntry) (config.Source, error) {
		return nil, wantErr
	})
	_, err := reg.CreateSource(config.SourceEntry{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error %v, got %v", wantErr, err)
	}
}

func TestRegistry_OverwriteRegistration(t *testing.T) {
	reg := config.NewRegistry()
	first := &stubSource{}
	second := &stubSource{}
	reg.RegisterSource("dup", func(config.SourceEntry) (config.Source, error) { return first, nil })
	reg.RegisterSource("dup", func(config.SourceEntry) (config.Source, error) { return second, nil })
	got, err := reg.CreateSource(config.SourceEntry{Name: "dup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != config.Source(second) {
		t.Error("later registration should win")
	}
}

// ── Stub implementations (satisfy interfaces for the compiler) ────────────────

// stubSource implements config.Source with no-op methods.
type stubSource struct{}

func (s *stubSource) FetchDocument(_ context.Context, _ string) (*corpus.Document, error) {
	return nil, nil
}

func (s *stubSource) ResolveDocument(_ context.Context, _ corpus.Line) (string, error) {
	return "", nil
}
