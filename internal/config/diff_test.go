package config_test

import (
	"testing"

	"github.com/banilabs/banitrack/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogInfo},
		Match:  config.MatchConfig{ColdStartThreshold: 50},
		Sacred: config.SacredConfig{ExtraPhrases: []config.PhraseEntry{
			{Name: "invocation", Gurmukhi: "ਬੋਲੇ ਸੋ ਨਿਹਾਲ"},
		}},
	}
	d := config.Diff(cfg, cfg)
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.MatchChanged {
		t.Error("expected MatchChanged=false for identical configs")
	}
	if d.SacredChanged {
		t.Error("expected SacredChanged=false for identical configs")
	}
	if len(d.PhraseChanges) != 0 {
		t.Errorf("expected 0 phrase changes, got %d", len(d.PhraseChanges))
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_MatchTuningChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Match: config.MatchConfig{WindowedThreshold: 30}}
	new := &config.Config{Match: config.MatchConfig{WindowedThreshold: 40}}

	d := config.Diff(old, new)
	if !d.MatchChanged {
		t.Error("expected MatchChanged=true")
	}
	if d.NewMatch.WindowedThreshold != 40 {
		t.Errorf("expected NewMatch.WindowedThreshold=40, got %d", d.NewMatch.WindowedThreshold)
	}
}

func TestDiff_PhraseChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Sacred: config.SacredConfig{ExtraPhrases: []config.PhraseEntry{
		{Name: "invocation", Roman: "bole so nihal"},
	}}}
	new := &config.Config{Sacred: config.SacredConfig{ExtraPhrases: []config.PhraseEntry{
		{Name: "invocation", Roman: "sat sri akal"},
	}}}

	d := config.Diff(old, new)
	if !d.SacredChanged {
		t.Error("expected SacredChanged=true")
	}
	if len(d.PhraseChanges) != 1 {
		t.Fatalf("expected 1 phrase change, got %d", len(d.PhraseChanges))
	}
	if !d.PhraseChanges[0].Changed {
		t.Error("expected Changed=true")
	}
}

func TestDiff_PhraseAddedAndRemoved(t *testing.T) {
	t.Parallel()
	old := &config.Config{Sacred: config.SacredConfig{ExtraPhrases: []config.PhraseEntry{
		{Name: "kept", Roman: "waheguru"},
		{Name: "dropped", Roman: "old phrase"},
	}}}
	new := &config.Config{Sacred: config.SacredConfig{ExtraPhrases: []config.PhraseEntry{
		{Name: "kept", Roman: "waheguru"},
		{Name: "fresh", Roman: "new phrase"},
	}}}

	d := config.Diff(old, new)
	if !d.SacredChanged {
		t.Error("expected SacredChanged=true")
	}
	changes := make(map[string]config.PhraseDiff)
	for _, pc := range d.PhraseChanges {
		changes[pc.Name] = pc
	}
	if !changes["dropped"].Removed {
		t.Error("expected dropped Removed=true")
	}
	if !changes["fresh"].Added {
		t.Error("expected fresh Added=true")
	}
	if _, ok := changes["kept"]; ok {
		t.Error("unchanged phrase should not appear in changes")
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogInfo},
		Match:  config.MatchConfig{Lookahead: 2},
		Sacred: config.SacredConfig{ExtraPhrases: []config.PhraseEntry{
			{Name: "a", Roman: "p1"},
		}},
	}
	new := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogWarn},
		Match:  config.MatchConfig{Lookahead: 3},
		Sacred: config.SacredConfig{ExtraPhrases: []config.PhraseEntry{
			{Name: "a", Roman: "p2"},
			{Name: "b", Roman: "p3"},
		}},
	}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if !d.MatchChanged {
		t.Error("expected MatchChanged=true")
	}
	if !d.SacredChanged {
		t.Error("expected SacredChanged=true")
	}
	changes := make(map[string]config.PhraseDiff)
	for _, pc := range d.PhraseChanges {
		changes[pc.Name] = pc
	}
	if !changes["a"].Changed {
		t.Error("expected a Changed=true")
	}
	if !changes["b"].Added {
		t.Error("expected b Added=true")
	}
}
