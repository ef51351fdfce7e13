package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; network, corpus,
// and speech changes need a restart and are ignored here.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// MatchChanged means any matcher threshold or tuning knob changed.
	MatchChanged bool
	NewMatch     MatchConfig

	// SacredChanged means the extra phrase table changed.
	SacredChanged bool
	PhraseChanges []PhraseDiff
}

// PhraseDiff describes what changed for a single extra phrase between two
// configs.
type PhraseDiff struct {
	Name    string
	Changed bool
	Added   bool
	Removed bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	// Matcher tuning
	if old.Match != new.Match {
		d.MatchChanged = true
		d.NewMatch = new.Match
	}

	// Build phrase lookup maps keyed by name.
	oldPhrases := make(map[string]*PhraseEntry, len(old.Sacred.ExtraPhrases))
	for i := range old.Sacred.ExtraPhrases {
		oldPhrases[old.Sacred.ExtraPhrases[i].Name] = &old.Sacred.ExtraPhrases[i]
	}
	newPhrases := make(map[string]*PhraseEntry, len(new.Sacred.ExtraPhrases))
	for i := range new.Sacred.ExtraPhrases {
		newPhrases[new.Sacred.ExtraPhrases[i].Name] = &new.Sacred.ExtraPhrases[i]
	}

	// Detect modified and removed phrases.
	for name, oldP := range oldPhrases {
		newP, exists := newPhrases[name]
		if !exists {
			d.PhraseChanges = append(d.PhraseChanges, PhraseDiff{
				Name:    name,
				Removed: true,
			})
			d.SacredChanged = true
			continue
		}
		if *oldP != *newP {
			d.PhraseChanges = append(d.PhraseChanges, PhraseDiff{
				Name:    name,
				Changed: true,
			})
			d.SacredChanged = true
		}
	}

	// Detect added phrases.
	for name := range newPhrases {
		if _, exists := oldPhrases[name]; !exists {
			d.PhraseChanges = append(d.PhraseChanges, PhraseDiff{
				Name:  name,
				Added: true,
			})
			d.SacredChanged = true
		}
	}

	return d
}
