package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// PacksChanged is true when the character pack list changed; the caller
	// should re-import packs into the store.
	PacksChanged bool

	// ProviderChanged is true when the primary or fallback LLM entry changed.
	// Provider swaps require a restart; the diff only reports them.
	ProviderChanged bool
}

// Any reports whether the diff contains any change at all.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.PacksChanged || d.ProviderChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !slices.Equal(old.Packs, new.Packs) {
		d.PacksChanged = true
	}

	if providerEntryChanged(old.Providers.LLM, new.Providers.LLM) ||
		providerEntryChanged(old.Providers.Fallback, new.Providers.Fallback) {
		d.ProviderChanged = true
	}

	return d
}

func providerEntryChanged(old, new ProviderEntry) bool {
	return old.Name != new.Name ||
		old.APIKey != new.APIKey ||
		old.BaseURL != new.BaseURL ||
		old.Model != new.Model
}
