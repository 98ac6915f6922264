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

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

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
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("llm", cfg.Providers.Fallback.Name)

	if cfg.Providers.LLM.Name == "" && len(cfg.Packs) > 0 {
		slog.Warn("no LLM provider configured; characters will not be able to perform")
	}
	if cfg.Providers.Fallback.Name != "" && cfg.Providers.Fallback.Name == cfg.Providers.LLM.Name &&
		cfg.Providers.Fallback.Model == cfg.Providers.LLM.Model {
		slog.Warn("fallback provider is identical to the primary; fallback adds nothing",
			"provider", cfg.Providers.LLM.Name)
	}

	// Store availability
	if cfg.Store.PostgresDSN == "" && len(cfg.Packs) == 0 {
		slog.Warn("store.postgres_dsn is empty and no character packs configured; the cast will be empty")
	}

	// Character packs — duplicates are almost certainly a copy-paste mistake.
	seen := make(map[string]int, len(cfg.Packs))
	for i, path := range cfg.Packs {
		if path == "" {
			errs = append(errs, fmt.Errorf("packs[%d] is empty", i))
			continue
		}
		if prev, ok := seen[path]; ok {
			errs = append(errs, fmt.Errorf("packs[%d] %q is a duplicate of packs[%d]", i, path, prev))
		}
		seen[path] = i
	}

	// Scene
	if cfg.Scene.MaxMembers < 0 {
		errs = append(errs, fmt.Errorf("scene.max_members %d must not be negative", cfg.Scene.MaxMembers))
	}
	if cfg.Scene.HistoryDepth < 0 {
		errs = append(errs, fmt.Errorf("scene.history_depth %d must not be negative", cfg.Scene.HistoryDepth))
	}

	// Feed
	if cfg.Feed.WriteTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("feed.write_timeout_seconds %d must not be negative", cfg.Feed.WriteTimeoutSeconds))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
