package config_test

import (
	"testing"

	"github.com/stagecue/stagecue/internal/config"
)

func TestDiff(t *testing.T) {
	t.Parallel()

	base := func() *config.Config {
		return &config.Config{
			Server: config.ServerConfig{LogLevel: config.LogInfo},
			Providers: config.ProvidersConfig{
				LLM: config.ProviderEntry{Name: "openai", Model: "gpt-4o"},
			},
			Packs: []string{"a.yaml", "b.yaml"},
		}
	}

	t.Run("no changes", func(t *testing.T) {
		t.Parallel()
		d := config.Diff(base(), base())
		if d.Any() {
			t.Errorf("Diff() of identical configs = %+v, want no changes", d)
		}
	})

	t.Run("log level", func(t *testing.T) {
		t.Parallel()
		new := base()
		new.Server.LogLevel = config.LogDebug
		d := config.Diff(base(), new)
		if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
			t.Errorf("Diff() = %+v, want log level change to debug", d)
		}
		if d.PacksChanged || d.ProviderChanged {
			t.Errorf("Diff() reported unrelated changes: %+v", d)
		}
	})

	t.Run("packs", func(t *testing.T) {
		t.Parallel()
		new := base()
		new.Packs = []string{"a.yaml", "c.yaml"}
		d := config.Diff(base(), new)
		if !d.PacksChanged {
			t.Errorf("Diff() = %+v, want PacksChanged", d)
		}
	})

	t.Run("pack order matters", func(t *testing.T) {
		t.Parallel()
		new := base()
		new.Packs = []string{"b.yaml", "a.yaml"}
		if d := config.Diff(base(), new); !d.PacksChanged {
			t.Error("reordered packs not reported as changed")
		}
	})

	t.Run("provider model", func(t *testing.T) {
		t.Parallel()
		new := base()
		new.Providers.LLM.Model = "gpt-4o-mini"
		d := config.Diff(base(), new)
		if !d.ProviderChanged {
			t.Errorf("Diff() = %+v, want ProviderChanged", d)
		}
	})

	t.Run("fallback added", func(t *testing.T) {
		t.Parallel()
		new := base()
		new.Providers.Fallback = config.ProviderEntry{Name: "ollama", Model: "llama3"}
		d := config.Diff(base(), new)
		if !d.ProviderChanged {
			t.Errorf("Diff() = %+v, want ProviderChanged for new fallback", d)
		}
	})
}
