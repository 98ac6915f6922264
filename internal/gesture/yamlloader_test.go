package gesture_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stagecue/stagecue/internal/gesture"
)

const extensionYAML = `gestures:
  - id: quill_tap
    name: "Quill Tap"
    category: thinking
    description: "Taps a quill against the ledger while weighing odds."
    animation: anim.think.quill_tap
    intensity: subtle
  - id: cloak_sweep
    name: "Cloak Sweep"
    category: concluding
    description: "Sweeps the cloak around before turning away."
    intensity: strong
`

func TestLoadFromReader_ExtendsBuiltin(t *testing.T) {
	c, err := gesture.LoadFromReader(strings.NewReader(extensionYAML))
	if err != nil {
		t.Fatalf("LoadFromReader() error = %v", err)
	}

	g, ok := c.ByID("quill_tap")
	if !ok {
		t.Fatal("extension gesture quill_tap not in catalog")
	}
	if g.Category != gesture.CategoryThinking || g.Intensity != gesture.IntensitySubtle {
		t.Errorf("quill_tap = %+v, want thinking/subtle", g)
	}

	// Built-in records survive the extension.
	if !c.IsValidID("chin_stroke") {
		t.Error("built-in gesture chin_stroke missing from extended catalog")
	}
	if got, want := c.Len(), gesture.Builtin().Len()+2; got != want {
		t.Errorf("catalog size = %d, want %d", got, want)
	}

	// cloak_sweep joins concluding's random pool.
	if got := len(c.ByCategory(gesture.CategoryConcluding)); got != len(gesture.Builtin().ByCategory(gesture.CategoryConcluding))+1 {
		t.Errorf("concluding category size = %d after extension", got)
	}
}

func TestLoadFromReader_Rejections(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"builtin id collision", "gestures:\n  - {id: chin_stroke, name: X, category: thinking, intensity: subtle}\n"},
		{"unknown category", "gestures:\n  - {id: new_one, name: X, category: flailing, intensity: subtle}\n"},
		{"unknown top-level key", "moves:\n  - {id: new_one}\n"},
		{"empty file", ""},
		{"no gestures", "gestures: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := gesture.LoadFromReader(strings.NewReader(tt.yaml)); err == nil {
				t.Error("LoadFromReader() = nil error, want error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gestures.yaml")
	if err := os.WriteFile(path, []byte(extensionYAML), 0o644); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	c, err := gesture.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !c.IsValidID("cloak_sweep") {
		t.Error("extension gesture cloak_sweep not in catalog")
	}

	if _, err := gesture.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile(missing) = nil error, want error")
	}
}
