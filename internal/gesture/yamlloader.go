package gesture

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// catalogFile is the top-level structure of a gesture catalog extension file.
//
// Example:
//
//	gestures:
//	  - id: quill_tap
//	    name: "Quill Tap"
//	    category: thinking
//	    description: "Taps a quill against the ledger while weighing odds."
//	    animation: anim.think.quill_tap
//	    intensity: subtle
type catalogFile struct {
	Gestures []Gesture `yaml:"gestures"`
}

// LoadFile reads a catalog extension file and returns the built-in table
// extended with its records. An ID that collides with a built-in gesture is
// rejected: extensions add cues, they do not redefine the stock set.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gesture: open catalog file %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("gesture: catalog file %q: %w", path, err)
	}
	return c, nil
}

// LoadFromReader parses catalog extension YAML from an [io.Reader] and
// returns the built-in table extended with the parsed records.
func LoadFromReader(r io.Reader) (*Catalog, error) {
	var cf catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(cf.Gestures) == 0 {
		return nil, fmt.Errorf("no gestures defined")
	}
	return New(append(slices.Clone(builtinRecords), cf.Gestures...))
}
