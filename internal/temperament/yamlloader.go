package temperament

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// catalogFile is the top-level structure of a temperament catalog extension
// file.
//
// Example:
//
//	temperaments:
//	  - id: conspiratorial
//	    category: expressive
//	    description: "Speaks as if every exchange were a shared secret."
//	    instructions: |
//	      Conspiratorial
//	      Lower the register, as if leaning in close.
type catalogFile struct {
	Temperaments []Temperament `yaml:"temperaments"`
}

// LoadFile reads a catalog extension file and returns the built-in table
// extended with its records. IDs that collide with built-in temperaments are
// rejected.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("temperament: open catalog file %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("temperament: catalog file %q: %w", path, err)
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
	if len(cf.Temperaments) == 0 {
		return nil, fmt.Errorf("no temperaments defined")
	}
	return New(append(slices.Clone(builtinRecords), cf.Temperaments...))
}
