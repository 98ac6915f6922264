package character

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stagecue/stagecue/internal/temperament"
)

// PackFile is the top-level structure of a stagecue character pack YAML file.
//
// Example:
//
//	troupe:
//	  name: "The Lost Mine of Phandelver"
//	  description: "Session three cast."
//	characters:
//	  - id: gundren
//	    name: "Gundren Rockseeker"
//	    role: "dwarf merchant"
//	    voice:
//	      pitch: low
//	      tone: warm
type PackFile struct {
	Troupe     TroupeMeta   `yaml:"troupe"`
	Characters []Definition `yaml:"characters"`
}

// TroupeMeta holds top-level metadata for a character pack.
type TroupeMeta struct {
	// Name is the troupe's display name.
	Name string `yaml:"name"`

	// Description is a free-text summary of the production.
	Description string `yaml:"description"`
}

// LoadPackFile reads and parses a character pack YAML file from disk.
// Returns a descriptive error if the file cannot be opened or parsed.
func LoadPackFile(path string) (*PackFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("character: open pack file %q: %w", path, err)
	}
	defer f.Close()

	pf, err := LoadPackFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("character: parse pack file %q: %w", path, err)
	}
	return pf, nil
}

// LoadPackFromReader parses character pack YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadPackFromReader(r io.Reader) (*PackFile, error) {
	var pf PackFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown top-level keys to catch typos
	if err := dec.Decode(&pf); err != nil {
		return nil, fmt.Errorf("character: decode pack yaml: %w", err)
	}
	return &pf, nil
}

// ImportPack normalizes and upserts all characters from a parsed [PackFile]
// into store. Returns the number of characters successfully imported.
// An error from the store aborts the import and returns the count so far.
func ImportPack(ctx context.Context, store Store, temps *temperament.Catalog, pack *PackFile) (int, error) {
	if pack == nil {
		return 0, fmt.Errorf("character: pack must not be nil")
	}
	for i := range pack.Characters {
		def := &pack.Characters[i]
		def.Normalize(temps)
		if def.TroupeID == "" {
			def.TroupeID = pack.Troupe.Name
		}
		if err := store.Upsert(ctx, def); err != nil {
			return i, fmt.Errorf("character: import pack %q: %w", pack.Troupe.Name, err)
		}
	}
	return len(pack.Characters), nil
}
