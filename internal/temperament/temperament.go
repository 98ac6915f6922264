// Package temperament provides the catalog of communication-style archetypes
// and the response-style resolver that combines them into a single behavioral
// instruction block.
//
// A character references an ordered list of one to three temperament IDs;
// order encodes dominance. The primary temperament contributes its full
// instruction block verbatim, while secondaries are abbreviated to a single
// "also incorporate" line each. Unknown IDs degrade to a generic line and a
// warning — the combined instruction text is always producible.
//
// The catalog is read-only after construction and safe for unsynchronised
// concurrent reads.
package temperament

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/antzucaro/matchr"
)

// Temperament is a single catalog entry. The yaml tags define the record
// shape in catalog extension files (see [LoadFile]).
type Temperament struct {
	// ID is the unique key characters reference.
	ID string `yaml:"id"`

	// Category groups related temperaments (cerebral, expressive, grounded).
	Category string `yaml:"category"`

	// Description is free text used by authoring tools.
	Description string `yaml:"description"`

	// Keywords are searchable labels for the archetype.
	Keywords []string `yaml:"keywords"`

	// Instructions is the response-style block injected into the prompt.
	// By convention its first line is the display name of the temperament.
	Instructions string `yaml:"instructions"`
}

// Name returns the display name: the first line of the instruction block.
func (t Temperament) Name() string {
	if i := strings.IndexByte(t.Instructions, '\n'); i >= 0 {
		return strings.TrimSpace(t.Instructions[:i])
	}
	return strings.TrimSpace(t.Instructions)
}

// Catalog is a static, read-only temperament registry.
type Catalog struct {
	byID map[string]Temperament
	ids  []string
}

// New builds a [Catalog] from the given records, rejecting empty or duplicate
// IDs and empty instruction blocks.
func New(records []Temperament) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Temperament, len(records))}
	for _, t := range records {
		if t.ID == "" {
			return nil, fmt.Errorf("temperament: record with empty ID")
		}
		if _, exists := c.byID[t.ID]; exists {
			return nil, fmt.Errorf("temperament: duplicate ID %q", t.ID)
		}
		if strings.TrimSpace(t.Instructions) == "" {
			return nil, fmt.Errorf("temperament: %q has empty instructions", t.ID)
		}
		c.byID[t.ID] = t
		c.ids = append(c.ids, t.ID)
	}
	return c, nil
}

// ByID returns the temperament with the given ID.
func (c *Catalog) ByID(id string) (Temperament, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// IDs returns every temperament ID in registration order.
// Callers must not mutate the returned slice.
func (c *Catalog) IDs() []string { return c.ids }

// maxCombined caps how many temperaments contribute to one instruction block.
const maxCombined = 3

// Combine resolves an ordered temperament ID list into one behavioral
// instruction block.
//
//   - No IDs: returns "" — the caller supplies no style override.
//   - One ID: that temperament's full instruction block, verbatim.
//   - Two or three: the primary's full block, then a "Secondary Influences"
//     section with one "Also incorporate <name> elements." line per
//     secondary, in order.
//
// IDs beyond the third are dropped with a warning. An unknown ID contributes
// a generic fallback line using the raw ID instead of aborting.
func (c *Catalog) Combine(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	if len(ids) > maxCombined {
		slog.Warn("temperament list capped", "got", len(ids), "max", maxCombined)
		ids = ids[:maxCombined]
	}

	var sb strings.Builder

	primary, ok := c.byID[ids[0]]
	if ok {
		sb.WriteString(strings.TrimRight(primary.Instructions, "\n"))
	} else {
		c.warnUnknown(ids[0])
		fmt.Fprintf(&sb, "Also incorporate %s elements.", ids[0])
	}

	if len(ids) == 1 {
		return sb.String()
	}

	sb.WriteString("\n\nSecondary Influences:\n")
	for i, id := range ids[1:] {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if t, ok := c.byID[id]; ok {
			fmt.Fprintf(&sb, "- Also incorporate %s elements.", t.Name())
		} else {
			c.warnUnknown(id)
			fmt.Fprintf(&sb, "- Also incorporate %s elements.", id)
		}
	}
	return sb.String()
}

// unknownSuggestThreshold mirrors the gesture catalog's nearest-match cutoff.
const unknownSuggestThreshold = 0.75

func (c *Catalog) warnUnknown(id string) {
	attrs := []any{"temperament_id", id}
	if hint := c.suggest(id); hint != "" {
		attrs = append(attrs, "suggestion", hint)
	}
	slog.Warn("unknown temperament referenced", attrs...)
}

// suggest returns the catalog ID closest to the unknown id by Jaro-Winkler
// similarity, or "" when nothing scores above the threshold.
func (c *Catalog) suggest(id string) string {
	input := strings.ToLower(id)
	best, bestScore := "", 0.0
	for _, known := range c.ids {
		if s := matchr.JaroWinkler(input, strings.ToLower(known), false); s > bestScore {
			bestScore = s
			best = known
		}
	}
	if bestScore < unknownSuggestThreshold {
		return ""
	}
	return best
}
