// Package gesture provides the process-wide gesture catalog: the closed set
// of physical performance cues a character may select for a dialogue segment.
//
// The catalog is built once at startup from the built-in table (see
// [Builtin]) or from an explicit record list via [New], and is read-only
// thereafter — safe for unsynchronised concurrent reads from any number of
// rendering or prompt-building call sites.
//
// Gesture IDs referenced by model output are untrusted: consumers validate
// them with [Catalog.ByID] or [Catalog.IsValidID] before they reach the
// renderer. Unknown IDs are ignored, never fatal; [Catalog.SuggestID] offers
// a nearest-match hint for warning logs.
package gesture

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/antzucaro/matchr"
)

// Category classifies a gesture by conversational function. The set is
// closed: adding a category is a catalog-schema change, not a runtime
// operation.
type Category string

const (
	CategoryThinking     Category = "thinking"
	CategoryAgreeing     Category = "agreeing"
	CategoryDisagreeing  Category = "disagreeing"
	CategoryQuestioning  Category = "questioning"
	CategoryEmphasizing  Category = "emphasizing"
	CategoryListening    Category = "listening"
	CategoryReacting     Category = "reacting"
	CategoryInterrupting Category = "interrupting"
	CategoryConcluding   Category = "concluding"
	CategoryNeutral      Category = "neutral"
)

var categories = []Category{
	CategoryThinking, CategoryAgreeing, CategoryDisagreeing,
	CategoryQuestioning, CategoryEmphasizing, CategoryListening,
	CategoryReacting, CategoryInterrupting, CategoryConcluding,
	CategoryNeutral,
}

// Categories returns the closed category set in registry order.
// Callers must not mutate the returned slice.
func Categories() []Category { return categories }

// IsValid reports whether c is a recognised gesture category.
func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Intensity grades how pronounced a gesture's animation is.
type Intensity string

const (
	IntensitySubtle   Intensity = "subtle"
	IntensityModerate Intensity = "moderate"
	IntensityStrong   Intensity = "strong"
)

// IsValid reports whether i is a recognised intensity.
func (i Intensity) IsValid() bool {
	switch i {
	case IntensitySubtle, IntensityModerate, IntensityStrong:
		return true
	}
	return false
}

// Gesture is a single catalog entry. The yaml tags define the record shape
// in catalog extension files (see [LoadFile]).
type Gesture struct {
	// ID is the unique key used by model output to reference this gesture.
	ID string `yaml:"id"`

	// Name is the human-readable display name.
	Name string `yaml:"name"`

	// Category is the conversational function of the gesture.
	Category Category `yaml:"category"`

	// Description is free text explaining when the gesture fits.
	Description string `yaml:"description"`

	// Animation is an optional renderer-side animation binding. Empty means
	// the renderer picks its own default for the category.
	Animation string `yaml:"animation"`

	// Intensity grades how pronounced the animation is.
	Intensity Intensity `yaml:"intensity"`
}

// Catalog is a static, read-only gesture registry.
type Catalog struct {
	byID       map[string]Gesture
	byCategory map[Category][]Gesture
	ids        []string // registration order
}

// New builds a [Catalog] from the given records. It returns an error when a
// record has an empty or duplicate ID, an unknown category, or an unknown
// intensity — catalog data is authored, not model output, so a bad record is
// a deployment mistake worth failing loudly on.
func New(records []Gesture) (*Catalog, error) {
	c := &Catalog{
		byID:       make(map[string]Gesture, len(records)),
		byCategory: make(map[Category][]Gesture),
	}
	for _, g := range records {
		if g.ID == "" {
			return nil, fmt.Errorf("gesture: record %q has empty ID", g.Name)
		}
		if _, exists := c.byID[g.ID]; exists {
			return nil, fmt.Errorf("gesture: duplicate ID %q", g.ID)
		}
		if !g.Category.IsValid() {
			return nil, fmt.Errorf("gesture: %q has unknown category %q", g.ID, g.Category)
		}
		if !g.Intensity.IsValid() {
			return nil, fmt.Errorf("gesture: %q has unknown intensity %q", g.ID, g.Intensity)
		}
		c.byID[g.ID] = g
		c.byCategory[g.Category] = append(c.byCategory[g.Category], g)
		c.ids = append(c.ids, g.ID)
	}
	return c, nil
}

// ByID returns the gesture with the given ID. The second return value
// reports whether the ID exists.
func (c *Catalog) ByID(id string) (Gesture, bool) {
	g, ok := c.byID[id]
	return g, ok
}

// IsValidID reports whether id exists in the catalog.
func (c *Catalog) IsValidID(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// ByCategory returns all gestures in the given category, in registration
// order. Unknown or empty categories return a nil slice, never an error.
// Callers must not mutate the returned slice.
func (c *Catalog) ByCategory(cat Category) []Gesture {
	return c.byCategory[cat]
}

// RandomInCategory selects uniformly at random from the gestures in cat.
// When the category is empty or unknown it returns the zero [Gesture] and
// false — callers fall back to no gesture rather than crashing.
func (c *Catalog) RandomInCategory(cat Category) (Gesture, bool) {
	gs := c.byCategory[cat]
	if len(gs) == 0 {
		return Gesture{}, false
	}
	return gs[rand.Intn(len(gs))], true
}

// IDs returns every gesture ID in registration order.
// Callers must not mutate the returned slice.
func (c *Catalog) IDs() []string { return c.ids }

// Len returns the number of gestures in the catalog.
func (c *Catalog) Len() int { return len(c.ids) }

// suggestThreshold is the minimum Jaro-Winkler similarity for a nearest-match
// hint to be offered for an unknown gesture ID.
const suggestThreshold = 0.75

// SuggestID returns the catalog ID closest to the unknown id, for use in
// warning logs ("unknown gesture X, did you mean Y"). It combines Double
// Metaphone phonetic overlap with Jaro-Winkler ranking; when nothing scores
// above the threshold it returns "".
func (c *Catalog) SuggestID(id string) string {
	if id == "" {
		return ""
	}
	input := strings.ToLower(id)
	inPrimary, inSecondary := matchr.DoubleMetaphone(input)

	best := ""
	bestScore := 0.0
	for _, known := range c.ids {
		candidate := strings.ToLower(known)
		score := matchr.JaroWinkler(input, candidate, false)

		// Phonetic overlap nudges near-miss spellings above the threshold.
		p, s := matchr.DoubleMetaphone(candidate)
		if p == inPrimary || (inSecondary != "" && (p == inSecondary || s == inSecondary)) || (s != "" && s == inPrimary) {
			score += 0.1
		}

		if score > bestScore {
			bestScore = score
			best = known
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}
