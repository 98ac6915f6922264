// Package character defines the declarative configuration format for stage
// characters and the stores that persist them.
//
// A [Definition] is the authoring-side record: it can be loaded from a YAML
// character pack, stored in a database, or both. Conversion helpers
// ([ToCharacter], [ToVoiceProfile]) bridge between the storage representation
// and the runtime [identity.Character] / [voice.Profile] types used by the
// performer.
package character

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stagecue/stagecue/internal/identity"
	"github.com/stagecue/stagecue/internal/temperament"
	"github.com/stagecue/stagecue/internal/vocab"
	"github.com/stagecue/stagecue/internal/voice"
)

// Definition is the full declarative configuration for a stage character.
type Definition struct {
	// ID is the unique identifier for this character definition.
	ID string `yaml:"id" json:"id"`

	// TroupeID groups characters that belong to the same production.
	TroupeID string `yaml:"troupe_id" json:"troupe_id"`

	// Name is the character's in-world display name (e.g., "Greymantle the Sage").
	Name string `yaml:"name" json:"name"`

	// Role is a short functional description (e.g., "innkeeper", "narrator").
	Role string `yaml:"role" json:"role"`

	// Description is free text shown to the model in the character's
	// dynamic prompt block.
	Description string `yaml:"description" json:"description"`

	// PromptBody is the character-specific portion of the system prompt:
	// backstory, speech quirks, knowledge, secrets.
	PromptBody string `yaml:"prompt_body" json:"prompt_body"`

	// Voice is the character's baseline delivery profile. Axes left empty
	// fall back to system defaults at resolution time.
	Voice voice.Profile `yaml:"voice" json:"voice"`

	// Temperaments lists temperament IDs in priority order; the first is
	// the character's primary response style.
	Temperaments []string `yaml:"temperaments" json:"temperaments"`

	// BehaviorRules are per-character behavioral constraints appended to
	// the prompt body.
	BehaviorRules []string `yaml:"behavior_rules" json:"behavior_rules"`

	// Attributes holds renderer-specific extension data (model paths,
	// portrait IDs) that the performance pipeline passes through opaquely.
	Attributes map[string]any `yaml:"attributes" json:"attributes"`

	// CreatedAt and UpdatedAt are managed by the store.
	CreatedAt time.Time `yaml:"-" json:"created_at"`
	UpdatedAt time.Time `yaml:"-" json:"updated_at"`
}

// Validate checks the structural fields of the definition. It returns all
// problems found joined into one error.
//
// Enum-valued fields (voice axes, temperament IDs) are deliberately not part
// of structural validation: invalid values there are normalized to defaults
// by [Definition.Normalize] so that a stale character pack degrades instead
// of failing to load.
func (d *Definition) Validate() error {
	var errs []error

	if d.ID == "" {
		errs = append(errs, fmt.Errorf("character: id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("character: name must not be empty"))
	}

	return errors.Join(errs...)
}

// Normalize replaces invalid enum values with safe defaults, logging a
// warning for each replacement. Empty values are left empty; they fall
// through to system defaults at voice resolution time.
func (d *Definition) Normalize(temps *temperament.Catalog) {
	if d.Voice.Pitch != "" && !d.Voice.Pitch.IsValid() {
		slog.Warn("character: invalid pitch, using default",
			"character", d.ID, "pitch", string(d.Voice.Pitch))
		d.Voice.Pitch = vocab.DefaultPitch
	}
	if d.Voice.Tone != "" && !d.Voice.Tone.IsValid() {
		slog.Warn("character: invalid tone, using default",
			"character", d.ID, "tone", string(d.Voice.Tone))
		d.Voice.Tone = vocab.DefaultTone
	}
	if d.Voice.Volume != "" && !d.Voice.Volume.IsValid() {
		slog.Warn("character: invalid volume, using default",
			"character", d.ID, "volume", string(d.Voice.Volume))
		d.Voice.Volume = vocab.DefaultVolume
	}
	if d.Voice.Pace != "" && !d.Voice.Pace.IsValid() {
		slog.Warn("character: invalid pace, using default",
			"character", d.ID, "pace", string(d.Voice.Pace))
		d.Voice.Pace = vocab.DefaultPace
	}
	if d.Voice.DefaultMood != "" && !d.Voice.DefaultMood.IsValid() {
		slog.Warn("character: invalid default mood, using default",
			"character", d.ID, "mood", string(d.Voice.DefaultMood))
		d.Voice.DefaultMood = vocab.DefaultMood
	}
	if d.Voice.DefaultIntent != "" && !d.Voice.DefaultIntent.IsValid() {
		slog.Warn("character: invalid default intent, using default",
			"character", d.ID, "intent", string(d.Voice.DefaultIntent))
		d.Voice.DefaultIntent = vocab.DefaultIntent
	}

	if temps == nil {
		return
	}
	kept := d.Temperaments[:0]
	for _, id := range d.Temperaments {
		if _, ok := temps.ByID(id); !ok {
			slog.Warn("character: unknown temperament dropped",
				"character", d.ID, "temperament", id)
			continue
		}
		kept = append(kept, id)
	}
	d.Temperaments = kept
}

// ToCharacter converts a [Definition] into an [identity.Character] suitable
// for prompt assembly. Behavior rules are appended to the prompt body as a
// bulleted list.
func ToCharacter(def *Definition) identity.Character {
	body := def.PromptBody
	if len(def.BehaviorRules) > 0 {
		if body != "" {
			body += "\n\n"
		}
		body += "Behavioral constraints:"
		for _, rule := range def.BehaviorRules {
			body += "\n- " + rule
		}
	}
	return identity.Character{
		Name:        def.Name,
		Role:        def.Role,
		Description: def.Description,
		PromptBody:  body,
	}
}

// ToVoiceProfile returns the definition's baseline voice profile.
func ToVoiceProfile(def *Definition) *voice.Profile {
	p := def.Voice
	return &p
}
