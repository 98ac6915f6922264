// Package directive parses the untrusted, model-generated performance
// metadata attached to a dialogue segment.
//
// The parser sits directly on LLM output, so its contract is totality: for
// any input whatsoever — nil, arrays, nested objects, wrongly-typed values,
// out-of-vocabulary strings — it returns either nil (nothing usable) or a
// [SegmentDirective] whose every present field is a member of the vocab
// registry. It never panics and never returns an error; malformed fields are
// dropped, and the only externally visible effect is a slightly less
// expressive performance.
package directive

import (
	"log/slog"

	"github.com/stagecue/stagecue/internal/gesture"
	"github.com/stagecue/stagecue/internal/vocab"
)

// SegmentDirective holds the validated per-segment overrides extracted from
// model output. A zero-valued field means the model supplied nothing usable
// for that axis; the voice resolver then falls through to the character
// profile and finally the system default.
//
// Directives are ephemeral: constructed fresh per rendered segment and never
// persisted.
type SegmentDirective struct {
	Pitch  vocab.Pitch
	Tone   vocab.Tone
	Volume vocab.Volume
	Pace   vocab.Pace
	Mood   vocab.Mood
	Intent vocab.Intent

	// GestureID references a gesture catalog entry. Empty means no gesture
	// was requested or the requested ID did not exist.
	GestureID string
}

// PaceMultiplier returns the reveal-rate multiplier for the directive's pace.
// A nil directive or an absent pace resolves to the normal multiplier.
func (d *SegmentDirective) PaceMultiplier() float64 {
	if d == nil {
		return vocab.PaceNormal.Multiplier()
	}
	return d.Pace.Multiplier()
}

// Directive payload keys. Each field accepts a compact alias (checked first)
// and a verbose alias; the first non-empty string match wins.
const (
	keyPitchCompact   = "p"
	keyPitchVerbose   = "pitch"
	keyToneCompact    = "t"
	keyToneVerbose    = "tone"
	keyVolumeCompact  = "vol"
	keyVolumeVerbose  = "volume"
	keyPaceCompact    = "pc"
	keyPaceVerbose    = "pace"
	keyMoodCompact    = "m"
	keyMoodVerbose    = "mood"
	keyIntentCompact  = "int"
	keyIntentVerbose  = "intent"
	keyGestureCompact = "g"
	keyGestureVerbose = "gesture"
)

// Parser validates raw directive payloads against the vocabulary registry
// and the gesture catalog. It is read-only after construction and safe for
// concurrent use.
type Parser struct {
	gestures *gesture.Catalog
	onDrop   func(field string)
}

// ParserOption configures a [Parser].
type ParserOption func(*Parser)

// WithDropObserver registers fn to be called with the field name each time a
// candidate value is discarded during validation. fn must be safe for
// concurrent use.
func WithDropObserver(fn func(field string)) ParserOption {
	return func(p *Parser) {
		p.onDrop = fn
	}
}

// NewParser creates a [Parser] that validates gesture references against the
// given catalog. A nil catalog falls back to [gesture.Builtin].
func NewParser(gestures *gesture.Catalog, opts ...ParserOption) *Parser {
	if gestures == nil {
		gestures = gesture.Builtin()
	}
	p := &Parser{gestures: gestures}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// drop reports a discarded field to the observer, if any.
func (p *Parser) drop(field string) {
	if p.onDrop != nil {
		p.onDrop(field)
	}
}

// dropValue records an out-of-vocabulary value: a debug log with a
// nearest-match hint when one exists, then the observer callback.
func (p *Parser) dropValue(field, value, hint string) {
	attrs := []any{"field", field, "value", value}
	if hint != "" {
		attrs = append(attrs, "suggestion", hint)
	}
	slog.Debug("directive value outside vocabulary", attrs...)
	p.drop(field)
}

// Parse extracts a validated [SegmentDirective] from an arbitrary value.
//
// Non-object input yields nil immediately. Each field is looked up under its
// compact alias first and its verbose alias second; a candidate is accepted
// only if it is a non-empty string that passes the corresponding vocabulary
// membership test. When zero fields validate, Parse returns nil rather than
// an empty directive, so callers can distinguish "no directive" with a single
// nil check.
func (p *Parser) Parse(raw any) *SegmentDirective {
	fields := asStringFields(raw)
	if fields == nil {
		return nil
	}

	var d SegmentDirective
	found := false

	if s, ok := fields.lookup(keyPitchCompact, keyPitchVerbose); ok {
		if v, valid := vocab.ParsePitch(s); valid {
			d.Pitch = v
			found = true
		} else {
			p.dropValue(keyPitchVerbose, s, vocab.SuggestPitch(s))
		}
	}
	if s, ok := fields.lookup(keyToneCompact, keyToneVerbose); ok {
		if v, valid := vocab.ParseTone(s); valid {
			d.Tone = v
			found = true
		} else {
			p.dropValue(keyToneVerbose, s, vocab.SuggestTone(s))
		}
	}
	if s, ok := fields.lookup(keyVolumeCompact, keyVolumeVerbose); ok {
		if v, valid := vocab.ParseVolume(s); valid {
			d.Volume = v
			found = true
		} else {
			p.dropValue(keyVolumeVerbose, s, vocab.SuggestVolume(s))
		}
	}
	if s, ok := fields.lookup(keyPaceCompact, keyPaceVerbose); ok {
		if v, valid := vocab.ParsePace(s); valid {
			d.Pace = v
			found = true
		} else {
			p.dropValue(keyPaceVerbose, s, vocab.SuggestPace(s))
		}
	}
	if s, ok := fields.lookup(keyMoodCompact, keyMoodVerbose); ok {
		if v, valid := vocab.ParseMood(s); valid {
			d.Mood = v
			found = true
		} else {
			p.dropValue(keyMoodVerbose, s, vocab.SuggestMood(s))
		}
	}
	if s, ok := fields.lookup(keyIntentCompact, keyIntentVerbose); ok {
		if v, valid := vocab.ParseIntent(s); valid {
			d.Intent = v
			found = true
		} else {
			p.dropValue(keyIntentVerbose, s, vocab.SuggestIntent(s))
		}
	}
	if s, ok := fields.lookup(keyGestureCompact, keyGestureVerbose); ok {
		if p.gestures.IsValidID(s) {
			d.GestureID = s
			found = true
		} else {
			attrs := []any{"gesture_id", s}
			if hint := p.gestures.SuggestID(s); hint != "" {
				attrs = append(attrs, "suggestion", hint)
			}
			slog.Warn("directive referenced unknown gesture", attrs...)
			p.drop(keyGestureVerbose)
		}
	}

	if !found {
		return nil
	}
	return &d
}

// stringFields is a normalised view over the two map shapes a decoded JSON
// payload can arrive in.
type stringFields map[string]string

// asStringFields flattens raw into a string→string map, keeping only
// string-valued entries. Anything that is not a flat object returns nil.
func asStringFields(raw any) stringFields {
	switch m := raw.(type) {
	case map[string]string:
		return stringFields(m)
	case map[string]any:
		out := make(stringFields, len(m))
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}

// lookup returns the first non-empty value under the given keys, in order.
func (f stringFields) lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}
