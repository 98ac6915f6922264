// Package voice resolves the effective voice state for a dialogue segment.
//
// Resolution overlays a validated [directive.SegmentDirective] onto a
// character's authored [Profile], falling back per field through a
// three-level override chain: segment > character > system default. The
// result is always total — a [Resolved] never contains a partial or
// out-of-vocabulary value, so the rendering layer can consume it without
// further checks.
package voice

import (
	"github.com/stagecue/stagecue/internal/directive"
	"github.com/stagecue/stagecue/internal/vocab"
)

// Profile is a character's authored default voice. It is immutable once
// loaded and owned by the character record. Zero-valued fields are permitted
// in authored data and resolve to the system defaults.
type Profile struct {
	Pitch  vocab.Pitch  `yaml:"pitch" json:"pitch"`
	Tone   vocab.Tone   `yaml:"tone" json:"tone"`
	Volume vocab.Volume `yaml:"volume" json:"volume"`
	Pace   vocab.Pace   `yaml:"pace" json:"pace"`

	// DefaultMood and DefaultIntent seed segments that carry no mood or
	// intent directive.
	DefaultMood   vocab.Mood   `yaml:"default_mood" json:"default_mood"`
	DefaultIntent vocab.Intent `yaml:"default_intent" json:"default_intent"`
}

// SystemDefault returns the fixed fallback profile used when a character has
// no voice profile of its own.
func SystemDefault() Profile {
	return Profile{
		Pitch:         vocab.DefaultPitch,
		Tone:          vocab.DefaultTone,
		Volume:        vocab.DefaultVolume,
		Pace:          vocab.DefaultPace,
		DefaultMood:   vocab.DefaultMood,
		DefaultIntent: vocab.DefaultIntent,
	}
}

// Resolved is the fully-populated voice state for one segment. Every field is
// a vocabulary member — never empty, never partial. It is consumed
// immediately by the rendering layer and not cached beyond the segment.
type Resolved struct {
	Pitch  vocab.Pitch  `json:"pitch"`
	Tone   vocab.Tone   `json:"tone"`
	Volume vocab.Volume `json:"volume"`
	Pace   vocab.Pace   `json:"pace"`
	Mood   vocab.Mood   `json:"mood"`
	Intent vocab.Intent `json:"intent"`
}

// Resolve merges a segment directive onto a character profile and returns the
// resolved voice together with the reveal-rate multiplier derived from the
// resolved pace.
//
// Resolve is total: a nil profile substitutes [SystemDefault], a nil
// directive contributes nothing, and any invalid profile field falls through
// to the system default. The multiplier is computed after resolution, so a
// directive pace override also drives the text-reveal timing.
func Resolve(profile *Profile, dir *directive.SegmentDirective) (Resolved, float64) {
	base := SystemDefault()
	if profile != nil {
		base = *profile
	}

	var d directive.SegmentDirective
	if dir != nil {
		d = *dir
	}

	r := Resolved{
		Pitch:  resolvePitch(d.Pitch, base.Pitch),
		Tone:   resolveTone(d.Tone, base.Tone),
		Volume: resolveVolume(d.Volume, base.Volume),
		Pace:   resolvePace(d.Pace, base.Pace),
		Mood:   resolveMood(d.Mood, base.DefaultMood),
		Intent: resolveIntent(d.Intent, base.DefaultIntent),
	}
	return r, r.Pace.Multiplier()
}

// The per-axis helpers all follow the same chain: segment value if valid,
// else profile value if valid, else system default.

func resolvePitch(seg, prof vocab.Pitch) vocab.Pitch {
	if seg.IsValid() {
		return seg
	}
	if prof.IsValid() {
		return prof
	}
	return vocab.DefaultPitch
}

func resolveTone(seg, prof vocab.Tone) vocab.Tone {
	if seg.IsValid() {
		return seg
	}
	if prof.IsValid() {
		return prof
	}
	return vocab.DefaultTone
}

func resolveVolume(seg, prof vocab.Volume) vocab.Volume {
	if seg.IsValid() {
		return seg
	}
	if prof.IsValid() {
		return prof
	}
	return vocab.DefaultVolume
}

func resolvePace(seg, prof vocab.Pace) vocab.Pace {
	if seg.IsValid() {
		return seg
	}
	if prof.IsValid() {
		return prof
	}
	return vocab.DefaultPace
}

func resolveMood(seg, prof vocab.Mood) vocab.Mood {
	if seg.IsValid() {
		return seg
	}
	if prof.IsValid() {
		return prof
	}
	return vocab.DefaultMood
}

func resolveIntent(seg, prof vocab.Intent) vocab.Intent {
	if seg.IsValid() {
		return seg
	}
	if prof.IsValid() {
		return prof
	}
	return vocab.DefaultIntent
}
