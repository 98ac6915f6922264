// Package vocab is the single source of truth for the closed performance
// vocabularies used throughout stagecue: pitch, tone, volume, pace, mood, and
// intent.
//
// Every axis is modelled as a string-based sum type with an ordered value
// list, a membership test, and a Parse function that converts an untrusted
// string into the typed value exactly once — at the trust boundary. All
// validation elsewhere in the system delegates to this package; no other
// package may hard-code an axis value list a second time, since that would
// create drift between the directive parser and the catalogs.
//
// All tables are package-level constants in effect: they are built once at
// init and never mutated, so unsynchronised concurrent reads are safe.
package vocab

// Pitch describes the vertical register of a character's voice.
type Pitch string

const (
	PitchLow    Pitch = "low"
	PitchMedium Pitch = "medium"
	PitchHigh   Pitch = "high"
)

// Tone describes the emotional colour of a character's delivery.
type Tone string

const (
	ToneWarm    Tone = "warm"
	ToneCalm    Tone = "calm"
	ToneSerious Tone = "serious"
	TonePlayful Tone = "playful"
	ToneStern   Tone = "stern"
	ToneGentle  Tone = "gentle"
)

// Volume describes the loudness of a spoken segment.
type Volume string

const (
	VolumeWhisper Volume = "whisper"
	VolumeQuiet   Volume = "quiet"
	VolumeNormal  Volume = "normal"
	VolumeLoud    Volume = "loud"
)

// Pace describes the speed of a spoken segment. It drives the text-reveal
// timing via [Pace.Multiplier].
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceNormal Pace = "normal"
	PaceFast   Pace = "fast"
)

// Mood describes the character's emotional state for a segment.
type Mood string

const (
	MoodNeutral    Mood = "neutral"
	MoodHappy      Mood = "happy"
	MoodExcited    Mood = "excited"
	MoodAmused     Mood = "amused"
	MoodThoughtful Mood = "thoughtful"
	MoodMelancholy Mood = "melancholy"
	MoodAnxious    Mood = "anxious"
	MoodIrritated  Mood = "irritated"
)

// Intent describes the conversational purpose of a segment.
type Intent string

const (
	IntentInform    Intent = "inform"
	IntentQuestion  Intent = "question"
	IntentReassure  Intent = "reassure"
	IntentTease     Intent = "tease"
	IntentChallenge Intent = "challenge"
	IntentApologize Intent = "apologize"
	IntentGreet     Intent = "greet"
	IntentFarewell  Intent = "farewell"
)

// System defaults used when neither a segment directive nor a character
// profile supplies a value. These are the documented fallbacks — a resolved
// voice never contains anything outside this package's vocabularies.
const (
	DefaultPitch  = PitchMedium
	DefaultTone   = ToneWarm
	DefaultVolume = VolumeNormal
	DefaultPace   = PaceNormal
	DefaultMood   = MoodNeutral
	DefaultIntent = IntentInform
)

// Ordered value lists. Callers must not mutate the returned slices.

var (
	pitches = []Pitch{PitchLow, PitchMedium, PitchHigh}
	tones   = []Tone{ToneWarm, ToneCalm, ToneSerious, TonePlayful, ToneStern, ToneGentle}
	volumes = []Volume{VolumeWhisper, VolumeQuiet, VolumeNormal, VolumeLoud}
	paces   = []Pace{PaceSlow, PaceNormal, PaceFast}
	moods   = []Mood{
		MoodNeutral, MoodHappy, MoodExcited, MoodAmused,
		MoodThoughtful, MoodMelancholy, MoodAnxious, MoodIrritated,
	}
	intents = []Intent{
		IntentInform, IntentQuestion, IntentReassure, IntentTease,
		IntentChallenge, IntentApologize, IntentGreet, IntentFarewell,
	}
)

// Pitches returns the legal pitch values in registry order.
func Pitches() []Pitch { return pitches }

// Tones returns the legal tone values in registry order.
func Tones() []Tone { return tones }

// Volumes returns the legal volume values in registry order.
func Volumes() []Volume { return volumes }

// Paces returns the legal pace values in registry order.
func Paces() []Pace { return paces }

// Moods returns the legal mood values in registry order.
func Moods() []Mood { return moods }

// Intents returns the legal intent values in registry order.
func Intents() []Intent { return intents }

// IsValid reports whether p is a member of the pitch vocabulary.
func (p Pitch) IsValid() bool {
	switch p {
	case PitchLow, PitchMedium, PitchHigh:
		return true
	}
	return false
}

// IsValid reports whether t is a member of the tone vocabulary.
func (t Tone) IsValid() bool {
	switch t {
	case ToneWarm, ToneCalm, ToneSerious, TonePlayful, ToneStern, ToneGentle:
		return true
	}
	return false
}

// IsValid reports whether v is a member of the volume vocabulary.
func (v Volume) IsValid() bool {
	switch v {
	case VolumeWhisper, VolumeQuiet, VolumeNormal, VolumeLoud:
		return true
	}
	return false
}

// IsValid reports whether p is a member of the pace vocabulary.
func (p Pace) IsValid() bool {
	switch p {
	case PaceSlow, PaceNormal, PaceFast:
		return true
	}
	return false
}

// IsValid reports whether m is a member of the mood vocabulary.
func (m Mood) IsValid() bool {
	switch m {
	case MoodNeutral, MoodHappy, MoodExcited, MoodAmused,
		MoodThoughtful, MoodMelancholy, MoodAnxious, MoodIrritated:
		return true
	}
	return false
}

// IsValid reports whether i is a member of the intent vocabulary.
func (i Intent) IsValid() bool {
	switch i {
	case IntentInform, IntentQuestion, IntentReassure, IntentTease,
		IntentChallenge, IntentApologize, IntentGreet, IntentFarewell:
		return true
	}
	return false
}

// ParsePitch converts an untrusted string into a [Pitch].
// The second return value reports membership; on failure the zero value is
// returned and the caller must treat the field as absent.
func ParsePitch(s string) (Pitch, bool) {
	p := Pitch(s)
	return p, p.IsValid()
}

// ParseTone converts an untrusted string into a [Tone].
func ParseTone(s string) (Tone, bool) {
	t := Tone(s)
	return t, t.IsValid()
}

// ParseVolume converts an untrusted string into a [Volume].
func ParseVolume(s string) (Volume, bool) {
	v := Volume(s)
	return v, v.IsValid()
}

// ParsePace converts an untrusted string into a [Pace].
func ParsePace(s string) (Pace, bool) {
	p := Pace(s)
	return p, p.IsValid()
}

// ParseMood converts an untrusted string into a [Mood].
func ParseMood(s string) (Mood, bool) {
	m := Mood(s)
	return m, m.IsValid()
}

// ParseIntent converts an untrusted string into an [Intent].
func ParseIntent(s string) (Intent, bool) {
	i := Intent(s)
	return i, i.IsValid()
}

// Reveal-rate multipliers per pace. The multiplier scales the base
// per-character text-reveal rate, so fast reveals more characters per second
// than normal, and slow fewer: fast > normal > slow.
const (
	multiplierSlow   = 0.6
	multiplierNormal = 1.0
	multiplierFast   = 1.6
)

// Multiplier returns the reveal-rate multiplier for p. Any value outside the
// pace vocabulary — including the zero value — resolves to the normal
// multiplier, never to zero.
func (p Pace) Multiplier() float64 {
	switch p {
	case PaceSlow:
		return multiplierSlow
	case PaceFast:
		return multiplierFast
	default:
		return multiplierNormal
	}
}
