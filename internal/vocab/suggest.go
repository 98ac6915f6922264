package vocab

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a near-miss
// hint to be offered for an out-of-vocabulary value.
const suggestThreshold = 0.75

// suggest returns the vocabulary member closest to input, or "" when nothing
// scores above the threshold.
func suggest[T ~string](input string, values []T) string {
	in := strings.ToLower(input)
	best, bestScore := "", 0.0
	for _, v := range values {
		if s := matchr.JaroWinkler(in, string(v), false); s > bestScore {
			bestScore = s
			best = string(v)
		}
	}
	if bestScore < suggestThreshold {
		return ""
	}
	return best
}

// SuggestPitch returns the pitch value closest to the out-of-vocabulary s,
// for "did you mean" warning logs, or "" when nothing is close enough.
func SuggestPitch(s string) string { return suggest(s, pitches) }

// SuggestTone returns the nearest tone value, or "".
func SuggestTone(s string) string { return suggest(s, tones) }

// SuggestVolume returns the nearest volume value, or "".
func SuggestVolume(s string) string { return suggest(s, volumes) }

// SuggestPace returns the nearest pace value, or "".
func SuggestPace(s string) string { return suggest(s, paces) }

// SuggestMood returns the nearest mood value, or "".
func SuggestMood(s string) string { return suggest(s, moods) }

// SuggestIntent returns the nearest intent value, or "".
func SuggestIntent(s string) string { return suggest(s, intents) }
