// Package scene orchestrates multi-character performances: it holds the
// members of a running scene, assembles the shared scene prompt, routes each
// incoming line to the addressed character, and fans finished performances
// out to the renderer feed.
package scene

import (
	"errors"
	"slices"
	"strings"
)

// ErrNoTarget is returned when address detection cannot determine which
// character a line was spoken to.
var ErrNoTarget = errors.New("scene: no addressed character identified")

// candidate is a pre-sorted name-to-ID mapping entry.
type candidate struct {
	key string
	id  string
}

// addressDetector determines which scene member was spoken to by scanning
// the line for character names, falling back through a priority chain
// (director override → last-speaker continuation → single-member fallback).
type addressDetector struct {
	// nameIndex maps lowercase character names (and name fragments) to
	// character IDs.
	nameIndex map[string]string

	// sorted is the nameIndex entries pre-sorted by descending key length so
	// that more specific (longer) names match before shorter fragments.
	sorted []candidate
}

// namedMember is the subset of member data the detector indexes.
type namedMember struct {
	id   string
	name string
}

func newAddressDetector(members []namedMember) *addressDetector {
	d := &addressDetector{nameIndex: make(map[string]string)}
	d.buildIndex(members)
	return d
}

// detect returns the character ID addressed by the line.
//
// The detection strategy is applied in order:
//  1. Explicit name match — scan the line for indexed names/fragments.
//  2. Director override — if speaker has an active override.
//  3. Last-speaker continuation — route to lastSpeaker if set and unmuted.
//  4. Single-member fallback — if exactly one unmuted member exists.
//  5. No match — return ("", [ErrNoTarget]).
func (d *addressDetector) detect(
	line string,
	lastSpeaker string,
	members map[string]*member,
	overrides map[string]string,
	speaker string,
) (string, error) {
	if id := d.matchName(line, members); id != "" {
		return id, nil
	}

	if id, ok := overrides[speaker]; ok {
		if m, exists := members[id]; exists && !m.muted {
			return id, nil
		}
	}

	if lastSpeaker != "" {
		if m, ok := members[lastSpeaker]; ok && !m.muted {
			return lastSpeaker, nil
		}
	}

	var unmutedID string
	unmutedCount := 0
	for id, m := range members {
		if !m.muted {
			unmutedID = id
			unmutedCount++
			if unmutedCount > 1 {
				break
			}
		}
	}
	if unmutedCount == 1 {
		return unmutedID, nil
	}

	return "", ErrNoTarget
}

// rebuild rebuilds the name index from a fresh member set. Call this after
// adding or removing members.
func (d *addressDetector) rebuild(members []namedMember) {
	d.nameIndex = make(map[string]string)
	d.buildIndex(members)
}

// buildIndex indexes the full lowercase name of every member plus each
// individual word of length ≥ 3, then pre-sorts the candidates by descending
// key length so matchName needs no per-call sorting.
func (d *addressDetector) buildIndex(members []namedMember) {
	for _, m := range members {
		lower := strings.ToLower(m.name)
		d.nameIndex[lower] = m.id
		for word := range strings.FieldsSeq(lower) {
			if len(word) >= 3 {
				d.nameIndex[word] = m.id
			}
		}
	}

	d.sorted = make([]candidate, 0, len(d.nameIndex))
	for key, id := range d.nameIndex {
		d.sorted = append(d.sorted, candidate{key: key, id: id})
	}
	slices.SortFunc(d.sorted, func(a, b candidate) int {
		return len(b.key) - len(a.key) // descending
	})
}

// matchName scans the lowercase line for indexed names, longest key first,
// so "greymantle the elder" wins over "greymantle" when both appear.
// Only unmuted members match.
func (d *addressDetector) matchName(line string, members map[string]*member) string {
	lower := strings.ToLower(line)
	for _, c := range d.sorted {
		if strings.Contains(lower, c.key) {
			if m, ok := members[c.id]; ok && !m.muted {
				return c.id
			}
		}
	}
	return ""
}
