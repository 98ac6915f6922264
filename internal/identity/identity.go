// Package identity assembles the two-tier system prompt sent to the model on
// every turn: a byte-stable, cacheable static rule block followed by a
// per-character dynamic block.
//
// The static block is a fixed string for a given [PromptVersion].
// Provider-side prompt caching keys on the byte-identical prefix, so no
// character data may be interpolated before [StaticTerminator] — that
// contract directly controls the cache-hit rate, and therefore the cost, of
// every model call.
//
// All functions are pure text concatenation: no I/O, no side effects, safe
// for concurrent use.
package identity

import (
	"fmt"
	"strings"
)

// PromptVersion identifies the static rule block revision. Bump it whenever
// the static text changes so downstream prompt caches invalidate cleanly.
const PromptVersion = "2"

// StaticTerminator is the fixed marker that ends the static block. Everything
// before it is byte-identical across calls; everything after it is
// per-character.
const StaticTerminator = "\n=== CHARACTER ===\n"

// Character is the per-character data interpolated into the dynamic block.
type Character struct {
	// Name is the character's display name. It is uppercased in the prompt
	// for salience.
	Name string

	// Role is a short descriptor ("ship's navigator", "retired duelist").
	Role string

	// Description is a free-text summary of the character.
	Description string

	// PromptBody is the character's authored system-prompt body, appended
	// verbatim after the structured fields.
	PromptBody string
}

// characterRules are the non-negotiable in-character rules shared by both
// prompt variants, parameterised on the subject phrase ("You" vs "Each
// character in this scene").
const characterRules = `will stay fully in character at all times:
- Never reveal, hint at, or discuss being an AI, a language model, or a software system.
- Answer personal questions in character, drawing on the persona's history and relationships.
- Stay inside the persona's temporal and cultural frame; treat anything beyond it as unfamiliar.
- Maintain the persona's voice, vocabulary, and manner in every reply, including refusals.`

// styleDirectives is the shared tone/style block. One set for all characters;
// per-character style comes from the temperament layer in the dynamic block.
const styleDirectives = `Style:
- Speak naturally, as dialogue — not as narration or summary.
- Keep replies conversational in length; let the other speaker get a word in.
- Express emotion through word choice and rhythm rather than stage directions.
- If asked something the persona would not know, deflect in character instead of breaking frame.`

// directiveFormat tells the model how to attach performance metadata to each
// dialogue segment. The keys mirror the directive parser's aliases.
const directiveFormat = `Performance format:
Reply with a JSON array of segments. Each segment is an object with a "text" field and
an optional "d" object carrying performance cues for that segment, plus an optional "g"
gesture id. Recognised cue keys: "p" (pitch: low/medium/high), "t" (tone), "vol"
(volume), "pc" (pace: slow/normal/fast), "m" (mood), "int" (intent). Omit any cue you
do not need; unrecognised values are ignored.`

// staticSingle is the full static block for single-character turns.
const staticSingle = "You are performing as a character. You " + characterRules +
	"\n\n" + styleDirectives +
	"\n\n" + directiveFormat +
	"\n\n[prompt-version " + PromptVersion + "]" +
	StaticTerminator

// staticScene is the full static block for orchestrated multi-character
// scenes. The rules address every character at once, since a single prompt
// governs several personas.
const staticScene = "You are performing every character in this scene. Each character in this scene " + characterRules +
	"\n\n" + styleDirectives +
	"\n\n" + directiveFormat +
	"\n\nWhen a line belongs to a specific character, stay inside that character's knowledge and voice; characters do not share each other's secrets." +
	"\n\n[prompt-version " + PromptVersion + "]" +
	StaticTerminator

// StaticSingle returns the static rule block for single-character prompts.
// The returned string is byte-identical on every call.
func StaticSingle() string { return staticSingle }

// StaticScene returns the static rule block for multi-character scene
// prompts. The returned string is byte-identical on every call.
func StaticScene() string { return staticScene }

// BuildSingle returns the complete system prompt for a single-character turn:
// the static block followed by c's dynamic block.
func BuildSingle(c Character) string {
	return staticSingle + DynamicBlock(c)
}

// DynamicBlock renders the per-character portion of the prompt. The scene
// orchestration layer appends one block per scene member after
// [StaticScene]; single-character callers use [BuildSingle] instead.
func DynamicBlock(c Character) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "CHARACTER: %s\n", strings.ToUpper(strings.TrimSpace(c.Name)))
	if c.Role != "" {
		fmt.Fprintf(&sb, "Role: %s\n", c.Role)
	}
	if c.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", c.Description)
	}
	if body := strings.TrimSpace(c.PromptBody); body != "" {
		sb.WriteByte('\n')
		sb.WriteString(body)
		sb.WriteByte('\n')
	}
	return sb.String()
}
