// Package performer runs the full turn pipeline for a single character:
// assemble the identity prompt, obtain a completion from the LLM provider,
// split the response envelope into segments, validate each segment's
// directive payload, and resolve the final voice and gesture for rendering.
//
// The pipeline treats the model as an untrusted collaborator. Whatever the
// provider returns — a clean envelope, half-valid JSON, or plain prose — the
// result is always a renderable [Performance]; degradation shows up as fewer
// directives, never as an error surfaced to the player.
package performer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/stagecue/stagecue/internal/directive"
	"github.com/stagecue/stagecue/internal/gesture"
	"github.com/stagecue/stagecue/internal/identity"
	"github.com/stagecue/stagecue/internal/observe"
	"github.com/stagecue/stagecue/internal/temperament"
	"github.com/stagecue/stagecue/internal/voice"
	"github.com/stagecue/stagecue/pkg/provider/llm"
	"github.com/stagecue/stagecue/pkg/types"
)

// Segment is one renderable piece of a performance: the text to reveal, the
// fully resolved voice state, the reveal-rate multiplier, and an optional
// gesture.
type Segment struct {
	Text           string          `json:"text"`
	Voice          voice.Resolved  `json:"voice"`
	PaceMultiplier float64         `json:"pace_multiplier"`
	Gesture        *gesture.Gesture `json:"gesture,omitempty"`
}

// Performance is the resolved result of one character turn.
type Performance struct {
	CharacterID   string    `json:"character_id"`
	CharacterName string    `json:"character_name"`
	Segments      []Segment `json:"segments"`

	// Raw is the unprocessed model output, kept for transcripts and debugging.
	Raw string `json:"-"`

	// Usage is the provider-reported token usage for this turn.
	Usage llm.Usage `json:"-"`
}

// Request describes one character turn to perform.
type Request struct {
	// CharacterID identifies the character for metrics and the feed.
	CharacterID string

	// Character is the identity used to assemble the system prompt.
	Character identity.Character

	// Voice is the character's baseline delivery profile. Nil falls back to
	// system defaults.
	Voice *voice.Profile

	// Temperaments lists temperament IDs in priority order.
	Temperaments []string

	// History is the prior conversation, oldest first.
	History []types.Message

	// Speaker names who is addressing the character.
	Speaker string

	// Input is the utterance the character responds to.
	Input string

	// ScenePrompt, when non-empty, replaces the single-character identity
	// prompt as the base system prompt. The scene orchestrator assembles it
	// from the shared scene block and the blocks of every scene member.
	ScenePrompt string
}

// Performer executes character turns against an LLM provider.
// It is safe for concurrent use.
type Performer struct {
	provider     llm.Provider
	providerName string
	parser       *directive.Parser
	gestures     *gesture.Catalog
	temps        *temperament.Catalog
	metrics      *observe.Metrics
	temperature  float64
	maxTokens    int
}

// Option configures a [Performer].
type Option func(*Performer)

// WithProviderName sets the provider label used in metrics. Default: "llm".
func WithProviderName(name string) Option {
	return func(p *Performer) {
		if name != "" {
			p.providerName = name
		}
	}
}

// WithGestures sets the gesture catalog. Default: [gesture.Builtin].
func WithGestures(c *gesture.Catalog) Option {
	return func(p *Performer) {
		if c != nil {
			p.gestures = c
		}
	}
}

// WithTemperaments sets the temperament catalog. Default: [temperament.Builtin].
func WithTemperaments(c *temperament.Catalog) Option {
	return func(p *Performer) {
		if c != nil {
			p.temps = c
		}
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Performer) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithTemperature sets the completion temperature. Default: 0.8.
func WithTemperature(t float64) Option {
	return func(p *Performer) {
		p.temperature = t
	}
}

// WithMaxTokens caps completion length. Default: 1024.
func WithMaxTokens(n int) Option {
	return func(p *Performer) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// New creates a [Performer] backed by the given provider.
func New(provider llm.Provider, opts ...Option) (*Performer, error) {
	if provider == nil {
		return nil, errors.New("performer: provider must not be nil")
	}

	p := &Performer{
		provider:     provider,
		providerName: "llm",
		gestures:     gesture.Builtin(),
		temps:        temperament.Builtin(),
		metrics:      observe.DefaultMetrics(),
		temperature:  0.8,
		maxTokens:    1024,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.parser = directive.NewParser(p.gestures, directive.WithDropObserver(func(field string) {
		p.metrics.RecordDroppedField(context.Background(), field)
	}))

	return p, nil
}

// Perform runs one character turn: prompt assembly, completion, envelope
// parsing, and per-segment voice resolution.
//
// The only error returned is a provider failure; everything downstream of a
// successful completion is total and degrades to plain-text segments with
// default delivery.
func (p *Performer) Perform(ctx context.Context, req Request) (*Performance, error) {
	if req.Input == "" {
		return nil, errors.New("performer: input must not be empty")
	}

	start := time.Now()

	promptStart := time.Now()
	system := req.ScenePrompt
	if system == "" {
		system = identity.BuildSingle(req.Character)
	}
	if style := p.temps.Combine(req.Temperaments); style != "" {
		system += "\n\nResponse style:\n" + style
	}
	p.metrics.PromptAssemblyDuration.Record(ctx, time.Since(promptStart).Seconds())

	msgs := slices.Clone(req.History)
	msgs = append(msgs, types.Message{
		Role:    types.RoleUser,
		Content: req.Input,
		Name:    req.Speaker,
	})

	llmStart := time.Now()
	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Messages:     msgs,
		Temperature:  p.temperature,
		MaxTokens:    p.maxTokens,
		SystemPrompt: system,
	})
	p.metrics.LLMDuration.Record(ctx, time.Since(llmStart).Seconds())
	if err != nil {
		p.metrics.RecordProviderRequest(ctx, p.providerName, "error")
		p.metrics.RecordProviderError(ctx, p.providerName)
		return nil, fmt.Errorf("performer: complete: %w", err)
	}
	p.metrics.RecordProviderRequest(ctx, p.providerName, "ok")

	perf := &Performance{
		CharacterID:   req.CharacterID,
		CharacterName: req.Character.Name,
		Segments:      p.resolveSegments(ctx, resp.Content, req.Voice),
		Raw:           resp.Content,
		Usage:         resp.Usage,
	}

	p.metrics.RecordUtterance(ctx, req.CharacterID)
	p.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	return perf, nil
}

// resolveSegments turns raw model output into renderable segments. Content
// that is not a parseable envelope becomes a single plain segment with the
// character's baseline delivery.
func (p *Performer) resolveSegments(ctx context.Context, content string, profile *voice.Profile) []Segment {
	raws := parseEnvelope(content)
	if raws == nil {
		p.metrics.RecordDirectiveParse(ctx, "defaulted")
		resolved, mult := voice.Resolve(profile, nil)
		text := strings.TrimSpace(content)
		if text == "" {
			text = "..."
			slog.Warn("performer: empty completion, rendering placeholder")
		}
		return []Segment{{Text: text, Voice: resolved, PaceMultiplier: mult}}
	}

	segments := make([]Segment, 0, len(raws))
	for _, raw := range raws {
		dir := p.parser.Parse(raw.D)

		if gid := p.validGestureID(raw.G); gid != "" {
			if dir == nil {
				dir = &directive.SegmentDirective{}
			}
			if dir.GestureID == "" {
				dir.GestureID = gid
			}
		}

		status := "applied"
		if dir == nil {
			status = "defaulted"
		}
		p.metrics.RecordDirectiveParse(ctx, status)

		resolved, mult := voice.Resolve(profile, dir)
		seg := Segment{
			Text:           strings.TrimSpace(raw.Text),
			Voice:          resolved,
			PaceMultiplier: mult,
		}
		if dir != nil && dir.GestureID != "" {
			if g, ok := p.gestures.ByID(dir.GestureID); ok {
				seg.Gesture = &g
			}
		}
		segments = append(segments, seg)
	}
	return segments
}

// validGestureID validates a top-level envelope gesture reference, logging a
// warning with a nearest-match suggestion for unknown IDs.
func (p *Performer) validGestureID(id string) string {
	if id == "" {
		return ""
	}
	if p.gestures.IsValidID(id) {
		return id
	}
	attrs := []any{"gesture_id", id}
	if hint := p.gestures.SuggestID(id); hint != "" {
		attrs = append(attrs, "suggestion", hint)
	}
	slog.Warn("performer: envelope referenced unknown gesture", attrs...)
	return ""
}
