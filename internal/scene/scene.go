package scene

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stagecue/stagecue/internal/character"
	"github.com/stagecue/stagecue/internal/identity"
	"github.com/stagecue/stagecue/internal/observe"
	"github.com/stagecue/stagecue/internal/performer"
	"github.com/stagecue/stagecue/pkg/types"
)

const (
	defaultMaxMembers   = 8
	defaultHistoryDepth = 20

	// cueConcurrency caps parallel provider calls during a broadcast cue.
	cueConcurrency = 4
)

// ErrSceneFull is returned by [Scene.AddMember] when the member limit is
// reached.
var ErrSceneFull = errors.New("scene: member limit reached")

// member pairs a character definition with its muted state.
type member struct {
	def   *character.Definition
	muted bool
}

// Scene manages the characters of one running scene. It routes incoming
// lines to the addressed character, maintains the shared transcript, and
// emits finished performances to an optional sink.
//
// All exported methods are safe for concurrent use.
type Scene struct {
	mu          sync.Mutex
	members     map[string]*member // character ID → member
	order       []string           // insertion order, for prompt stability
	lastSpeaker string             // ID of the most recently addressed character
	overrides   map[string]string  // director speaker → forced character ID
	closed      bool

	detector *addressDetector
	log      *turnLog

	perf    *performer.Performer
	metrics *observe.Metrics
	sink    func(*performer.Performance)

	maxMembers int
}

// Option configures a [Scene] during construction.
type Option func(*Scene)

// WithMaxMembers caps the number of scene members. The default is 8.
func WithMaxMembers(n int) Option {
	return func(s *Scene) {
		if n > 0 {
			s.maxMembers = n
		}
	}
}

// WithHistoryDepth sets how many transcript entries each prompt carries.
// The default is 20.
func WithHistoryDepth(n int) Option {
	return func(s *Scene) {
		if n > 0 {
			s.log = newTurnLog(n, defaultMaxAge)
		}
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Scene) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSink registers a callback invoked with every finished performance.
// The feed layer uses it to push segments to renderer clients. The callback
// is invoked outside the scene lock and must be safe for concurrent use.
func WithSink(fn func(*performer.Performance)) Option {
	return func(s *Scene) { s.sink = fn }
}

// New creates an empty scene backed by the given performer.
func New(perf *performer.Performer, opts ...Option) (*Scene, error) {
	if perf == nil {
		return nil, errors.New("scene: performer must not be nil")
	}

	s := &Scene{
		members:    make(map[string]*member),
		overrides:  make(map[string]string),
		detector:   newAddressDetector(nil),
		log:        newTurnLog(defaultHistoryDepth, defaultMaxAge),
		perf:       perf,
		metrics:    observe.DefaultMetrics(),
		maxMembers: defaultMaxMembers,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.metrics.ActiveScenes.Add(context.Background(), 1)
	return s, nil
}

// Close marks the scene as finished. Further Speak and Cue calls fail.
// Close is idempotent.
func (s *Scene) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.metrics.ActiveScenes.Add(context.Background(), -1)
}

// AddMember registers a character with the scene. The definition must be
// valid; duplicates and additions beyond the member limit are rejected.
func (s *Scene) AddMember(def *character.Definition) error {
	if def == nil {
		return errors.New("scene: definition must not be nil")
	}
	if err := def.Validate(); err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[def.ID]; ok {
		return fmt.Errorf("scene: character %q already in scene", def.ID)
	}
	if len(s.members) >= s.maxMembers {
		return ErrSceneFull
	}

	s.members[def.ID] = &member{def: def}
	s.order = append(s.order, def.ID)
	s.rebuildDetector()
	return nil
}

// RemoveMember unregisters a character. Returns an error if not found.
func (s *Scene) RemoveMember(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return fmt.Errorf("scene: character %q not found", id)
	}

	delete(s.members, id)
	for i, mid := range s.order {
		if mid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.lastSpeaker == id {
		s.lastSpeaker = ""
	}
	for sp, cid := range s.overrides {
		if cid == id {
			delete(s.overrides, sp)
		}
	}
	s.rebuildDetector()
	return nil
}

// Members returns the IDs of all scene members in insertion order.
func (s *Scene) Members() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Mute prevents the character identified by id from receiving new lines.
func (s *Scene) Mute(id string) error { return s.setMuted(id, true) }

// Unmute re-enables routing to the character identified by id.
func (s *Scene) Unmute(id string) error { return s.setMuted(id, false) }

func (s *Scene) setMuted(id string, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return fmt.Errorf("scene: character %q not found", id)
	}
	m.muted = muted
	return nil
}

// SetOverride forces every line from speaker to the character identified by
// characterID, bypassing address detection. Pass an empty characterID to
// clear the override for that speaker.
func (s *Scene) SetOverride(speaker, characterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if characterID == "" {
		delete(s.overrides, speaker)
		return nil
	}
	if _, ok := s.members[characterID]; !ok {
		return fmt.Errorf("scene: character %q not found", characterID)
	}
	s.overrides[speaker] = characterID
	return nil
}

// Speak routes speaker's line to the addressed character and performs that
// character's turn. Both the line and the performance are appended to the
// shared transcript.
//
// If no character can be identified, Speak returns [ErrNoTarget].
func (s *Scene) Speak(ctx context.Context, speaker, line string) (*performer.Performance, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("scene: scene is closed")
	}

	targetID, err := s.detector.detect(line, s.lastSpeaker, s.members, s.overrides, speaker)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	target := s.members[targetID]
	s.lastSpeaker = targetID

	req := s.buildRequest(target.def, speaker, line)
	s.mu.Unlock()

	perf, err := s.perf.Perform(ctx, req)
	if err != nil {
		return nil, err
	}

	s.log.add(types.Message{Role: types.RoleUser, Content: line, Name: speaker})
	s.recordPerformance(perf)
	return perf, nil
}

// Cue broadcasts a stage direction to every unmuted member concurrently and
// collects their performances in member order. Individual member failures
// abort the cue; performances already finished are still appended to the
// transcript and emitted to the sink.
func (s *Scene) Cue(ctx context.Context, direction string) ([]*performer.Performance, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("scene: scene is closed")
	}

	type cueTarget struct {
		idx int
		req performer.Request
	}
	targets := make([]cueTarget, 0, len(s.order))
	for _, id := range s.order {
		m := s.members[id]
		if m.muted {
			continue
		}
		targets = append(targets, cueTarget{
			idx: len(targets),
			req: s.buildRequest(m.def, "Director", direction),
		})
	}
	s.mu.Unlock()

	if len(targets) == 0 {
		return nil, nil
	}

	results := make([]*performer.Performance, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cueConcurrency)
	for _, t := range targets {
		g.Go(func() error {
			perf, err := s.perf.Perform(gctx, t.req)
			if err != nil {
				return fmt.Errorf("scene: cue %q: %w", t.req.CharacterID, err)
			}
			results[t.idx] = perf
			return nil
		})
	}
	err := g.Wait()

	s.log.add(types.Message{Role: types.RoleUser, Content: direction, Name: "Director"})
	performances := make([]*performer.Performance, 0, len(results))
	for _, perf := range results {
		if perf == nil {
			continue
		}
		s.recordPerformance(perf)
		performances = append(performances, perf)
	}
	if err != nil {
		return performances, err
	}
	return performances, nil
}

// buildRequest assembles a performer request for one member, including the
// scene-wide system prompt. Must be called with s.mu held.
func (s *Scene) buildRequest(def *character.Definition, speaker, line string) performer.Request {
	return performer.Request{
		CharacterID:  def.ID,
		Character:    character.ToCharacter(def),
		Voice:        character.ToVoiceProfile(def),
		Temperaments: def.Temperaments,
		History:      s.log.recent(),
		Speaker:      speaker,
		Input:        line,
		ScenePrompt:  s.scenePrompt(def),
	}
}

// scenePrompt assembles the multi-character system prompt: the scene static
// block, every member's dynamic block in insertion order, and a closing note
// naming the character who speaks next. Must be called with s.mu held.
func (s *Scene) scenePrompt(speaking *character.Definition) string {
	var sb strings.Builder
	sb.WriteString(identity.StaticScene())

	for _, id := range s.order {
		sb.WriteString(identity.DynamicBlock(character.ToCharacter(s.members[id].def)))
		sb.WriteByte('\n')
	}

	name := strings.ToUpper(strings.TrimSpace(speaking.Name))
	fmt.Fprintf(&sb, "The next line belongs to %s. Reply only with %s's dialogue.\n", name, name)
	return sb.String()
}

// recordPerformance appends a performance to the transcript and emits it to
// the sink.
func (s *Scene) recordPerformance(perf *performer.Performance) {
	texts := make([]string, 0, len(perf.Segments))
	for _, seg := range perf.Segments {
		texts = append(texts, seg.Text)
	}
	s.log.add(types.Message{
		Role:    types.RoleAssistant,
		Content: strings.Join(texts, " "),
		Name:    perf.CharacterName,
	})

	if s.sink != nil {
		s.sink(perf)
	}
}

// rebuildDetector rebuilds the address detector's name index from the
// current member set. Must be called with s.mu held.
func (s *Scene) rebuildDetector() {
	named := make([]namedMember, 0, len(s.members))
	for id, m := range s.members {
		named = append(named, namedMember{id: id, name: m.def.Name})
	}
	s.detector.rebuild(named)
}
