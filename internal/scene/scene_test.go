package scene

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stagecue/stagecue/internal/character"
	"github.com/stagecue/stagecue/internal/identity"
	"github.com/stagecue/stagecue/internal/performer"
	"github.com/stagecue/stagecue/pkg/provider/llm"
	llmmock "github.com/stagecue/stagecue/pkg/provider/llm/mock"
	"github.com/stagecue/stagecue/pkg/types"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func def(id, name string) *character.Definition {
	return &character.Definition{ID: id, Name: name, Role: "test role"}
}

func newTestScene(t *testing.T, provider llm.Provider, opts ...Option) *Scene {
	t.Helper()
	p, err := performer.New(provider)
	if err != nil {
		t.Fatalf("performer.New() error = %v", err)
	}
	s, err := New(p, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func mustAdd(t *testing.T, s *Scene, d *character.Definition) {
	t.Helper()
	if err := s.AddMember(d); err != nil {
		t.Fatalf("AddMember(%s) error = %v", d.ID, err)
	}
}

// ── membership ───────────────────────────────────────────────────────────────

func TestAddMember_Duplicate(t *testing.T) {
	s := newTestScene(t, &llmmock.Provider{})
	mustAdd(t, s, def("elder", "Greymantle"))

	if err := s.AddMember(def("elder", "Greymantle")); err == nil {
		t.Fatal("AddMember() duplicate = nil error, want error")
	}
}

func TestAddMember_SceneFull(t *testing.T) {
	s := newTestScene(t, &llmmock.Provider{}, WithMaxMembers(1))
	mustAdd(t, s, def("elder", "Greymantle"))

	if err := s.AddMember(def("smith", "Brakka")); !errors.Is(err, ErrSceneFull) {
		t.Fatalf("AddMember() over limit = %v, want ErrSceneFull", err)
	}
}

func TestAddMember_Invalid(t *testing.T) {
	s := newTestScene(t, &llmmock.Provider{})
	if err := s.AddMember(&character.Definition{}); err == nil {
		t.Fatal("AddMember() invalid definition = nil error, want error")
	}
}

func TestRemoveMember(t *testing.T) {
	s := newTestScene(t, &llmmock.Provider{})
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	if err := s.RemoveMember("elder"); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	got := s.Members()
	if len(got) != 1 || got[0] != "smith" {
		t.Errorf("Members() = %v, want [smith]", got)
	}
	if err := s.RemoveMember("elder"); err == nil {
		t.Error("RemoveMember() second time = nil error, want error")
	}
}

// ── routing ──────────────────────────────────────────────────────────────────

func TestSpeak_RoutesByName(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Aye."},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	perf, err := s.Speak(context.Background(), "Aria", "Brakka, can you mend this blade?")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if perf.CharacterID != "smith" {
		t.Errorf("CharacterID = %q, want smith", perf.CharacterID)
	}
}

func TestSpeak_NameFragmentMatches(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Hm."},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle the Elder"))
	mustAdd(t, s, def("smith", "Brakka"))

	perf, err := s.Speak(context.Background(), "Aria", "What do you make of this, elder?")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if perf.CharacterID != "elder" {
		t.Errorf("CharacterID = %q, want elder", perf.CharacterID)
	}
}

func TestSpeak_LastSpeakerContinuation(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Indeed."},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	if _, err := s.Speak(context.Background(), "Aria", "Greymantle, a word."); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	// Follow-up names nobody; it continues with the last speaker.
	perf, err := s.Speak(context.Background(), "Aria", "And what then?")
	if err != nil {
		t.Fatalf("Speak() follow-up error = %v", err)
	}
	if perf.CharacterID != "elder" {
		t.Errorf("CharacterID = %q, want elder", perf.CharacterID)
	}
}

func TestSpeak_SingleMemberFallback(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Yes?"},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))

	perf, err := s.Speak(context.Background(), "Aria", "Hello there.")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if perf.CharacterID != "elder" {
		t.Errorf("CharacterID = %q, want elder", perf.CharacterID)
	}
}

func TestSpeak_NoTarget(t *testing.T) {
	s := newTestScene(t, &llmmock.Provider{})
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	_, err := s.Speak(context.Background(), "Aria", "Hello there.")
	if !errors.Is(err, ErrNoTarget) {
		t.Fatalf("Speak() = %v, want ErrNoTarget", err)
	}
}

func TestSpeak_MutedMemberSkipped(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "..."},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	if err := s.Mute("smith"); err != nil {
		t.Fatalf("Mute() error = %v", err)
	}
	// The muted member is not matched by name; routing falls through to the
	// single remaining unmuted member.
	perf, err := s.Speak(context.Background(), "Aria", "Brakka, are you there?")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if perf.CharacterID != "elder" {
		t.Errorf("CharacterID = %q, want elder (smith muted)", perf.CharacterID)
	}

	if err := s.Unmute("smith"); err != nil {
		t.Fatalf("Unmute() error = %v", err)
	}
	perf, err = s.Speak(context.Background(), "Aria", "Brakka, are you there?")
	if err != nil {
		t.Fatalf("Speak() after unmute error = %v", err)
	}
	if perf.CharacterID != "smith" {
		t.Errorf("CharacterID = %q, want smith after unmute", perf.CharacterID)
	}
}

func TestSetOverride(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "As you command."},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	if err := s.SetOverride("Director", "smith"); err != nil {
		t.Fatalf("SetOverride() error = %v", err)
	}
	perf, err := s.Speak(context.Background(), "Director", "Say something ominous.")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if perf.CharacterID != "smith" {
		t.Errorf("CharacterID = %q, want override target smith", perf.CharacterID)
	}

	if err := s.SetOverride("Director", ""); err != nil {
		t.Fatalf("SetOverride() clear error = %v", err)
	}
	if err := s.SetOverride("Director", "ghost"); err == nil {
		t.Error("SetOverride() unknown character = nil error, want error")
	}
}

// ── prompt and transcript ────────────────────────────────────────────────────

func TestSpeak_ScenePromptListsAllMembers(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Hm."},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	if _, err := s.Speak(context.Background(), "Aria", "Greymantle?"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	sys := provider.Calls()[0].Req.SystemPrompt
	if !strings.HasPrefix(sys, identity.StaticScene()) {
		t.Error("system prompt does not start with the scene static block")
	}
	if !strings.Contains(sys, "GREYMANTLE") || !strings.Contains(sys, "BRAKKA") {
		t.Error("system prompt missing a member's dynamic block")
	}
	if !strings.Contains(sys, "The next line belongs to GREYMANTLE.") {
		t.Error("system prompt missing the speaking-character note")
	}
}

func TestSpeak_SharedTranscript(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponses: []*llm.CompletionResponse{
			{Content: "The mine is cursed."},
			{Content: "Cursed, he says."},
		},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))

	if _, err := s.Speak(context.Background(), "Aria", "Greymantle, what of the mine?"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if _, err := s.Speak(context.Background(), "Aria", "Brakka, do you believe him?"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	// The second turn's history carries both the first line and the first
	// performance.
	msgs := provider.Calls()[1].Req.Messages
	var sawLine, sawReply bool
	for _, m := range msgs {
		if m.Role == types.RoleUser && strings.Contains(m.Content, "what of the mine") {
			sawLine = true
		}
		if m.Role == types.RoleAssistant && m.Name == "Greymantle" &&
			strings.Contains(m.Content, "cursed") {
			sawReply = true
		}
	}
	if !sawLine || !sawReply {
		t.Errorf("history missing prior turn: sawLine=%v sawReply=%v msgs=%+v",
			sawLine, sawReply, msgs)
	}
}

func TestSpeak_SinkReceivesPerformance(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Aye."},
	}

	var mu sync.Mutex
	var got []*performer.Performance
	sink := func(p *performer.Performance) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	}

	s := newTestScene(t, provider, WithSink(sink))
	mustAdd(t, s, def("elder", "Greymantle"))

	if _, err := s.Speak(context.Background(), "Aria", "Hello."); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].CharacterID != "elder" {
		t.Errorf("sink received %+v, want one performance from elder", got)
	}
}

// ── cue ──────────────────────────────────────────────────────────────────────

func TestCue_FansOutToAllUnmuted(t *testing.T) {
	provider := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "Gasp."},
	}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))
	mustAdd(t, s, def("smith", "Brakka"))
	mustAdd(t, s, def("bard", "Liavette"))

	if err := s.Mute("bard"); err != nil {
		t.Fatalf("Mute() error = %v", err)
	}

	perfs, err := s.Cue(context.Background(), "A tremor shakes the tavern.")
	if err != nil {
		t.Fatalf("Cue() error = %v", err)
	}
	if len(perfs) != 2 {
		t.Fatalf("Cue() performances = %d, want 2", len(perfs))
	}
	if perfs[0].CharacterID != "elder" || perfs[1].CharacterID != "smith" {
		t.Errorf("Cue() order = %s, %s; want elder, smith",
			perfs[0].CharacterID, perfs[1].CharacterID)
	}
}

func TestCue_EmptyScene(t *testing.T) {
	s := newTestScene(t, &llmmock.Provider{})
	perfs, err := s.Cue(context.Background(), "Lights up.")
	if err != nil {
		t.Fatalf("Cue() error = %v", err)
	}
	if perfs != nil {
		t.Errorf("Cue() = %v, want nil for empty scene", perfs)
	}
}

func TestCue_ProviderFailure(t *testing.T) {
	boom := errors.New("upstream down")
	provider := &llmmock.Provider{CompleteErr: boom}
	s := newTestScene(t, provider)
	mustAdd(t, s, def("elder", "Greymantle"))

	if _, err := s.Cue(context.Background(), "Thunder."); !errors.Is(err, boom) {
		t.Fatalf("Cue() = %v, want wrapped provider error", err)
	}
}

// ── lifecycle ────────────────────────────────────────────────────────────────

func TestClosedSceneRejectsTurns(t *testing.T) {
	p, err := performer.New(&llmmock.Provider{})
	if err != nil {
		t.Fatalf("performer.New() error = %v", err)
	}
	s, err := New(p)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.AddMember(def("elder", "Greymantle")); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	s.Close()
	s.Close() // idempotent

	if _, err := s.Speak(context.Background(), "Aria", "Hello."); err == nil {
		t.Error("Speak() on closed scene = nil error, want error")
	}
	if _, err := s.Cue(context.Background(), "Lights."); err == nil {
		t.Error("Cue() on closed scene = nil error, want error")
	}
}

func TestNew_NilPerformer(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) = nil error, want error")
	}
}

// ── turn log ─────────────────────────────────────────────────────────────────

func TestTurnLog_DepthEviction(t *testing.T) {
	l := newTurnLog(3, time.Minute)
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		l.add(types.Message{Role: types.RoleUser, Content: text})
	}

	got := l.recent()
	if len(got) != 3 {
		t.Fatalf("recent() = %d entries, want 3", len(got))
	}
	if got[0].Content != "three" || got[2].Content != "five" {
		t.Errorf("recent() = %+v, want the newest three entries", got)
	}
}

func TestTurnLog_AgeEviction(t *testing.T) {
	l := newTurnLog(10, 50*time.Millisecond)
	l.add(types.Message{Content: "stale"})
	time.Sleep(80 * time.Millisecond)
	l.add(types.Message{Content: "fresh"})

	got := l.recent()
	if len(got) != 1 || got[0].Content != "fresh" {
		t.Errorf("recent() = %+v, want only the fresh entry", got)
	}
}
