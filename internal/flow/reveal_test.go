package flow

import (
	"testing"

	"github.com/UniNest/NestGuide/internal/models"
)

func TestChainRevealsInOrder(t *testing.T) {
	timer := &holdTimer{}
	reveals := NewRevealScheduler(timer)
	s := NewSession("sess-1", "tok-1")

	reveals.Chain(s,
		RevealStep{Text: "first"},
		RevealStep{Text: "second"},
		RevealStep{Text: "third"},
	)
	timer.fireAll()

	transcript := s.Transcript()
	if len(transcript) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(transcript))
	}
	for i, want := range []string{"first", "second", "third"} {
		if transcript[i].Content != want {
			t.Errorf("position %d: expected %q, got %q", i, want, transcript[i].Content)
		}
	}
}

func TestChainStepsScheduleLazily(t *testing.T) {
	timer := &holdTimer{}
	reveals := NewRevealScheduler(timer)
	s := NewSession("sess-1", "tok-1")

	reveals.Chain(s,
		RevealStep{Text: "first"},
		RevealStep{Text: "second"},
	)

	timer.mu.Lock()
	pending := len(timer.pending)
	timer.mu.Unlock()
	if pending != 1 {
		t.Errorf("expected only the head of the chain scheduled, got %d pending", pending)
	}
}

func TestRevealDroppedAfterTeardown(t *testing.T) {
	timer := &holdTimer{}
	reveals := NewRevealScheduler(timer)
	s := NewSession("sess-1", "tok-1")

	reveals.Reveal(s, "late message", 0)
	s.Teardown(timer)
	timer.fireAll()

	if len(s.Transcript()) != 0 {
		t.Errorf("expected stale reveal dropped, transcript: %+v", s.Transcript())
	}
	if len(timer.cancelled) != 1 {
		t.Errorf("expected the pending timer cancelled, got %d", len(timer.cancelled))
	}
}

func TestReplaceAllClearsTranscript(t *testing.T) {
	timer := &immediateTimer{}
	reveals := NewRevealScheduler(timer)
	s := NewSession("sess-1", "tok-1")
	s.AppendUserMessage("old")
	s.appendBotMessage("older", false)

	reveals.Chain(s, RevealStep{Text: "fresh start", ReplaceAll: true})

	transcript := s.Transcript()
	if len(transcript) != 1 || transcript[0].Content != "fresh start" {
		t.Errorf("expected transcript replaced, got %+v", transcript)
	}
}

func TestThenHookRunsAfterMessageLands(t *testing.T) {
	timer := &immediateTimer{}
	reveals := NewRevealScheduler(timer)
	s := NewSession("sess-1", "tok-1")

	var sawMessage bool
	reveals.Chain(s, RevealStep{Text: "done", Then: func() {
		transcript := s.Transcript()
		sawMessage = len(transcript) == 1 && transcript[0].Role == models.RoleBot
	}})

	if !sawMessage {
		t.Error("expected hook to observe the revealed message")
	}
}
