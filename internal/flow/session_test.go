package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/UniNest/NestGuide/internal/models"
)

func TestAdvanceNeverDecreases(t *testing.T) {
	s := NewSession("sess-1", "tok-1")
	s.SetStage(models.StageBirthday)

	s.Advance(models.StageLocation)
	if s.Stage() != models.StageBirthday {
		t.Errorf("expected stage decrease refused, got %d", s.Stage())
	}

	s.Advance(models.StageUniversity)
	if s.Stage() != models.StageUniversity {
		t.Errorf("expected advance to %d, got %d", models.StageUniversity, s.Stage())
	}

	s.Advance(models.StageAssistant)
	if s.Stage() != models.StageAssistant {
		t.Error("expected terminal jump to assistant mode to be allowed")
	}
}

func TestBeginTurnSingleFlight(t *testing.T) {
	s := NewSession("sess-1", "tok-1")
	if err := s.BeginTurn(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.BeginTurn(); !errors.Is(err, models.ErrTurnInFlight) {
		t.Errorf("expected ErrTurnInFlight, got %v", err)
	}
	s.EndTurn()
	if err := s.BeginTurn(); err != nil {
		t.Errorf("expected turn slot freed, got %v", err)
	}
}

func TestBeginTurnAfterTeardown(t *testing.T) {
	s := NewSession("sess-1", "tok-1")
	s.Teardown(&immediateTimer{})
	if err := s.BeginTurn(); !errors.Is(err, models.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
}

func TestBeginTurnAfterCompletion(t *testing.T) {
	s := NewSession("sess-1", "tok-1")
	s.Complete("/app/home")
	if err := s.BeginTurn(); !errors.Is(err, models.ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted, got %v", err)
	}
}

func TestTeardownInvalidatesGeneration(t *testing.T) {
	s := NewSession("sess-1", "tok-1")
	gen := s.Generation()
	if !s.generationIs(gen) {
		t.Fatal("expected live generation to match")
	}
	s.Teardown(&immediateTimer{})
	if s.generationIs(gen) {
		t.Error("expected teardown to invalidate the generation")
	}
}

func TestCompleteIsOneShot(t *testing.T) {
	s := NewSession("sess-1", "tok-1")
	s.Complete("/app/home")
	s.Complete("/somewhere/else")
	if s.Redirect() != "/app/home" {
		t.Errorf("expected first redirect kept, got %q", s.Redirect())
	}
}

func TestSnapshotCopiesTranscript(t *testing.T) {
	s := NewSession("sess-1", "tok-1")
	s.AppendUserMessage("hello")
	snap := s.Snapshot()
	snap.Transcript[0].Content = "mutated"
	if s.Transcript()[0].Content != "hello" {
		t.Error("snapshot mutation leaked into the session")
	}
}

func TestRegistryIdle(t *testing.T) {
	r := NewRegistry()
	fresh := NewSession("fresh", "tok-1")
	stale := NewSession("stale", "tok-2")
	r.Add(fresh)
	r.Add(stale)

	later := time.Now().Add(30 * time.Minute)
	fresh.BeginTurn() // refreshes lastActive to now, still idle at +30m
	fresh.EndTurn()

	idle := r.Idle(later, 20*time.Minute)
	if len(idle) != 2 {
		t.Fatalf("expected both sessions idle at +30m, got %d", len(idle))
	}

	idle = r.Idle(time.Now().Add(time.Second), 20*time.Minute)
	if len(idle) != 0 {
		t.Errorf("expected no sessions idle after a second, got %d", len(idle))
	}
}
