package flow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/UniNest/NestGuide/internal/models"
)

// Session is the live onboarding conversation for one user. It unifies the
// stage, the display transcript, and the turn log behind one lock so the
// monotonic-stage invariant holds under concurrent reveals.
//
// Sessions are ephemeral: closing the assistant discards the Session while
// profile fields written during it outlive it in the backend.
type Session struct {
	ID        string
	Token     string
	CreatedAt time.Time

	mu         sync.Mutex
	stage      models.Stage
	transcript []models.ChatMessage
	turnLog    []models.ChatMessage
	generation uint64
	timerIDs   []string
	redirect   string
	completed  bool
	closed     bool
	inFlight   bool
	lastActive time.Time
}

// NewSession creates a session for the given bearer token.
func NewSession(id, token string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Token:      token,
		CreatedAt:  now,
		lastActive: now,
	}
}

// Stage returns the current dialogue stage.
func (s *Session) Stage() models.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// SetStage sets the bootstrap stage. Only the returning-user router calls
// this; everything after bootstrap goes through Advance.
func (s *Session) SetStage(stage models.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stage
}

// Advance moves to the accepted stage's successor. The stage never decreases:
// the only permitted non-increasing transition is the terminal jump to
// assistant mode when graduation is accepted.
func (s *Session) Advance(next models.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next != models.StageAssistant && next < s.stage {
		slog.Warn("Session.Advance: refused stage decrease", "sessionID", s.ID, "from", s.stage, "to", next)
		return
	}
	s.stage = next
}

// Transcript returns a copy of the display transcript.
func (s *Session) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// TurnLog returns a copy of the accepted-turn log fed to the completion
// service as conversational context.
func (s *Session) TurnLog() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.turnLog))
	copy(out, s.turnLog)
	return out
}

// AppendUserMessage appends a user message to the display transcript.
func (s *Session) AppendUserMessage(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, models.ChatMessage{Role: models.RoleUser, Content: content})
}

// appendBotMessage appends a bot message to the display transcript, replacing
// it wholesale first when replaceAll is set (the one-time welcome-back clear).
func (s *Session) appendBotMessage(content string, replaceAll bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if replaceAll {
		s.transcript = nil
	}
	s.transcript = append(s.transcript, models.ChatMessage{Role: models.RoleBot, Content: content})
}

// AppendTurn records one accepted turn in the turn log: exactly one user
// entry and one bot entry. Rejected and failed turns never reach here.
func (s *Session) AppendTurn(userInput, botReply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnLog = append(s.turnLog,
		models.ChatMessage{Role: models.RoleUser, Content: userInput},
		models.ChatMessage{Role: models.RoleBot, Content: botReply},
	)
}

// Generation returns the teardown token scheduled reveals are checked
// against before mutating the transcript.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) generationIs(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.generation == gen
}

func (s *Session) trackTimer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerIDs = append(s.timerIDs, id)
}

// Complete marks onboarding finished and arms the one-time navigation
// hand-off route.
func (s *Session) Complete(redirect string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return
	}
	s.completed = true
	s.redirect = redirect
}

// Completed reports whether the closing hand-off has fired.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Redirect returns the hand-off route, empty until completion.
func (s *Session) Redirect() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redirect
}

// BeginTurn claims the single in-flight turn slot. It returns an error when a
// turn is already processing or the session is no longer accepting input.
func (s *Session) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ErrSessionClosed
	}
	if s.completed {
		return models.ErrSessionCompleted
	}
	if s.inFlight {
		return models.ErrTurnInFlight
	}
	s.inFlight = true
	s.lastActive = time.Now()
	return nil
}

// EndTurn releases the in-flight turn slot.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// IdleFor reports how long the session has gone without a turn.
func (s *Session) IdleFor(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive)
}

// Teardown closes the session: pending reveals are cancelled through the
// timer and the generation is bumped so any already-fired callbacks find a
// stale token and leave the transcript alone.
func (s *Session) Teardown(t Timer) {
	s.mu.Lock()
	ids := s.timerIDs
	s.timerIDs = nil
	s.generation++
	s.closed = true
	s.mu.Unlock()

	for _, id := range ids {
		if err := t.Cancel(id); err != nil {
			slog.Warn("Session.Teardown: timer cancel failed", "sessionID", s.ID, "timerID", id, "error", err)
		}
	}
	slog.Debug("Session.Teardown: session closed", "sessionID", s.ID, "cancelledTimers", len(ids))
}

// Snapshot returns the API view of the session.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	transcript := make([]models.ChatMessage, len(s.transcript))
	copy(transcript, s.transcript)
	return models.SessionSnapshot{
		SessionID:  s.ID,
		Stage:      s.stage,
		Transcript: transcript,
		Completed:  s.completed,
		Redirect:   s.redirect,
	}
}

// Registry tracks live sessions by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get looks up a session by ID.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove forgets a session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Idle returns every session that has been inactive for at least ttl.
func (r *Registry) Idle(now time.Time, ttl time.Duration) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var idle []*Session
	for _, s := range r.sessions {
		if s.IdleFor(now) >= ttl {
			idle = append(idle, s)
		}
	}
	return idle
}
