package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/UniNest/NestGuide/internal/models"
)

// immediateTimer fires every callback synchronously, making reveal chains
// deterministic in tests.
type immediateTimer struct {
	mu        sync.Mutex
	scheduled int
	cancelled []string
}

func (t *immediateTimer) ScheduleAfter(delay time.Duration, fn func()) (string, error) {
	t.mu.Lock()
	t.scheduled++
	id := fmt.Sprintf("immediate_%d", t.scheduled)
	t.mu.Unlock()
	fn()
	return id, nil
}

func (t *immediateTimer) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = append(t.cancelled, id)
	return nil
}

func (t *immediateTimer) Stop() {}

// holdTimer captures callbacks without running them so tests can interleave
// teardown with pending reveals.
type holdTimer struct {
	mu        sync.Mutex
	pending   []func()
	cancelled []string
	nextID    int
}

func (t *holdTimer) ScheduleAfter(delay time.Duration, fn func()) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.pending = append(t.pending, fn)
	return fmt.Sprintf("held_%d", t.nextID), nil
}

func (t *holdTimer) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = append(t.cancelled, id)
	return nil
}

func (t *holdTimer) Stop() {}

// fireAll drains and runs the captured callbacks in scheduling order.
func (t *holdTimer) fireAll() {
	for {
		t.mu.Lock()
		if len(t.pending) == 0 {
			t.mu.Unlock()
			return
		}
		fn := t.pending[0]
		t.pending = t.pending[1:]
		t.mu.Unlock()
		fn()
	}
}

type genaiCall struct {
	system  string
	history []models.ChatMessage
	input   string
}

// mockGenAI returns a canned reply (or error) and records every call.
type mockGenAI struct {
	mu      sync.Mutex
	reply   string
	err     error
	replies []string // consumed in order when set, overriding reply
	calls   []genaiCall
}

func (m *mockGenAI) Generate(ctx context.Context, systemPrompt string, history []models.ChatMessage, userInput string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, genaiCall{system: systemPrompt, history: history, input: userInput})
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		return r, nil
	}
	return m.reply, nil
}

func (m *mockGenAI) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockProfiles is a canned profile backend.
type mockProfiles struct {
	mu       sync.Mutex
	fetched  *models.Profile
	fetchErr error
	updateOK bool
	updates  []models.ProfileUpdate
}

func (m *mockProfiles) Fetch(ctx context.Context, token string) (*models.Profile, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.fetched, nil
}

func (m *mockProfiles) Update(ctx context.Context, token string, fields models.ProfileUpdate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.updateOK {
		return false
	}
	m.updates = append(m.updates, fields)
	return true
}

func (m *mockProfiles) updateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updates)
}

func lastBotMessage(s *Session) string {
	transcript := s.Transcript()
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == models.RoleBot {
			return transcript[i].Content
		}
	}
	return ""
}
