// Package flow implements the onboarding dialogue engine: the stage table,
// the stage controller, the returning-user router, and the message-pacing
// scheduler that reveals bot messages after their configured delays.
package flow

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Timer schedules delayed callbacks. The reveal scheduler runs on it, and the
// idle-session sweeper cancels through it on teardown.
type Timer interface {
	// ScheduleAfter schedules fn to run after delay and returns a handle.
	ScheduleAfter(delay time.Duration, fn func()) (string, error)

	// Cancel stops a scheduled callback; cancelling an unknown or already
	// fired handle is a no-op.
	Cancel(id string) error

	// Stop cancels every scheduled callback.
	Stop()
}

type timerEntry struct {
	timer     *time.Timer
	expiresAt time.Time
}

// SimpleTimer implements Timer using the standard time package.
type SimpleTimer struct {
	timers map[string]*timerEntry
	mu     sync.Mutex
	nextID int64
}

// NewSimpleTimer creates a new SimpleTimer.
func NewSimpleTimer() *SimpleTimer {
	return &SimpleTimer{timers: make(map[string]*timerEntry)}
}

// ScheduleAfter schedules a function to run after a delay.
func (t *SimpleTimer) ScheduleAfter(delay time.Duration, fn func()) (string, error) {
	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("timer_%d", t.nextID)
	entry := &timerEntry{expiresAt: time.Now().Add(delay)}
	// The callback takes the lock before touching the map, so even a zero
	// delay cannot fire before the entry is registered below.
	entry.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
		fn()
	})
	t.timers[id] = entry
	t.mu.Unlock()

	slog.Debug("SimpleTimer.ScheduleAfter: scheduled", "id", id, "delay", delay)
	return id, nil
}

// Cancel stops a scheduled function by handle.
func (t *SimpleTimer) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.timers[id]; exists {
		entry.timer.Stop()
		delete(t.timers, id)
		slog.Debug("SimpleTimer.Cancel: cancelled", "id", id)
	}
	return nil
}

// Stop cancels all scheduled timers.
func (t *SimpleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	slog.Debug("SimpleTimer.Stop: stopping all timers", "count", len(t.timers))
	for _, entry := range t.timers {
		entry.timer.Stop()
	}
	t.timers = make(map[string]*timerEntry)
}

// Active returns the number of timers that have not yet fired.
func (t *SimpleTimer) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}
