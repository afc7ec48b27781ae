package flow

import (
	"log/slog"
	"time"
)

// RevealStep is one delayed bot message. Delay is relative to the previous
// step in a chain (or to now for the first step). Then, if set, runs after
// the message lands; the graduation hand-off uses it.
type RevealStep struct {
	Text       string
	Delay      time.Duration
	ReplaceAll bool
	Then       func()
}

// RevealScheduler enqueues bot messages for display after their delays,
// simulating typing. A message appears only once its delay elapses, however
// fast the underlying call resolved; relative order across chained steps is
// guaranteed by nesting each schedule inside the previous callback rather
// than racing independent timers.
type RevealScheduler struct {
	timer Timer
}

// NewRevealScheduler creates a scheduler over the given timer.
func NewRevealScheduler(t Timer) *RevealScheduler {
	return &RevealScheduler{timer: t}
}

// Reveal schedules a single bot message.
func (r *RevealScheduler) Reveal(s *Session, text string, delay time.Duration) {
	r.Chain(s, RevealStep{Text: text, Delay: delay})
}

// Chain schedules a sequence of reveals that land in order. Every callback
// re-checks the session generation so a reveal scheduled before teardown
// never mutates a discarded session.
func (r *RevealScheduler) Chain(s *Session, steps ...RevealStep) {
	if len(steps) == 0 {
		return
	}
	r.scheduleStep(s, s.Generation(), steps)
}

func (r *RevealScheduler) scheduleStep(s *Session, gen uint64, steps []RevealStep) {
	step := steps[0]
	rest := steps[1:]

	id, err := r.timer.ScheduleAfter(step.Delay, func() {
		if !s.generationIs(gen) {
			slog.Debug("RevealScheduler: dropping reveal for stale session", "sessionID", s.ID)
			return
		}
		s.appendBotMessage(step.Text, step.ReplaceAll)
		if step.Then != nil {
			step.Then()
		}
		if len(rest) > 0 {
			r.scheduleStep(s, gen, rest)
		}
	})
	if err != nil {
		slog.Error("RevealScheduler: failed to schedule reveal", "sessionID", s.ID, "error", err)
		return
	}
	s.trackTimer(id)
}
