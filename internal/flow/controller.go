package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UniNest/NestGuide/internal/genai"
	"github.com/UniNest/NestGuide/internal/models"
	"github.com/UniNest/NestGuide/internal/profile"
	"github.com/UniNest/NestGuide/internal/store"
)

const (
	// CompletionRedirect is the route handed to the client when onboarding
	// finishes.
	CompletionRedirect = "/app/home"

	msgTrouble    = "I'm having trouble on my end right now. Could you try that again?"
	msgSaveFailed = "Sorry, I couldn't save that just now. Could you try again?"
	msgSelectDate = "Please pick your birthday with the date selector below."
	msgFutureGrad = "Your graduation date has to be in the future. Could you pick it again?"
	msgClosing    = "That's everything I need! Your profile is all set up. Taking you home now..."

	ackDelay      = 600 * time.Millisecond
	questionDelay = 900 * time.Millisecond
)

// Controller drives the stage state machine for one turn at a time. Profile
// fields are written only after the completion service accepts an input, the
// turn log grows only on accepted turns, and the stage only moves forward.
type Controller struct {
	genaiClient genai.ClientInterface
	profiles    profile.Service
	reveals     *RevealScheduler
	checkpoints store.Store
	now         func() time.Time
	onComplete  func(s *Session)
}

// ControllerOpts holds optional controller collaborators.
type ControllerOpts struct {
	Checkpoints store.Store
	Now         func() time.Time
	OnComplete  func(s *Session)
}

// ControllerOption configures a Controller.
type ControllerOption func(*ControllerOpts)

// WithCheckpoints enables best-effort stage checkpointing for resume.
func WithCheckpoints(st store.Store) ControllerOption {
	return func(o *ControllerOpts) { o.Checkpoints = st }
}

// WithClock overrides the wall clock used for the graduation gate.
func WithClock(now func() time.Time) ControllerOption {
	return func(o *ControllerOpts) { o.Now = now }
}

// WithOnComplete registers a hook that runs when the closing hand-off fires.
func WithOnComplete(fn func(s *Session)) ControllerOption {
	return func(o *ControllerOpts) { o.OnComplete = fn }
}

// NewController creates a stage controller.
func NewController(gc genai.ClientInterface, ps profile.Service, rs *RevealScheduler, options ...ControllerOption) *Controller {
	opts := ControllerOpts{Now: time.Now}
	for _, opt := range options {
		opt(&opts)
	}
	return &Controller{
		genaiClient: gc,
		profiles:    ps,
		reveals:     rs,
		checkpoints: opts.Checkpoints,
		now:         opts.Now,
		onComplete:  opts.OnComplete,
	}
}

// TurnInput is one user submission. Message carries typed text; Birthday and
// GradMonth/GradYear carry widget selections for their stages.
type TurnInput struct {
	Message   string
	Birthday  string
	GradMonth int
	GradYear  int
}

// ProcessTurn runs one full turn: claim the in-flight slot, validate the
// input through the completion service, persist on acceptance, and schedule
// the reply reveals. The bot's response always lands through the scheduler,
// so the caller sees it in a later snapshot rather than in the return value.
func (c *Controller) ProcessTurn(ctx context.Context, s *Session, in TurnInput) error {
	if err := s.BeginTurn(); err != nil {
		return err
	}
	defer s.EndTurn()

	stage := s.Stage()
	slog.Debug("Controller.ProcessTurn: turn started", "sessionID", s.ID, "stage", stage)

	if stage == models.StageAssistant {
		return c.assistantTurn(ctx, s, in.Message)
	}

	def, ok := Definition(stage)
	if !ok {
		return fmt.Errorf("no definition for stage %d", stage)
	}

	input, precheckMsg := c.resolveInput(stage, in)
	if precheckMsg != "" {
		if disp := displayInput(stage, in, input); disp != "" {
			s.AppendUserMessage(disp)
		}
		c.reveals.Reveal(s, precheckMsg, ackDelay)
		return nil
	}

	s.AppendUserMessage(input)

	reply, err := c.genaiClient.Generate(ctx, def.Instruction, s.TurnLog(), input)
	if err != nil {
		slog.Error("Controller.ProcessTurn: completion failed", "sessionID", s.ID, "stage", stage, "error", err)
		c.reveals.Reveal(s, msgTrouble, ackDelay)
		return nil
	}

	if !containsAcceptToken(reply, def.AcceptTokens) {
		slog.Debug("Controller.ProcessTurn: input not accepted", "sessionID", s.ID, "stage", stage)
		c.reveals.Reveal(s, def.Reprompt, ackDelay)
		return nil
	}

	fields := def.Extract(input)
	if !c.profiles.Update(ctx, s.Token, fields) {
		slog.Warn("Controller.ProcessTurn: profile update failed, stage held", "sessionID", s.ID, "stage", stage)
		c.reveals.Reveal(s, msgSaveFailed, ackDelay)
		return nil
	}

	ack := reply
	if def.Decorate != nil {
		ack = def.Decorate(reply, fields)
	}

	s.AppendTurn(input, ack)
	s.Advance(def.Next)
	c.checkpoint(ctx, s)

	if def.Next == models.StageAssistant {
		c.reveals.Chain(s,
			RevealStep{Text: ack, Delay: ackDelay},
			RevealStep{Text: msgClosing, Delay: questionDelay, Then: func() {
				s.Complete(CompletionRedirect)
				if c.onComplete != nil {
					c.onComplete(s)
				}
				slog.Info("Controller: onboarding completed", "sessionID", s.ID)
			}},
		)
		return nil
	}

	next, _ := Definition(def.Next)
	c.reveals.Chain(s,
		RevealStep{Text: ack, Delay: ackDelay},
		RevealStep{Text: next.Question, Delay: questionDelay},
	)
	return nil
}

// assistantTurn relays free-form conversation once onboarding is done. The
// reply is shown verbatim and the exchange still feeds future context.
func (c *Controller) assistantTurn(ctx context.Context, s *Session, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		c.reveals.Reveal(s, "I didn't catch that. What can I help you with?", ackDelay)
		return nil
	}
	s.AppendUserMessage(message)

	reply, err := c.genaiClient.Generate(ctx, assistantInstruction, s.TurnLog(), message)
	if err != nil {
		slog.Error("Controller.assistantTurn: completion failed", "sessionID", s.ID, "error", err)
		c.reveals.Reveal(s, msgTrouble, ackDelay)
		return nil
	}

	s.AppendTurn(message, reply)
	c.reveals.Reveal(s, reply, ackDelay)
	return nil
}

// resolveInput derives the effective input for the stage and runs the
// client-side prechecks that never reach the completion service. A non-empty
// second return is the rejection message to reveal.
func (c *Controller) resolveInput(stage models.Stage, in TurnInput) (string, string) {
	switch stage {
	case models.StageBirthday:
		if strings.TrimSpace(in.Birthday) == "" {
			return "", msgSelectDate
		}
		return strings.TrimSpace(in.Birthday), ""
	case models.StageGraduation:
		if in.GradMonth < 1 || in.GradMonth > 12 || in.GradYear == 0 {
			return "", msgFutureGrad
		}
		if !c.isFuture(in.GradMonth, in.GradYear) {
			return "", msgFutureGrad
		}
		return fmt.Sprintf("%d/%d", in.GradMonth, in.GradYear), ""
	default:
		msg := strings.TrimSpace(in.Message)
		if msg == "" {
			def, _ := Definition(stage)
			return "", def.Reprompt
		}
		return msg, ""
	}
}

// isFuture requires the graduation month to be strictly after the current
// month. Graduating this very month does not count.
func (c *Controller) isFuture(month, year int) bool {
	now := c.now()
	return year > now.Year() || (year == now.Year() && month > int(now.Month()))
}

func displayInput(stage models.Stage, in TurnInput, resolved string) string {
	if resolved != "" {
		return resolved
	}
	switch stage {
	case models.StageBirthday:
		return strings.TrimSpace(in.Birthday)
	case models.StageGraduation:
		if in.GradMonth != 0 || in.GradYear != 0 {
			return fmt.Sprintf("%d/%d", in.GradMonth, in.GradYear)
		}
	}
	return strings.TrimSpace(in.Message)
}

func (c *Controller) checkpoint(ctx context.Context, s *Session) {
	if c.checkpoints == nil {
		return
	}
	stage := s.Stage()
	if err := c.checkpoints.SaveCheckpoint(ctx, s.Token, stage); err != nil {
		slog.Warn("Controller.checkpoint: save failed", "sessionID", s.ID, "stage", stage, "error", err)
	}
}
