package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/UniNest/NestGuide/internal/models"
	"github.com/UniNest/NestGuide/internal/profile"
	"github.com/UniNest/NestGuide/internal/store"
)

const (
	msgWelcomeNew  = "Hey there! I'm NestGuide, here to help you find your place and your people."
	msgDisclaimer  = "Before we start matching, I need a few details to set up your profile. It only takes a minute."
	msgWelcomeBack = "Welcome back! Good to see you again."
	msgResume      = "Looks like we didn't finish setting up your profile. Let's pick up where we left off."
	msgAssistHello = "Your profile is all set. What can I help you with today?"

	bootstrapDelay = 500 * time.Millisecond
)

// Router decides where a session starts. Complete profiles go straight to
// assistant mode, incomplete ones resume onboarding, and an unreachable
// profile backend falls back to the brand-new-user greeting.
type Router struct {
	profiles    profile.Service
	reveals     *RevealScheduler
	checkpoints store.Store
}

// NewRouter creates a returning-user router. The checkpoint store may be nil,
// in which case resume always restarts at the current-location stage.
func NewRouter(ps profile.Service, rs *RevealScheduler, st store.Store) *Router {
	return &Router{profiles: ps, reveals: rs, checkpoints: st}
}

// Bootstrap fetches the profile and sets the session's starting stage, then
// schedules the opening messages. It never fails: every fetch outcome maps to
// a valid starting state.
func (r *Router) Bootstrap(ctx context.Context, s *Session) {
	p, err := r.profiles.Fetch(ctx, s.Token)
	if err != nil {
		slog.Warn("Router.Bootstrap: profile fetch failed, greeting as new user", "sessionID", s.ID, "error", err)
		s.SetStage(models.StageName)
		nameDef, _ := Definition(models.StageName)
		r.reveals.Chain(s,
			RevealStep{Text: msgWelcomeNew, Delay: bootstrapDelay},
			RevealStep{Text: msgDisclaimer, Delay: bootstrapDelay},
			RevealStep{Text: nameDef.Question, Delay: 2 * bootstrapDelay},
		)
		return
	}

	missing := p.MissingFields()
	if len(missing) == 0 {
		slog.Info("Router.Bootstrap: profile complete, entering assistant mode", "sessionID", s.ID)
		s.SetStage(models.StageAssistant)
		r.reveals.Chain(s,
			RevealStep{Text: msgWelcomeBack, Delay: bootstrapDelay, ReplaceAll: true},
			RevealStep{Text: msgAssistHello, Delay: bootstrapDelay},
		)
		return
	}

	stage := r.resumeStage(ctx, s)
	slog.Info("Router.Bootstrap: resuming onboarding", "sessionID", s.ID, "stage", stage, "missingFields", missing)
	s.SetStage(stage)
	def, _ := Definition(stage)
	r.reveals.Chain(s,
		RevealStep{Text: msgWelcomeBack, Delay: bootstrapDelay, ReplaceAll: true},
		RevealStep{Text: msgResume, Delay: bootstrapDelay},
		RevealStep{Text: def.Question, Delay: 2 * bootstrapDelay},
	)
}

// resumeStage picks where an incomplete profile resumes. Name capture is
// always skipped because an authenticated account carries a name; a saved
// checkpoint beyond that fast-forwards further.
func (r *Router) resumeStage(ctx context.Context, s *Session) models.Stage {
	stage := models.StageLocation
	if r.checkpoints == nil {
		return stage
	}
	cp, err := r.checkpoints.GetCheckpoint(ctx, s.Token)
	if err != nil {
		slog.Warn("Router.resumeStage: checkpoint lookup failed", "sessionID", s.ID, "error", err)
		return stage
	}
	if cp != nil && cp.Stage > stage && cp.Stage.IsOnboarding() {
		stage = cp.Stage
	}
	return stage
}
