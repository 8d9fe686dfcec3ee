// Package learner simulates students: a Cognition module decides what they
// know, a Decider module decides what they do.
package learner

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/store"
	"github.com/abhisek/motivsim/internal/turn"
	"github.com/google/uuid"
)

// minActionTime is the floor for sampled action durations.
const minActionTime = 250 * time.Millisecond

// State holds the learner's behavioural counters and flags.
type State struct {
	OffTask       bool
	Attempted     bool
	TotalAttempts int
	TotalSuccess  int
}

// Timing parameterizes how long non-attempt actions take.
type Timing struct {
	MinOffTask time.Duration
	MaxOffTask time.Duration
	HintMean   time.Duration
	HintSD     time.Duration
	GuessMean  time.Duration
	GuessSD    time.Duration
}

// DefaultTiming returns the population defaults.
func DefaultTiming() Timing {
	return Timing{
		MinOffTask: 30 * time.Second,
		MaxOffTask: 30 * time.Minute,
		HintMean:   5 * time.Second,
		HintSD:     1500 * time.Millisecond,
		GuessMean:  3 * time.Second,
		GuessSD:    time.Second,
	}
}

// Option configures a Learner.
type Option func(*Learner)

// WithTiming overrides DefaultTiming.
func WithTiming(t Timing) Option {
	return func(l *Learner) { l.timing = t }
}

// Learner runs one decide, act, absorb-feedback cycle per turn.
// It is not safe for concurrent use.
type Learner struct {
	ID string

	cog    Cognition
	dec    Decider
	rng    *rand.Rand
	timing Timing
	state  State
}

// New assembles a learner. An empty id gets a generated one.
func New(id string, cog Cognition, dec Decider, r *rand.Rand, opts ...Option) *Learner {
	if id == "" {
		id = uuid.NewString()
	}
	l := &Learner{ID: id, cog: cog, dec: dec, rng: r, timing: DefaultTiming()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OffTask reports whether the learner's last action was going off task.
func (l *Learner) OffTask() bool { return l.state.OffTask }

// Knowledge returns the learner's skill on a KC.
func (l *Learner) Knowledge(kcID string) float64 { return l.cog.Knowledge(kcID) }

// State returns a copy of the learner's counters.
func (l *Learner) State() State { return l.state }

// Cognition returns the learner's cognition module.
func (l *Learner) Cognition() Cognition { return l.cog }

// ChooseAction asks the decider for one of the context's legal actions and
// returns it with the decision record.
func (l *Learner) ChooseAction(ctx turn.Context) (action.Kind, store.DecisionData) {
	choice, diag := l.dec.Choose(ctx.Actions(), l.state, ctx)

	rec := store.DecisionData{
		ID:               uuid.NewString(),
		StudentID:        l.ID,
		Time:             ctx.Time,
		Choice:           choice,
		ProblemID:        ctx.ProblemID,
		StepID:           ctx.StepID,
		KC:               ctx.KC,
		LearnerKnowledge: ctx.LearnerKnowledge,
		Attempt:          ctx.Attempt,
		HintsAvail:       ctx.HintsAvail,
		HintsUsed:        ctx.HintsUsed,
		OffTask:          ctx.LearnerOffTask,
		SelfEfficacy:     diag.SelfEfficacy,
	}
	for _, e := range diag.Options {
		rec.Options = append(rec.Options, store.ActionEV{
			Kind:       e.Kind,
			Expectancy: e.Expectancy,
			Value:      e.Value,
			EV:         e.EV,
			Prob:       e.Prob,
		})
	}
	return choice, rec
}

// PerformAction carries out a chosen action: it samples the duration and,
// for graded actions, correctness. The first on-task action of a step is a
// practice opportunity for the step's KC.
func (l *Learner) PerformAction(k action.Kind, ctx turn.Context) (action.Action, error) {
	a := action.Action{Kind: k}
	switch k {
	case action.Attempt:
		a.Duration = l.duration(seconds(ctx.KC.MTime), seconds(ctx.KC.SDTime))
		correct, err := l.cog.ProduceAnswer(k, ctx)
		if err != nil {
			return action.Action{}, err
		}
		a.Correct = correct
		l.state.Attempted = true
	case action.Guess:
		a.Duration = l.duration(l.timing.GuessMean, l.timing.GuessSD)
		correct, err := l.cog.ProduceAnswer(k, ctx)
		if err != nil {
			return action.Action{}, err
		}
		a.Correct = correct
	case action.HintRequest:
		a.Duration = l.duration(l.timing.HintMean, l.timing.HintSD)
	case action.OffTask:
		lo, hi := l.timing.MinOffTask, l.timing.MaxOffTask
		a.Duration = lo + time.Duration(l.rng.Float64()*float64(hi-lo))
	case action.StopWork:
	default:
		return action.Action{}, fmt.Errorf("perform %v: not a learner choice", k)
	}

	switch {
	case k == action.OffTask:
		l.state.OffTask = true
	case k.OnTask():
		l.state.OffTask = false
		if ctx.Attempt == 0 {
			kc := ctx.KC
			l.cog.PracticeSkill(&kc)
		}
	}
	return a, nil
}

// ProcessFeedback updates the attempt counters from the tutor's response.
func (l *Learner) ProcessFeedback(fb action.Feedback) {
	if fb.Attempt != nil {
		l.state.TotalAttempts++
		if fb.Attempt.Correct {
			l.state.TotalSuccess++
		}
	}
}

// StartWorking returns the delay before the learner starts in a session.
func (l *Learner) StartWorking(maxWait time.Duration) time.Duration {
	return l.dec.StartWorking(maxWait)
}

// Spec returns the learner's serializable module configuration.
func (l *Learner) Spec() Spec {
	return Spec{Cognition: l.cog.Spec(), Decider: l.dec.Spec()}
}

// Record returns the persisted form of the learner.
func (l *Learner) Record(now time.Time) (store.StudentData, error) {
	spec := l.Spec()
	raw, err := json.Marshal(spec)
	if err != nil {
		return store.StudentData{}, fmt.Errorf("marshal learner spec: %w", err)
	}
	return store.StudentData{
		ID:        l.ID,
		Cognition: spec.Cognition.Kind,
		Decider:   spec.Decider.Kind,
		Spec:      raw,
		CreatedAt: now,
	}, nil
}

func (l *Learner) duration(mean, sd time.Duration) time.Duration {
	d := seconds(gauss(l.rng, mean.Seconds(), sd.Seconds()))
	return max(d, minActionTime)
}
