// Package turn assembles the read-only view a learner decides from each turn.
package turn

import (
	"fmt"
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/domain"
	"github.com/abhisek/motivsim/internal/tutor"
)

// LearnerView is the learner state a Context needs.
type LearnerView interface {
	OffTask() bool
	// Knowledge returns the learner's own skill on a KC: 0 or 1 for binary
	// cognition, a probability for continuous cognition.
	Knowledge(kcID string) float64
}

// Context is a snapshot of one decision turn. It never changes after Build.
type Context struct {
	KC               domain.KC
	UnitID           string
	SectionID        string
	ProblemID        string
	StepID           string
	HintsAvail       int
	HintsUsed        int
	Attempt          int
	LearnerOffTask   bool
	LearnerKnowledge float64
	Time             time.Time
	// SessionEnd is set when the turn happens inside a bounded class session.
	SessionEnd *time.Time
}

// Build snapshots the tutor's active step and the learner's state at now.
// sessionEnd may be nil for unbounded practice.
func Build(t *tutor.Tutor, l LearnerView, now time.Time, sessionEnd *time.Time) (Context, error) {
	kc, err := t.CurrentKC()
	if err != nil {
		return Context{}, fmt.Errorf("build context: %w", err)
	}
	s := t.State()
	c := Context{
		KC:               *kc,
		UnitID:           s.Unit.ID,
		SectionID:        s.Section.ID,
		ProblemID:        s.Problem.ID,
		StepID:           s.Step.ID,
		HintsAvail:       s.HintsAvail,
		HintsUsed:        s.HintsUsed,
		Attempt:          s.Attempt,
		LearnerOffTask:   l.OffTask(),
		LearnerKnowledge: l.Knowledge(kc.ID),
		Time:             now,
	}
	if sessionEnd != nil {
		end := *sessionEnd
		c.SessionEnd = &end
	}
	return c, nil
}

// Actions returns the legal actions for this turn. Attempt and Guess are
// always legal; HintRequest needs a remaining hint; OffTask needs the learner
// to be on task; StopWork is legal only inside a session.
func (c Context) Actions() []action.Kind {
	acts := []action.Kind{action.Attempt, action.Guess}
	if c.HintsAvail > 0 {
		acts = append(acts, action.HintRequest)
	}
	if !c.LearnerOffTask {
		acts = append(acts, action.OffTask)
	}
	if c.SessionEnd != nil {
		acts = append(acts, action.StopWork)
	}
	return acts
}

// Legal reports whether k is in Actions.
func (c Context) Legal(k action.Kind) bool {
	for _, a := range c.Actions() {
		if a == k {
			return true
		}
	}
	return false
}

// HintFraction is hints used over the step's full budget, or 0 for a step
// without hints.
func (c Context) HintFraction() float64 {
	total := c.HintsUsed + c.HintsAvail
	if total == 0 {
		return 0
	}
	return float64(c.HintsUsed) / float64(total)
}

// Remaining returns the time left in the session, or false when unbounded.
func (c Context) Remaining() (time.Duration, bool) {
	if c.SessionEnd == nil {
		return 0, false
	}
	return c.SessionEnd.Sub(c.Time), true
}
