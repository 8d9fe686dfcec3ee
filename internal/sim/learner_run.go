package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/des"
	"github.com/abhisek/motivsim/internal/learner"
	"github.com/abhisek/motivsim/internal/logger"
	"github.com/abhisek/motivsim/internal/metrics"
	"github.com/abhisek/motivsim/internal/store"
	"github.com/abhisek/motivsim/internal/tutor"
	"github.com/abhisek/motivsim/internal/turn"
)

// errStopped ends a learner that ran out of turns, sessions or time.
var errStopped = errors.New("learner stopped")

// learnerRun is one (learner, tutor, buffer) triple. Its timeline is
// strictly sequential.
type learnerRun struct {
	learner *learner.Learner
	tutor   *tutor.Tutor
	buf     *Buffer
	log     *logger.Logger
	metrics *metrics.Metrics

	turns int
	err   error
}

// decide builds the turn's context, has the learner choose and perform an
// action, and buffers the decision and action records. The tutor is not
// touched.
func (lr *learnerRun) decide(ctx context.Context, now time.Time, sessionEnd *time.Time) (action.Action, error) {
	tc, err := turn.Build(lr.tutor, lr.learner, now, sessionEnd)
	if err != nil {
		return action.Action{}, err
	}
	k, dec := lr.learner.ChooseAction(tc)
	lr.metrics.Decision(k.String())
	if err := lr.buf.AddDecision(ctx, dec); err != nil {
		return action.Action{}, err
	}

	a, err := lr.learner.PerformAction(k, tc)
	if err != nil {
		return action.Action{}, err
	}
	lr.turns++
	lr.metrics.Action(k.String(), a.Duration)
	err = lr.buf.AddAction(ctx, store.ActionData{
		ID:         uuid.NewString(),
		StudentID:  lr.learner.ID,
		DecisionID: dec.ID,
		Time:       now,
		Kind:       a.Kind,
		Duration:   a.Duration,
		Correct:    a.Correct,
	})
	return a, err
}

// apply hands a finished action to the tutor at time at. OffTask never
// reaches the tutor's input handler; it is logged as an idle transaction.
func (lr *learnerRun) apply(ctx context.Context, a action.Action, at time.Time, sessionID string) error {
	var tx *store.TransactionData
	if a.Kind == action.OffTask {
		idle := lr.tutor.RecordIdle(a, at)
		tx = &idle
	} else {
		fb, input, err := lr.tutor.ProcessInput(a, at)
		if err != nil {
			return fmt.Errorf("tutor input %s: %w", a.Kind, err)
		}
		lr.learner.ProcessFeedback(fb)
		tx = input
	}
	if tx == nil {
		return nil
	}
	return lr.logTransaction(ctx, *tx, sessionID)
}

// interrupted logs an action cut short by the end of a session. On-task
// work becomes a FailedAttempt lasting until the cut; the tutor is untouched.
func (lr *learnerRun) interrupted(ctx context.Context, a action.Action, started, at time.Time, sessionID string) error {
	idle := action.Action{Kind: a.Kind, Duration: at.Sub(started)}
	if a.Kind.OnTask() {
		idle.Kind = action.FailedAttempt
	}
	return lr.logTransaction(ctx, lr.tutor.RecordIdle(idle, at), sessionID)
}

func (lr *learnerRun) logTransaction(ctx context.Context, tx store.TransactionData, sessionID string) error {
	tx.SessionID = sessionID
	if tx.Kind == store.TxTutorInput || tx.Kind == store.TxIdle {
		lr.metrics.TutorInput(tx.Action.String(), tx.Outcome, tx.PLt != tx.PLt1)
	}
	return lr.buf.AddTransaction(ctx, tx)
}

// finish records err as the learner's outcome and logs it.
func (lr *learnerRun) finish(err error) {
	lr.err = err
	res := lr.result()
	lr.metrics.LearnerFinished(string(res.Status))
	if res.Status == StatusFailed {
		lr.log.Error("learner failed", "error", err, "turns", lr.turns)
		return
	}
	lr.log.Info("learner finished",
		"status", string(res.Status),
		"turns", lr.turns,
		"mastered", res.Mastered,
		"steps", res.Progress.StepsCompleted)
}

func (lr *learnerRun) result() LearnerResult {
	res := LearnerResult{
		StudentID: lr.learner.ID,
		TutorID:   lr.tutor.ID,
		Turns:     lr.turns,
		Progress:  lr.tutor.Progress(),
		State:     lr.learner.State(),
		Err:       lr.err,
	}
	for _, p := range lr.tutor.MasterySnapshot() {
		if p >= lr.tutor.Threshold() {
			res.Mastered++
		}
	}
	switch {
	case lr.err != nil && !errors.Is(lr.err, errStopped) && !errors.Is(lr.err, des.ErrKilled):
		res.Status = StatusFailed
	case !lr.tutor.HasMore():
		res.Status = StatusCompleted
		res.Err = nil
	default:
		res.Status = StatusStopped
		res.Err = nil
	}
	return res
}
