package tutor

import (
	"fmt"
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/domain"
	"github.com/abhisek/motivsim/internal/store"
)

// ProcessInput applies a learner action at the given time.
//
// Attempts and guesses are graded and may advance the state machine. Hint
// requests count as incorrect evidence and never advance under HintContinue.
// OffTask and FailedAttempt change nothing and return zero feedback and a nil
// transaction.
func (t *Tutor) ProcessInput(a action.Action, at time.Time) (action.Feedback, *store.TransactionData, error) {
	switch a.Kind {
	case action.Attempt, action.Guess, action.HintRequest:
	case action.OffTask, action.FailedAttempt:
		return action.Feedback{}, nil, nil
	default:
		return action.Feedback{}, nil, fmt.Errorf("process %v: %w", a.Kind, ErrUnknownAction)
	}
	if t.state.Done {
		return action.Feedback{}, nil, ErrFinished
	}
	kc, err := t.CurrentKC()
	if err != nil {
		return action.Feedback{}, nil, fmt.Errorf("process %v: %w", a.Kind, err)
	}
	if a.Kind == action.HintRequest {
		return t.processHint(a, kc, at)
	}
	return t.processAttempt(a, kc, at)
}

func (t *Tutor) processAttempt(a action.Action, kc *domain.KC, at time.Time) (action.Feedback, *store.TransactionData, error) {
	plt, plt1, err := t.evidence(kc, a.Correct)
	if err != nil {
		return action.Feedback{}, nil, err
	}
	tx := t.logInput(at, a, kc, plt, plt1)
	t.state.Attempt++

	if a.Correct {
		if err := t.updateState(); err != nil {
			return action.Feedback{}, tx, fmt.Errorf("advance after correct attempt: %w", err)
		}
	}
	return action.Feedback{Attempt: &action.AttemptResponse{Kind: a.Kind, Correct: a.Correct}}, tx, nil
}

func (t *Tutor) processHint(a action.Action, kc *domain.KC, at time.Time) (action.Feedback, *store.TransactionData, error) {
	plt, plt1, err := t.evidence(kc, false)
	if err != nil {
		return action.Feedback{}, nil, err
	}
	tx := t.logInput(at, a, kc, plt, plt1)
	t.state.Attempt++

	consumed := false
	if t.state.HintsAvail > 0 {
		t.state.HintsUsed++
		t.state.HintsAvail--
		consumed = true
	} else {
		t.log.Debug("hint requested with none left", "tutor_id", t.ID, "step_id", t.state.Step.ID)
	}
	fb := action.Feedback{Hint: &action.HintResponse{
		HintNum:   t.state.HintsUsed,
		Remaining: t.state.HintsAvail,
		Text:      fmt.Sprintf("Hint #%d", t.state.HintsUsed),
	}}

	if consumed && t.state.HintsAvail == 0 && t.policy == HintAdvance {
		if err := t.updateState(); err != nil {
			return fb, tx, fmt.Errorf("advance after bottom-out hint: %w", err)
		}
	}
	return fb, tx, nil
}

// evidence applies the BKT update on the first input of a step only and
// returns the estimate before and after.
func (t *Tutor) evidence(kc *domain.KC, correct bool) (before, after float64, err error) {
	before = t.mastery.Get(kc.ID)
	if t.state.Attempt != 0 {
		return before, before, nil
	}
	ch, err := t.mastery.Update(kc, correct)
	if err != nil {
		return before, before, fmt.Errorf("update skill %s: %w", kc.ID, err)
	}
	if ch.Applied {
		t.log.Debug("mastery updated", "tutor_id", t.ID, "kc", kc.ID, "correct", correct,
			"plt", ch.Before, "plt1", ch.After)
	}
	return ch.Before, ch.After, nil
}
