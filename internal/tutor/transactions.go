package tutor

import (
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/domain"
	"github.com/abhisek/motivsim/internal/store"
	"github.com/google/uuid"
)

// Login records the start of a class session and resets the duration clock.
func (t *Tutor) Login(sessionID string, at time.Time) store.TransactionData {
	t.state.LastTxTime = at
	return store.TransactionData{
		ID:        uuid.NewString(),
		Kind:      store.TxSessionStart,
		Time:      at,
		StudentID: t.StudentID,
		TutorID:   t.ID,
		SessionID: sessionID,
	}
}

// Logout records the end of a class session.
func (t *Tutor) Logout(sessionID string, at time.Time) store.TransactionData {
	return store.TransactionData{
		ID:        uuid.NewString(),
		Kind:      store.TxSessionEnd,
		Time:      at,
		StudentID: t.StudentID,
		TutorID:   t.ID,
		SessionID: sessionID,
	}
}

// RecordIdle builds the transaction for an input the tutor does not process,
// such as OffTask or an attempt cut short by the end of a session. The tutor
// state is not modified.
func (t *Tutor) RecordIdle(a action.Action, at time.Time) store.TransactionData {
	tx := store.TransactionData{
		ID:           uuid.NewString(),
		Kind:         store.TxIdle,
		Time:         at,
		StudentID:    t.StudentID,
		TutorID:      t.ID,
		CurriculumID: t.curric.ID,
		Action:       a.Kind,
		Outcome:      a.Outcome(),
		Duration:     a.Duration,
		HintsUsed:    t.state.HintsUsed,
		HintsAvail:   t.state.HintsAvail,
		Attempt:      t.state.Attempt,
	}
	t.fillLocation(&tx)
	if kc, err := t.CurrentKC(); err == nil {
		tx.KC = snapshotKC(kc)
		tx.PLt = t.mastery.Get(kc.ID)
		tx.PLt1 = tx.PLt
	}
	return tx
}

// logInput captures the step and counters as they were when the input arrived.
func (t *Tutor) logInput(at time.Time, a action.Action, kc *domain.KC, plt, plt1 float64) *store.TransactionData {
	var dur time.Duration
	if !t.state.LastTxTime.IsZero() {
		dur = at.Sub(t.state.LastTxTime)
	}
	tx := &store.TransactionData{
		ID:           uuid.NewString(),
		Kind:         store.TxTutorInput,
		Time:         at,
		StudentID:    t.StudentID,
		TutorID:      t.ID,
		CurriculumID: t.curric.ID,
		Action:       a.Kind,
		Outcome:      a.Outcome(),
		Duration:     dur,
		KC:           snapshotKC(kc),
		PLt:          plt,
		PLt1:         plt1,
		HintsUsed:    t.state.HintsUsed,
		HintsAvail:   t.state.HintsAvail,
		Attempt:      t.state.Attempt,
	}
	t.fillLocation(tx)
	t.state.LastTxTime = at
	return tx
}

func (t *Tutor) fillLocation(tx *store.TransactionData) {
	if s := t.state; s.Step != nil {
		tx.UnitID = s.Unit.ID
		tx.SectionID = s.Section.ID
		tx.ProblemID = s.Problem.ID
		tx.StepID = s.Step.ID
	}
}

func snapshotKC(kc *domain.KC) *domain.KC {
	c := *kc
	return &c
}
