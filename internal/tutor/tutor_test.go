package tutor

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/curriculum"
	"github.com/abhisek/motivsim/internal/curriculum/curriculumtest"
	"github.com/abhisek/motivsim/internal/domain"
	"github.com/abhisek/motivsim/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)

func newTutor(t *testing.T, c *curriculum.Curriculum, seed uint64, opts ...Option) *Tutor {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(seed, seed+1)))}, opts...)
	tut, err := New(c, "student-1", opts...)
	require.NoError(t, err)
	return tut
}

func attempt(correct bool) action.Action {
	return action.Action{Kind: action.Attempt, Duration: 10 * time.Second, Correct: correct}
}

func TestNew_SelectsFirstStep(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 2)
	tut := newTutor(t, c, 1)

	s := tut.State()
	require.NotNil(t, s.Step)
	assert.Equal(t, "u0s0p0t0", s.Step.ID)
	assert.Equal(t, 2, s.HintsAvail)
	assert.Equal(t, 0, s.HintsUsed)
	assert.Equal(t, 0, s.Attempt)
	assert.True(t, tut.HasMore())
	assert.InDelta(t, 0.5, tut.Mastery("k"), 1e-12)
}

func TestNew_EmptyCurriculumIsDone(t *testing.T) {
	c := curriculumtest.Build(t, []*domain.KC{curriculumtest.KC("k", 0.5)}, curriculumtest.Layout{})
	tut := newTutor(t, c, 1)
	assert.False(t, tut.HasMore())

	_, _, err := tut.ProcessInput(attempt(true), t0)
	assert.ErrorIs(t, err, ErrFinished)
}

func TestNew_RejectsBadOptions(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 0)
	_, err := New(c, "s", WithThreshold(0))
	assert.Error(t, err)
	_, err = New(c, "s", WithHintPolicy("skip"))
	assert.Error(t, err)
}

// A learner that always attempts correctly on a one-of-everything curriculum
// finishes after exactly one unit, section and problem, whatever the seed.
func TestSingleCurriculumCompletesDeterministically(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		c := curriculumtest.Single(t, 0.5, 1)
		tut := newTutor(t, c, seed)

		fb, tx, err := tut.ProcessInput(attempt(true), t0.Add(time.Minute))
		require.NoError(t, err)
		require.NotNil(t, fb.Attempt)
		assert.True(t, fb.Attempt.Correct)
		require.NotNil(t, tx)

		assert.False(t, tut.HasMore(), "seed %d", seed)
		assert.Equal(t, Progress{Units: 1, Sections: 1, Problems: 1, StepsCompleted: 1}, tut.Progress())
		assert.True(t, tut.StepCompleted("u0", "u0s0", "u0s0p0", "u0s0p0t0"))
	}
}

func TestProcessAttempt_BKTScenario(t *testing.T) {
	tests := []struct {
		name    string
		correct bool
		want    float64
	}{
		{"correct", true, 0.8},
		{"incorrect", false, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := curriculumtest.Build(t, []*domain.KC{curriculumtest.KC("k", 0.5)}, curriculumtest.Layout{
				Units: [][][][]string{{{{"k", "k"}}}},
			})
			tut := newTutor(t, c, 3)
			_, tx, err := tut.ProcessInput(attempt(tt.correct), t0)
			require.NoError(t, err)
			assert.InDelta(t, 0.5, tx.PLt, 1e-12)
			assert.InDelta(t, tt.want, tx.PLt1, 1e-12)
			assert.InDelta(t, tt.want, tut.Mastery("k"), 1e-12)
		})
	}
}

func TestProcessAttempt_FirstAttemptOnly(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 0)
	tut := newTutor(t, c, 1)

	_, tx1, err := tut.ProcessInput(attempt(false), t0)
	require.NoError(t, err)
	after := tut.Mastery("k")
	assert.InDelta(t, 0.3, after, 1e-12)
	assert.Equal(t, 0, tx1.Attempt)

	_, tx2, err := tut.ProcessInput(attempt(false), t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, after, tut.Mastery("k"))
	assert.Equal(t, 1, tx2.Attempt)
	assert.Equal(t, tx2.PLt, tx2.PLt1)
	assert.Equal(t, 2, tut.State().Attempt)
	assert.True(t, tut.HasMore())
}

func TestProcessHint_BudgetInvariant(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 2)
	tut := newTutor(t, c, 1)
	hint := action.Action{Kind: action.HintRequest, Duration: 5 * time.Second}

	for i := 1; i <= 4; i++ {
		fb, tx, err := tut.ProcessInput(hint, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.NotNil(t, fb.Hint)
		require.NotNil(t, tx)

		s := tut.State()
		assert.Equal(t, 2, s.HintsUsed+s.HintsAvail, "request %d", i)
		assert.LessOrEqual(t, s.HintsUsed, 2)
		assert.Equal(t, i, s.Attempt)
	}
	assert.True(t, tut.HasMore(), "hint exhaustion must not force a transition by default")
}

func TestProcessHint_TransactionRecordsCountsBeforeHint(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 2)
	tut := newTutor(t, c, 1)

	fb, tx, err := tut.ProcessInput(action.Action{Kind: action.HintRequest}, t0)
	require.NoError(t, err)
	assert.Equal(t, 0, tx.HintsUsed)
	assert.Equal(t, 2, tx.HintsAvail)
	assert.Equal(t, "hint", tx.Outcome)
	assert.Equal(t, 1, fb.Hint.HintNum)
	assert.Equal(t, 1, fb.Hint.Remaining)
	assert.Equal(t, "Hint #1", fb.Hint.Text)
	// Hints count as incorrect evidence.
	assert.InDelta(t, 0.3, tx.PLt1, 1e-12)
}

func TestProcessHint_AdvancePolicy(t *testing.T) {
	c := curriculumtest.Build(t, []*domain.KC{curriculumtest.KC("k", 0.5)}, curriculumtest.Layout{
		Hints: 1,
		Units: [][][][]string{{{{"k", "k"}}}},
	})
	tut := newTutor(t, c, 1, WithHintPolicy(HintAdvance))

	_, _, err := tut.ProcessInput(action.Action{Kind: action.HintRequest}, t0)
	require.NoError(t, err)
	s := tut.State()
	assert.Equal(t, "u0s0p0t1", s.Step.ID)
	assert.Equal(t, 0, s.Attempt)
	assert.True(t, tut.StepCompleted("u0", "u0s0", "u0s0p0", "u0s0p0t0"))
}

func TestProcessInput_IgnoredKinds(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 1)
	tut := newTutor(t, c, 1)
	before := tut.State()

	for _, k := range []action.Kind{action.OffTask, action.FailedAttempt} {
		fb, tx, err := tut.ProcessInput(action.Action{Kind: k}, t0)
		require.NoError(t, err)
		assert.True(t, fb.IsZero())
		assert.Nil(t, tx)
	}
	assert.Equal(t, before, tut.State())
	assert.InDelta(t, 0.5, tut.Mastery("k"), 1e-12)
}

func TestProcessInput_UnknownKind(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 1)
	tut := newTutor(t, c, 1)
	for _, k := range []action.Kind{action.StopWork, action.Kind(0), action.Kind(42)} {
		_, _, err := tut.ProcessInput(action.Action{Kind: k}, t0)
		assert.ErrorIs(t, err, ErrUnknownAction, "kind %v", k)
	}
}

func TestSetNext_NotStarted(t *testing.T) {
	tut := &Tutor{completed: completion{}}
	assert.ErrorIs(t, tut.SetNextSection(), ErrNotStarted)
	assert.ErrorIs(t, tut.SetNextProb(), ErrNotStarted)
	assert.ErrorIs(t, tut.SetNextStep(), ErrNotStarted)
	_, err := tut.CurrentKC()
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestExhaustionErrorsShareParent(t *testing.T) {
	for _, err := range []error{ErrNoMoreUnits, ErrNoMoreSections, ErrNoMoreProblems, ErrSectionMastered, ErrNoMoreSteps} {
		assert.True(t, errors.Is(err, ErrExhausted), err.Error())
	}
	assert.False(t, errors.Is(ErrNotStarted, ErrExhausted))
}

func TestMasteredSectionIsSkipped(t *testing.T) {
	kcs := []*domain.KC{curriculumtest.KC("known", 0.95), curriculumtest.KC("new", 0.2)}
	c := curriculumtest.Build(t, kcs, curriculumtest.Layout{
		Units: [][][][]string{{
			{{"known"}, {"known"}},
			{{"new"}},
		}},
	})
	tut := newTutor(t, c, 1)
	assert.Equal(t, "u0s1", tut.State().Section.ID)
	assert.Equal(t, "new", tut.State().Step.KC)
}

func TestMasteredUnitIsSkipped(t *testing.T) {
	kcs := []*domain.KC{curriculumtest.KC("known", 0.95), curriculumtest.KC("new", 0.2)}
	c := curriculumtest.Build(t, kcs, curriculumtest.Layout{
		Units: [][][][]string{
			{{{"known"}}},
			{{{"new"}}},
		},
	})
	tut := newTutor(t, c, 1)
	assert.Equal(t, "u1", tut.State().Unit.ID)
	assert.Equal(t, Progress{Units: 2, Sections: 2, Problems: 1}, tut.Progress())
}

func TestSectionMasteryShortcut(t *testing.T) {
	// pl0 0.8: one correct first attempt reaches 0.938, past 0.9.
	c := curriculumtest.Build(t, []*domain.KC{curriculumtest.KC("k", 0.8)}, curriculumtest.Layout{
		Units: [][][][]string{{{{"k"}, {"k"}, {"k"}}}},
	})
	tut := newTutor(t, c, 5)
	_, _, err := tut.ProcessInput(attempt(true), t0)
	require.NoError(t, err)
	assert.False(t, tut.HasMore())
	assert.Equal(t, 1, tut.Progress().Problems)
}

func TestMasteryFrozenPastThreshold(t *testing.T) {
	c := curriculumtest.Build(t, []*domain.KC{curriculumtest.KC("k", 0.8), curriculumtest.KC("j", 0.1)}, curriculumtest.Layout{
		Units: [][][][]string{{{{"k", "j", "k", "j"}}}},
	})
	tut := newTutor(t, c, 1)
	_, _, err := tut.ProcessInput(attempt(true), t0)
	require.NoError(t, err)
	frozen := tut.Mastery("k")
	require.GreaterOrEqual(t, frozen, 0.9)

	// Step "j", then back on "k": an incorrect first attempt must not regress.
	_, _, err = tut.ProcessInput(attempt(true), t0)
	require.NoError(t, err)
	require.Equal(t, "k", tut.State().Step.KC)
	_, tx, err := tut.ProcessInput(attempt(false), t0)
	require.NoError(t, err)
	assert.Equal(t, frozen, tx.PLt1)
	assert.Equal(t, frozen, tut.Mastery("k"))
}

func TestProblemSelectionTargetsUnmasteredKC(t *testing.T) {
	kcs := []*domain.KC{curriculumtest.KC("a", 0.95), curriculumtest.KC("b", 0.1)}
	c := curriculumtest.Build(t, kcs, curriculumtest.Layout{
		Units: [][][][]string{{{{"a"}, {"a"}, {"b"}, {"a"}}}},
	})
	for seed := uint64(0); seed < 20; seed++ {
		tut := newTutor(t, c, seed)
		assert.Equal(t, "u0s0p2", tut.State().Problem.ID, "seed %d", seed)
	}
}

func TestAlwaysCorrectTerminates(t *testing.T) {
	kcs := []*domain.KC{
		curriculumtest.KC("a", 0.1), curriculumtest.KC("b", 0.3),
		curriculumtest.KC("c", 0.5), curriculumtest.KC("d", 0.05),
	}
	c := curriculumtest.Build(t, kcs, curriculumtest.Layout{
		Hints: 2,
		Units: [][][][]string{
			{{{"a", "b"}, {"b"}, {"a"}, {"a", "b"}}, {{"c"}, {"c", "c"}}},
			{{{"d"}, {"d", "a"}, {"d"}}},
		},
	})
	for seed := uint64(0); seed < 10; seed++ {
		tut := newTutor(t, c, seed)
		left := map[string]bool{}
		checkLeft := func() {
			for _, u := range c.Units() {
				for _, s := range u.Sections {
					if _, entered := tut.completed[u.ID][s.ID]; !entered || left[s.ID] {
						continue
					}
					if tut.HasMore() && tut.State().Section == s {
						continue
					}
					left[s.ID] = true
					assertSectionExhausted(t, tut, u.ID, s, seed)
				}
			}
		}
		checkLeft()
		turns := 0
		for tut.HasMore() {
			_, _, err := tut.ProcessInput(attempt(true), t0.Add(time.Duration(turns)*time.Minute))
			require.NoError(t, err)
			turns++
			require.Less(t, turns, 1000, "tutor did not terminate")
			checkLeft()
		}
		for _, u := range c.Units() {
			for _, s := range u.Sections {
				assert.True(t, left[s.ID], "seed %d: section %s never entered", seed, s.ID)
			}
		}
	}
}

// assertSectionExhausted checks a section the tutor has just left: either all
// its KCs are mastered, or some unmastered KC has no unentered problem left.
func assertSectionExhausted(t *testing.T, tut *Tutor, unitID string, s *curriculum.Section, seed uint64) {
	t.Helper()
	var unmastered []string
	for _, kc := range s.KCs {
		if tut.Mastery(kc) < tut.Threshold() {
			unmastered = append(unmastered, kc)
		}
	}
	if len(unmastered) == 0 {
		return
	}
	entered := tut.completed[unitID][s.ID]
	for _, kc := range unmastered {
		exhausted := true
		for _, p := range s.Problems {
			if _, ok := entered[p.ID]; p.HasKC(kc) && !ok {
				exhausted = false
			}
		}
		if exhausted {
			return
		}
	}
	t.Errorf("seed %d: left section %s with unmastered %v and problems still open", seed, s.ID, unmastered)
}

func TestTransactionDurationAndSessions(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 1)
	tut := newTutor(t, c, 1)

	start := tut.Login("sess-1", t0)
	assert.Equal(t, store.TxSessionStart, start.Kind)
	assert.Equal(t, "sess-1", start.SessionID)
	assert.Equal(t, "student-1", start.StudentID)

	_, tx, err := tut.ProcessInput(attempt(false), t0.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, store.TxTutorInput, tx.Kind)
	assert.Equal(t, 30*time.Second, tx.Duration)
	assert.Equal(t, "incorrect", tx.Outcome)
	assert.Equal(t, "u0s0p0t0", tx.StepID)
	assert.Equal(t, "u0s0p0", tx.ProblemID)
	assert.Equal(t, c.ID, tx.CurriculumID)
	require.NotNil(t, tx.KC)
	assert.Equal(t, "k", tx.KC.ID)

	_, tx, err = tut.ProcessInput(attempt(true), t0.Add(50*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, tx.Duration)

	end := tut.Logout("sess-1", t0.Add(time.Hour))
	assert.Equal(t, store.TxSessionEnd, end.Kind)
}

func TestRecordIdleLeavesStateAlone(t *testing.T) {
	c := curriculumtest.Single(t, 0.5, 1)
	tut := newTutor(t, c, 1)
	tut.Login("s", t0)
	before := tut.State()

	tx := tut.RecordIdle(action.Action{Kind: action.FailedAttempt, Duration: 7 * time.Second}, t0.Add(time.Minute))
	assert.Equal(t, store.TxIdle, tx.Kind)
	assert.Equal(t, action.FailedAttempt, tx.Action)
	assert.Equal(t, "failed_attempt", tx.Outcome)
	assert.Equal(t, 7*time.Second, tx.Duration)
	assert.Equal(t, "u0s0p0t0", tx.StepID)
	assert.Equal(t, tx.PLt, tx.PLt1)
	assert.Equal(t, before, tut.State())
}
