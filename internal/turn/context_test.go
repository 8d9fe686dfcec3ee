package turn

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/curriculum/curriculumtest"
	"github.com/abhisek/motivsim/internal/tutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLearner struct {
	offTask bool
	skills  map[string]float64
}

func (f fakeLearner) OffTask() bool { return f.offTask }
func (f fakeLearner) Knowledge(kcID string) float64 { return f.skills[kcID] }

var now = time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)

func TestBuild(t *testing.T) {
	c := curriculumtest.Single(t, 0.4, 3)
	tut, err := tutor.New(c, "s", tutor.WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)

	end := now.Add(time.Hour)
	ctx, err := Build(tut, fakeLearner{skills: map[string]float64{"k": 1}}, now, &end)
	require.NoError(t, err)

	assert.Equal(t, "k", ctx.KC.ID)
	assert.Equal(t, tut.State().Step.KC, ctx.KC.ID)
	assert.Equal(t, "u0s0p0", ctx.ProblemID)
	assert.Equal(t, "u0s0p0t0", ctx.StepID)
	assert.Equal(t, 3, ctx.HintsAvail)
	assert.Equal(t, 0, ctx.HintsUsed)
	assert.Equal(t, 0, ctx.Attempt)
	assert.Equal(t, 1.0, ctx.LearnerKnowledge)
	assert.False(t, ctx.LearnerOffTask)
	require.NotNil(t, ctx.SessionEnd)

	// The context keeps its own copy of the session end.
	end = end.Add(time.Hour)
	assert.Equal(t, now.Add(time.Hour), *ctx.SessionEnd)

	rem, bounded := ctx.Remaining()
	assert.True(t, bounded)
	assert.Equal(t, time.Hour, rem)
}

func TestBuild_DoneTutor(t *testing.T) {
	c := curriculumtest.Single(t, 0.4, 0)
	tut, err := tutor.New(c, "s")
	require.NoError(t, err)
	_, _, err = tut.ProcessInput(action.Action{Kind: action.Attempt, Correct: true}, now)
	require.NoError(t, err)
	require.False(t, tut.HasMore())

	// The last step stays current, so a context can still be built.
	_, err = Build(tut, fakeLearner{}, now, nil)
	assert.NoError(t, err)
}

func TestActions(t *testing.T) {
	end := now.Add(time.Hour)
	tests := []struct {
		name string
		ctx  Context
		want []action.Kind
	}{
		{
			name: "everything legal",
			ctx:  Context{HintsAvail: 1, SessionEnd: &end},
			want: []action.Kind{action.Attempt, action.Guess, action.HintRequest, action.OffTask, action.StopWork},
		},
		{
			name: "no hints left",
			ctx:  Context{HintsAvail: 0, HintsUsed: 2},
			want: []action.Kind{action.Attempt, action.Guess, action.OffTask},
		},
		{
			name: "already off task",
			ctx:  Context{HintsAvail: 2, LearnerOffTask: true},
			want: []action.Kind{action.Attempt, action.Guess, action.HintRequest},
		},
		{
			name: "minimal",
			ctx:  Context{LearnerOffTask: true},
			want: []action.Kind{action.Attempt, action.Guess},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ctx.Actions())
		})
	}
}

func TestLegal(t *testing.T) {
	ctx := Context{HintsAvail: 0, LearnerOffTask: true}
	assert.True(t, ctx.Legal(action.Attempt))
	assert.False(t, ctx.Legal(action.HintRequest))
	assert.False(t, ctx.Legal(action.OffTask))
	assert.False(t, ctx.Legal(action.StopWork))
}

func TestHintFraction(t *testing.T) {
	assert.Equal(t, 0.0, Context{}.HintFraction())
	assert.Equal(t, 0.25, Context{HintsUsed: 1, HintsAvail: 3}.HintFraction())
	assert.Equal(t, 1.0, Context{HintsUsed: 2}.HintFraction())
}
