package learner

import (
	"fmt"
	"math/rand/v2"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/turn"
)

// Stage orders constructs within a decider's pipeline.
type Stage int

const (
	// StageExpectancy constructs rewrite expectancies.
	StageExpectancy Stage = 10
	// StageValue constructs rewrite values.
	StageValue Stage = 20
	// StageEV constructs scale the final EV.
	StageEV Stage = 30
)

// Construct is a motivational trait layered over the base expectancy-value
// scoring. Constructs never see each other; the decider runs them in stage order.
type Construct interface {
	Stage() Stage
	Apply(e *Estimate, st State, ctx turn.Context)
	// AdjustStart modulates the start-of-session delay distribution (seconds).
	AdjustStart(mean, sd float64) (float64, float64)
	Spec() ConstructSpec
}

// Diligence scales effortful actions up and avoidant ones down by a
// per-learner factor. A factor below 1 reverses the effect.
type Diligence struct {
	Factor float64
}

// NewDiligence validates the factor.
func NewDiligence(factor float64) (*Diligence, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("diligence factor %v must be positive", factor)
	}
	return &Diligence{Factor: factor}, nil
}

// RandomDiligence draws a factor from N(mean, sd), floored at 0.1.
func RandomDiligence(r *rand.Rand, mean, sd float64) *Diligence {
	f := gauss(r, mean, sd)
	if f <= 0 {
		f = 0.1
	}
	return &Diligence{Factor: f}
}

func (d *Diligence) Stage() Stage { return StageEV }

func (d *Diligence) Apply(e *Estimate, _ State, _ turn.Context) {
	switch {
	case e.Kind.Diligent():
		e.EV *= d.Factor
	case e.Kind.Undiligent():
		e.EV /= d.Factor
	case e.Kind == action.StopWork:
		// Past a factor of 2, stopping becomes actively unattractive.
		e.EV *= 2 - d.Factor
	}
}

func (d *Diligence) AdjustStart(mean, sd float64) (float64, float64) {
	return mean / d.Factor, sd
}

func (d *Diligence) Spec() ConstructSpec {
	return ConstructSpec{Kind: ConstructDiligence, Param: d.Factor}
}

// selfEffPrior is how many prior attempts the initial self-efficacy is worth.
const selfEffPrior = 1000

// SelfEfficacy replaces the fixed attempt expectancy with a running success
// rate seeded by a prior worth selfEffPrior attempts.
type SelfEfficacy struct {
	Initial float64
}

// NewSelfEfficacy clamps the initial value into [0.01, 0.99].
func NewSelfEfficacy(initial float64) *SelfEfficacy {
	return &SelfEfficacy{Initial: clamp(initial, 0.01, 0.99)}
}

// RandomSelfEfficacy draws the initial value from N(0.5, 0.15).
func RandomSelfEfficacy(r *rand.Rand) *SelfEfficacy {
	return NewSelfEfficacy(gauss(r, 0.5, 0.15))
}

// Current returns self-efficacy given the learner's attempt history.
func (s *SelfEfficacy) Current(st State) float64 {
	return (s.Initial*selfEffPrior + float64(st.TotalSuccess)) / float64(selfEffPrior+st.TotalAttempts)
}

func (s *SelfEfficacy) Stage() Stage { return StageExpectancy }

func (s *SelfEfficacy) Apply(e *Estimate, st State, ctx turn.Context) {
	if e.Kind != action.Attempt {
		return
	}
	e.Expectancy = expectancy(action.Attempt, ctx, s.Current(st))
	e.EV = e.Expectancy * e.Value
}

func (s *SelfEfficacy) AdjustStart(mean, sd float64) (float64, float64) {
	return mean * (1.5 - s.Initial), sd
}

func (s *SelfEfficacy) Spec() ConstructSpec {
	return ConstructSpec{Kind: ConstructSelfEfficacy, Param: s.Initial}
}

// Interest raises the value of working on the material and lowers the pull
// of going off task.
type Interest struct {
	Level float64
}

// NewInterest validates the level.
func NewInterest(level float64) (*Interest, error) {
	if level <= 0 {
		return nil, fmt.Errorf("interest level %v must be positive", level)
	}
	return &Interest{Level: level}, nil
}

// RandomInterest draws a level from N(1, 0.3) above 0.1.
func RandomInterest(r *rand.Rand) *Interest {
	return &Interest{Level: gaussAbove(r, 1, 0.3, 0.1)}
}

func (in *Interest) Stage() Stage { return StageValue }

func (in *Interest) Apply(e *Estimate, _ State, _ turn.Context) {
	switch e.Kind {
	case action.Attempt, action.HintRequest:
		e.Value *= in.Level
	case action.OffTask, action.StopWork:
		e.Value /= in.Level
	default:
		return
	}
	e.EV = e.Expectancy * e.Value
}

func (in *Interest) AdjustStart(mean, sd float64) (float64, float64) {
	return mean / in.Level, sd
}

func (in *Interest) Spec() ConstructSpec {
	return ConstructSpec{Kind: ConstructInterest, Param: in.Level}
}
