package learner

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/turn"
)

// baseSelfEfficacy is the attempt expectancy before hints when no
// self-efficacy construct is present.
const baseSelfEfficacy = 0.5

// guessExpectancy is the fixed expectancy of a guess paying off.
const guessExpectancy = 0.1

// Estimate is one action's expectancy-value score and its choice probability.
type Estimate struct {
	Kind       action.Kind
	Expectancy float64
	Value      float64
	EV         float64
	Prob       float64
}

// Diagnostics explains a decision.
type Diagnostics struct {
	Options      []Estimate
	SelfEfficacy *float64
}

// Decider picks one of the legal actions for a turn.
type Decider interface {
	Choose(acts []action.Kind, st State, ctx turn.Context) (action.Kind, Diagnostics)
	// StartWorking returns how long the learner waits before starting work in
	// a session of length maxWait. The result is always within [0, maxWait].
	StartWorking(maxWait time.Duration) time.Duration
	Spec() DeciderSpec
}

// Values weighs how rewarding each action is.
type Values struct {
	Attempt  float64 `json:"attempt" yaml:"attempt"`
	Guess    float64 `json:"guess" yaml:"guess"`
	Hint     float64 `json:"hint" yaml:"hint"`
	OffTask  float64 `json:"off_task" yaml:"off_task"`
	StopWork float64 `json:"stop_work" yaml:"stop_work"`
}

// DefaultValues returns the fixed population weights.
func DefaultValues() Values {
	return Values{Attempt: 10, Guess: 2.5, Hint: 3, OffTask: 1, StopWork: 0.2}
}

// RandomValues samples per-learner weights. Guessing is valued a little below
// attempting, and hints near guessing when guessing is cheap.
func RandomValues(r *rand.Rand) Values {
	atv := gaussAbove(r, 10, 1.5, 4)
	gsv := gaussAbove(r, atv-2, 1, 0)
	var hrv float64
	if gsv < 3 {
		hrv = gaussAbove(r, gsv+1, 1, 0.1)
	} else {
		hrv = gaussAbove(r, 3, 1, 0.1)
	}
	return Values{
		Attempt:  atv,
		Guess:    gsv,
		Hint:     hrv,
		OffTask:  gaussAbove(r, 1, 3, 0),
		StopWork: gaussAbove(r, 0.2, 0.1, 0),
	}
}

// StartDelay parameterizes the bounded Gaussian for StartWorking.
type StartDelay struct {
	Mean time.Duration `json:"mean" yaml:"mean"`
	SD   time.Duration `json:"sd" yaml:"sd"`
}

// DefaultStartDelay is the base delay before starting work in a session.
func DefaultStartDelay() StartDelay {
	return StartDelay{Mean: 2 * time.Minute, SD: time.Minute}
}

// EVDecider scores actions as expectancy times value, runs the result through
// its constructs, and samples from the normalized EVs.
type EVDecider struct {
	rng        *rand.Rand
	values     Values
	start      StartDelay
	constructs []Construct
	alwaysAct  action.Kind
}

// NewEVDecider builds a decider. Constructs are applied in stage order
// regardless of the order given.
func NewEVDecider(r *rand.Rand, values Values, start StartDelay, constructs ...Construct) *EVDecider {
	cs := slices.Clone(constructs)
	slices.SortStableFunc(cs, func(a, b Construct) int { return int(a.Stage()) - int(b.Stage()) })
	return &EVDecider{rng: r, values: values, start: start, constructs: cs}
}

// NewDomainTuner scores actions like an EVDecider but always attempts.
// It is used to calibrate domains against a known behaviour.
func NewDomainTuner(r *rand.Rand, values Values, start StartDelay) *EVDecider {
	d := NewEVDecider(r, values, start)
	d.alwaysAct = action.Attempt
	return d
}

// Values returns the decider's value weights.
func (d *EVDecider) Values() Values { return d.values }

// Constructs returns the constructs in application order.
func (d *EVDecider) Constructs() []Construct { return slices.Clone(d.constructs) }

func (d *EVDecider) Choose(acts []action.Kind, st State, ctx turn.Context) (action.Kind, Diagnostics) {
	est := d.Score(acts, st, ctx)
	normalize(est)

	diag := Diagnostics{Options: est}
	for _, c := range d.constructs {
		if se, ok := c.(*SelfEfficacy); ok {
			v := se.Current(st)
			diag.SelfEfficacy = &v
		}
	}
	if d.alwaysAct != 0 {
		return d.alwaysAct, diag
	}
	return sample(d.rng, est), diag
}

// Score computes the expectancy-value breakdown for each legal action.
func (d *EVDecider) Score(acts []action.Kind, st State, ctx turn.Context) []Estimate {
	est := make([]Estimate, len(acts))
	for i, k := range acts {
		e := Estimate{
			Kind:       k,
			Expectancy: expectancy(k, ctx, baseSelfEfficacy),
			Value:      d.value(k, ctx),
		}
		e.EV = e.Expectancy * e.Value
		est[i] = e
	}
	for _, c := range d.constructs {
		for i := range est {
			c.Apply(&est[i], st, ctx)
		}
	}
	return est
}

func (d *EVDecider) StartWorking(maxWait time.Duration) time.Duration {
	mean, sd := d.start.Mean.Seconds(), d.start.SD.Seconds()
	for _, c := range d.constructs {
		mean, sd = c.AdjustStart(mean, sd)
	}
	return seconds(boundedGauss(d.rng, mean, sd, 0, maxWait.Seconds()))
}

func (d *EVDecider) Spec() DeciderSpec {
	spec := DeciderSpec{Kind: DeciderEV, Values: d.values, Start: d.start}
	if d.alwaysAct != 0 {
		spec.Kind = DeciderDomainTuner
	}
	for _, c := range d.constructs {
		spec.Constructs = append(spec.Constructs, c.Spec())
	}
	return spec
}

func expectancy(k action.Kind, ctx turn.Context, selfEff float64) float64 {
	switch k {
	case action.Attempt:
		return selfEff + (1-selfEff)*ctx.HintFraction()
	case action.Guess:
		return guessExpectancy
	case action.HintRequest:
		if ctx.HintsAvail == 0 {
			return 0
		}
		return 1
	case action.OffTask, action.StopWork:
		return 1
	default:
		return 0
	}
}

// knows reports whether the learner believes they know the current KC.
func knows(ctx turn.Context) bool {
	return ctx.LearnerKnowledge >= 0.5
}

func (d *EVDecider) value(k action.Kind, ctx turn.Context) float64 {
	switch k {
	case action.Attempt:
		return d.values.Attempt
	case action.Guess:
		if knows(ctx) {
			return d.values.Guess
		}
		return 2 * d.values.Guess
	case action.HintRequest:
		if knows(ctx) {
			return 0.25 * d.values.Hint
		}
		total := ctx.HintsUsed + ctx.HintsAvail
		if total == 0 {
			return 0
		}
		return d.values.Hint * float64(ctx.HintsAvail) / float64(total)
	case action.OffTask:
		return d.values.OffTask
	case action.StopWork:
		return d.values.StopWork
	default:
		return 0
	}
}

// normalize fills Prob from EV. Positive EVs are used as weights and
// non-positive ones get zero. When no EV is positive, weights are ev-(min+max),
// which favours the EV closest to zero; if those are all zero too the
// distribution is uniform.
func normalize(est []Estimate) {
	if len(est) == 0 {
		return
	}
	w := make([]float64, len(est))
	anyPositive := false
	for _, e := range est {
		if e.EV > 0 {
			anyPositive = true
			break
		}
	}
	if anyPositive {
		for i, e := range est {
			w[i] = max(e.EV, 0)
		}
	} else {
		lo, hi := est[0].EV, est[0].EV
		for _, e := range est[1:] {
			lo, hi = min(lo, e.EV), max(hi, e.EV)
		}
		for i, e := range est {
			w[i] = e.EV - (lo + hi)
		}
	}

	var total float64
	for _, x := range w {
		total += x
	}
	for i := range est {
		if total > 0 {
			est[i].Prob = w[i] / total
		} else {
			est[i].Prob = 1 / float64(len(est))
		}
	}
}

// sample draws an action from the normalized estimates.
func sample(r *rand.Rand, est []Estimate) action.Kind {
	u := r.Float64()
	var acc float64
	for _, e := range est {
		acc += e.Prob
		if u < acc {
			return e.Kind
		}
	}
	// Rounding can leave acc just under 1; fall back to the last positive option.
	for i := len(est) - 1; i >= 0; i-- {
		if est[i].Prob > 0 {
			return est[i].Kind
		}
	}
	return est[len(est)-1].Kind
}
