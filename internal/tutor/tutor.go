// Package tutor implements a mastery-learning tutor: it tracks per-KC BKT
// estimates, sequences units, sections, problems and steps, and emits
// transaction records for every graded input.
package tutor

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/abhisek/motivsim/internal/curriculum"
	"github.com/abhisek/motivsim/internal/domain"
	"github.com/abhisek/motivsim/internal/logger"
	"github.com/abhisek/motivsim/internal/mastery"
	"github.com/google/uuid"
)

// ErrExhausted is the parent of every "nothing left at this scope" signal.
// These are ordinary control flow; the tutor cascades through them.
var ErrExhausted = errors.New("content exhausted")

var (
	ErrNoMoreUnits     = fmt.Errorf("%w: no more units", ErrExhausted)
	ErrNoMoreSections  = fmt.Errorf("%w: no more sections in unit", ErrExhausted)
	ErrNoMoreProblems  = fmt.Errorf("%w: no more problems in section", ErrExhausted)
	ErrSectionMastered = fmt.Errorf("%w: all section kcs mastered", ErrExhausted)
	ErrNoMoreSteps     = fmt.Errorf("%w: no more steps in problem", ErrExhausted)
)

var (
	// ErrNotStarted means an operation needed a current unit, section, problem or step.
	ErrNotStarted = errors.New("tutor has no active content")
	// ErrFinished means input arrived after the curriculum was exhausted.
	ErrFinished = errors.New("tutor has no more content")
	// ErrUnknownAction means the input kind is not one the tutor processes.
	ErrUnknownAction = errors.New("unknown action")
)

// HintPolicy controls what happens when a step's last hint is consumed.
type HintPolicy string

const (
	// HintContinue leaves the learner on the step; hints simply stop being offered.
	HintContinue HintPolicy = "continue"
	// HintAdvance treats the last hint as a bottom-out hint that completes the step.
	HintAdvance HintPolicy = "advance"
)

// State is the tutor's position in the curriculum and its per-step counters.
type State struct {
	Unit       *curriculum.Unit
	Section    *curriculum.Section
	Problem    *curriculum.Problem
	Step       *curriculum.Step
	HintsAvail int
	HintsUsed  int
	Attempt    int
	LastTxTime time.Time
	Done       bool
}

// Progress counts how much content the tutor has visited.
type Progress struct {
	Units          int
	Sections       int
	Problems       int
	StepsCompleted int
}

// Tutor is the mastery state machine for one (curriculum, student) pair.
// It is not safe for concurrent use.
type Tutor struct {
	ID        string
	StudentID string

	curric    *curriculum.Curriculum
	mastery   *mastery.Model
	threshold float64
	policy    HintPolicy
	rng       *rand.Rand
	log       *logger.Logger

	state     State
	completed completion
}

// Option configures a Tutor.
type Option func(*Tutor)

// WithThreshold sets the mastery threshold (default mastery.DefaultThreshold).
func WithThreshold(thres float64) Option {
	return func(t *Tutor) { t.threshold = thres }
}

// WithHintPolicy sets the hint exhaustion policy (default HintContinue).
func WithHintPolicy(p HintPolicy) Option {
	return func(t *Tutor) { t.policy = p }
}

// WithRand sets the source used for KC and problem selection.
func WithRand(r *rand.Rand) Option {
	return func(t *Tutor) { t.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(t *Tutor) { t.log = l }
}

// WithID overrides the generated tutor ID.
func WithID(id string) Option {
	return func(t *Tutor) { t.ID = id }
}

// New creates a tutor for studentID and selects the first step.
// A curriculum with nothing to practice yields a tutor that is already done.
func New(curric *curriculum.Curriculum, studentID string, opts ...Option) (*Tutor, error) {
	t := &Tutor{
		ID:        uuid.NewString(),
		StudentID: studentID,
		curric:    curric,
		threshold: mastery.DefaultThreshold,
		policy:    HintContinue,
		completed: completion{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if t.log == nil {
		t.log = logger.Nop()
	}
	if t.threshold <= 0 || t.threshold > 1 {
		return nil, fmt.Errorf("mastery threshold %v not in (0,1]", t.threshold)
	}
	switch t.policy {
	case HintContinue, HintAdvance:
	default:
		return nil, fmt.Errorf("unknown hint policy %q", t.policy)
	}
	t.mastery = mastery.NewModel(curric.Domain(), t.threshold)

	if err := t.SetNextUnit(); err != nil {
		if !errors.Is(err, ErrExhausted) {
			return nil, fmt.Errorf("start tutor: %w", err)
		}
		t.log.Warn("curriculum has nothing to practice", "tutor_id", t.ID, "error", err)
		t.state.Done = true
	}
	return t, nil
}

// HasMore reports whether practice remains.
func (t *Tutor) HasMore() bool { return !t.state.Done }

// State returns a copy of the tutor's position and counters.
func (t *Tutor) State() State { return t.state }

// Curriculum returns the curriculum being sequenced.
func (t *Tutor) Curriculum() *curriculum.Curriculum { return t.curric }

// Threshold returns the mastery threshold.
func (t *Tutor) Threshold() float64 { return t.threshold }

// Mastery returns the tutor's current estimate for a KC.
func (t *Tutor) Mastery(kcID string) float64 { return t.mastery.Get(kcID) }

// MasterySnapshot returns a copy of every KC estimate.
func (t *Tutor) MasterySnapshot() map[string]float64 { return t.mastery.Snapshot() }

// CurrentKC returns the KC of the active step.
func (t *Tutor) CurrentKC() (*domain.KC, error) {
	if t.state.Step == nil {
		return nil, ErrNotStarted
	}
	kc, ok := t.curric.KC(t.state.Step.KC)
	if !ok {
		return nil, fmt.Errorf("step %s references unknown kc %s", t.state.Step.ID, t.state.Step.KC)
	}
	return kc, nil
}

// Progress reports how many units, sections and problems have been entered
// and how many steps have been completed.
func (t *Tutor) Progress() Progress {
	return t.completed.progress()
}

// StepCompleted reports whether the given step has been finished.
func (t *Tutor) StepCompleted(unitID, sectionID, problemID, stepID string) bool {
	return t.completed[unitID][sectionID][problemID][stepID]
}

// completion is unit -> section -> problem -> step -> finished.
// A key's presence means the node has been entered.
type completion map[string]map[string]map[string]map[string]bool

func (c completion) progress() Progress {
	var p Progress
	for _, sections := range c {
		p.Units++
		for _, problems := range sections {
			p.Sections++
			for _, steps := range problems {
				p.Problems++
				for _, done := range steps {
					if done {
						p.StepsCompleted++
					}
				}
			}
		}
	}
	return p
}
