// Package sim drives simulated learners through the tutor, either as a
// plain loop per learner or as processes on a shared simulated clock that
// follows a class schedule.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/motivsim/internal/curriculum"
	"github.com/abhisek/motivsim/internal/learner"
	"github.com/abhisek/motivsim/internal/logger"
	"github.com/abhisek/motivsim/internal/mastery"
	"github.com/abhisek/motivsim/internal/metrics"
	"github.com/abhisek/motivsim/internal/schedule"
	"github.com/abhisek/motivsim/internal/store"
	"github.com/abhisek/motivsim/internal/tutor"
)

// Mode selects how learners are driven.
type Mode string

const (
	// ModeSync runs each learner in a loop that advances its own clock by
	// every action's duration. Learners run in parallel.
	ModeSync Mode = "sync"
	// ModeTimed runs every learner as a process on one simulated clock,
	// working only inside scheduled class sessions.
	ModeTimed Mode = "timed"
)

// DefaultMaxTurns bounds a learner's turns in sync mode.
const DefaultMaxTurns = 100_000

// Config parameterizes a run.
type Config struct {
	Mode        Mode
	Students    int
	Seed        uint64
	Workers     int // sync mode parallelism; <= 0 means one per learner
	Start       time.Time
	MaxTurns    int // per learner in sync mode
	FlushSize   int
	Description string

	Population learner.Population
	Timing     learner.Timing

	Threshold  float64
	HintPolicy tutor.HintPolicy

	// Schedule supplies class sessions in timed mode.
	Schedule schedule.Provider
	// Until stops a timed run at this simulated time (zero = run to the end
	// of the schedule).
	Until time.Time
}

// Status is a learner's final state.
type Status string

const (
	StatusCompleted Status = "completed" // the tutor ran out of content
	StatusStopped   Status = "stopped"   // out of sessions, turns or time
	StatusFailed    Status = "failed"
)

// LearnerResult summarizes one learner's simulation.
type LearnerResult struct {
	StudentID string
	TutorID   string
	Status    Status
	Turns     int
	Mastered  int
	Progress  tutor.Progress
	State     learner.State
	Err       error
}

// Result summarizes a run.
type Result struct {
	BatchID  string
	Mode     Mode
	Learners []LearnerResult
	Elapsed  time.Duration
}

// Count returns how many learners ended with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, lr := range r.Learners {
		if lr.Status == s {
			n++
		}
	}
	return n
}

// Turns returns the total number of learner turns.
func (r *Result) Turns() int {
	n := 0
	for _, lr := range r.Learners {
		n += lr.Turns
	}
	return n
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics sets the run's metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithRegistry overrides the learner module registry.
func WithRegistry(reg *learner.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// Runner simulates a population of learners against one curriculum.
type Runner struct {
	cfg      Config
	curric   *curriculum.Curriculum
	sink     store.Sink
	registry *learner.Registry
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New validates cfg and returns a runner writing to sink.
func New(curric *curriculum.Curriculum, sink store.Sink, cfg Config, opts ...Option) (*Runner, error) {
	if curric == nil {
		return nil, errors.New("sim: nil curriculum")
	}
	if sink == nil {
		return nil, errors.New("sim: nil sink")
	}
	if cfg.Students <= 0 {
		return nil, fmt.Errorf("sim: students must be positive, got %d", cfg.Students)
	}
	switch cfg.Mode {
	case ModeSync:
	case ModeTimed:
		if cfg.Schedule == nil {
			return nil, errors.New("sim: timed mode needs a schedule")
		}
	default:
		return nil, fmt.Errorf("sim: unknown mode %q", cfg.Mode)
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Now().UTC().Truncate(time.Second)
	}
	if cfg.Timing == (learner.Timing{}) {
		cfg.Timing = learner.DefaultTiming()
	}

	r := &Runner{cfg: cfg, curric: curric, sink: sink}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = learner.NewRegistry()
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	return r, nil
}

// Run simulates every learner and returns per-learner results. A learner
// that fails is reported in its result and does not stop the others; the
// returned error covers setup and bookkeeping failures only.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	res := &Result{BatchID: uuid.NewString(), Mode: r.cfg.Mode}

	runs, err := r.setup(ctx, res.BatchID)
	if err != nil {
		return nil, err
	}
	r.log.Info("simulation started",
		"batch_id", res.BatchID, "mode", string(r.cfg.Mode), "students", len(runs))

	switch r.cfg.Mode {
	case ModeSync:
		err = r.runSync(ctx, runs)
	case ModeTimed:
		err = r.runTimed(ctx, runs)
	}

	for _, lr := range runs {
		res.Learners = append(res.Learners, lr.result())
	}
	res.Elapsed = time.Since(started)
	r.metrics.RunFinished(res.Elapsed)
	r.log.Info("simulation finished",
		"batch_id", res.BatchID,
		"completed", res.Count(StatusCompleted),
		"stopped", res.Count(StatusStopped),
		"failed", res.Count(StatusFailed),
		"elapsed", res.Elapsed.String())
	return res, err
}

// setup samples the population, builds a tutor per learner and persists
// the students and the batch record.
func (r *Runner) setup(ctx context.Context, batchID string) ([]*learnerRun, error) {
	runs := make([]*learnerRun, 0, r.cfg.Students)
	students := make([]store.StudentData, 0, r.cfg.Students)
	ids := make([]string, 0, r.cfg.Students)

	for i := range r.cfg.Students {
		// Separate streams per learner keep results independent of scheduling.
		lrng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(2*i)))
		trng := rand.New(rand.NewPCG(r.cfg.Seed, uint64(2*i+1)))

		spec, err := r.cfg.Population.Sample(lrng)
		if err != nil {
			return nil, fmt.Errorf("sample learner %d: %w", i, err)
		}
		l, err := r.registry.Learner(uuid.NewString(), spec, r.curric.Domain(), lrng, learner.WithTiming(r.cfg.Timing))
		if err != nil {
			return nil, fmt.Errorf("build learner %d: %w", i, err)
		}
		log := r.log.With("learner_id", l.ID)
		t, err := tutor.New(r.curric, l.ID,
			tutor.WithThreshold(r.threshold()),
			tutor.WithHintPolicy(r.hintPolicy()),
			tutor.WithRand(trng),
			tutor.WithLogger(log),
		)
		if err != nil {
			return nil, fmt.Errorf("build tutor for learner %d: %w", i, err)
		}
		rec, err := l.Record(r.cfg.Start)
		if err != nil {
			return nil, err
		}
		students = append(students, rec)
		ids = append(ids, l.ID)
		runs = append(runs, &learnerRun{
			learner: l,
			tutor:   t,
			buf:     NewBuffer(r.sink, r.cfg.FlushSize, r.metrics),
			log:     log,
			metrics: r.metrics,
		})
	}

	if err := r.sink.AppendStudents(ctx, students); err != nil {
		return nil, fmt.Errorf("persist students: %w", err)
	}
	batch := store.BatchData{ID: batchID, RunTime: r.cfg.Start, Description: r.cfg.Description, StudentIDs: ids}
	if err := r.sink.AppendBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("persist batch: %w", err)
	}
	return runs, nil
}

func (r *Runner) threshold() float64 {
	if r.cfg.Threshold > 0 {
		return r.cfg.Threshold
	}
	return mastery.DefaultThreshold
}

func (r *Runner) hintPolicy() tutor.HintPolicy {
	if r.cfg.HintPolicy != "" {
		return r.cfg.HintPolicy
	}
	return tutor.HintContinue
}
