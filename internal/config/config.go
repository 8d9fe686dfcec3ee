// Package config loads simulation settings from a YAML file, applies
// MOTIVSIM_ environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/motivsim/internal/learner"
	"github.com/abhisek/motivsim/internal/mastery"
	"github.com/abhisek/motivsim/internal/schedule"
	"github.com/abhisek/motivsim/internal/sim"
	"github.com/abhisek/motivsim/internal/tutor"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MOTIVSIM_"

// Config is the full run configuration.
type Config struct {
	// Curriculum is the path of the curriculum document to simulate.
	Curriculum string     `yaml:"curriculum"`
	Simulation Simulation `yaml:"simulation"`
	Population Population `yaml:"population"`
	Sessions   Sessions   `yaml:"sessions"`
	Sink       Sink       `yaml:"sink"`
	Log        Log        `yaml:"log"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Simulation holds the run-level settings.
type Simulation struct {
	Seed             uint64    `yaml:"seed"`
	Students         int       `yaml:"students" validate:"gte=1"`
	Workers          int       `yaml:"workers" validate:"gte=0"`
	MasteryThreshold float64   `yaml:"mastery_threshold" validate:"gt=0,lt=1"`
	Mode             string    `yaml:"mode" validate:"oneof=sync timed"`
	HintExhaustion   string    `yaml:"hint_exhaustion" validate:"oneof=continue advance"`
	Start            time.Time `yaml:"start"`
	MaxTurns         int       `yaml:"max_turns" validate:"gte=0"`
	// Until stops a timed run at this simulated time.
	Until       time.Time `yaml:"until"`
	Description string    `yaml:"description"`
}

// Population describes how learners are sampled.
type Population struct {
	Cognition     string             `yaml:"cognition" validate:"oneof=binary pcorrect bias"`
	AbilityMin    float64            `yaml:"ability_min"`
	AbilityMax    float64            `yaml:"ability_max"`
	Decider       string             `yaml:"decider" validate:"oneof=ev domain_tuner"`
	RandomValues  bool               `yaml:"random_values"`
	Values        learner.Values     `yaml:"values"`
	Constructs    []string           `yaml:"constructs" validate:"dive,oneof=diligence self_efficacy interest"`
	DiligenceMean float64            `yaml:"diligence_mean"`
	DiligenceSD   float64            `yaml:"diligence_sd" validate:"gte=0"`
	StartDelay    learner.StartDelay `yaml:"start_delay"`
	Timing        Timing             `yaml:"timing"`
}

// Timing sets action durations that do not come from the curriculum.
type Timing struct {
	MinOffTask time.Duration `yaml:"min_off_task" validate:"gte=0"`
	MaxOffTask time.Duration `yaml:"max_off_task" validate:"gte=0"`
	HintMean   time.Duration `yaml:"hint_mean" validate:"gte=0"`
	HintSD     time.Duration `yaml:"hint_sd" validate:"gte=0"`
	GuessMean  time.Duration `yaml:"guess_mean" validate:"gte=0"`
	GuessSD    time.Duration `yaml:"guess_sd" validate:"gte=0"`
}

// Sessions generates the class schedule for timed runs.
type Sessions struct {
	Count    int           `yaml:"count" validate:"gte=0"`
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
	Length   time.Duration `yaml:"length" validate:"gte=0"`
	// First defaults to the simulation start.
	First    time.Time `yaml:"first"`
	Weekdays []string  `yaml:"weekdays" validate:"dive,oneof=sun mon tue wed thu fri sat"`
}

// Sink selects where records go.
type Sink struct {
	Kind         string `yaml:"kind" validate:"oneof=sqlite postgres redis memory"`
	DSN          string `yaml:"dsn"`
	FlushSize    int    `yaml:"flush_size" validate:"gte=0"`
	StreamPrefix string `yaml:"stream_prefix"`
	StreamMaxLen int64  `yaml:"stream_max_len" validate:"gte=0"`
}

// Log configures the zap logger.
type Log struct {
	Mode  string `yaml:"mode" validate:"oneof=dev prod development production"`
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Metrics configures the prometheus text file written after a run.
type Metrics struct {
	File string `yaml:"file"`
}

// Default returns a sync run of 10 binary-cognition learners logged to SQLite.
func Default() Config {
	pop := learner.DefaultPopulation()
	timing := learner.DefaultTiming()
	return Config{
		Simulation: Simulation{
			Seed:             1,
			Students:         10,
			MasteryThreshold: mastery.DefaultThreshold,
			Mode:             string(sim.ModeSync),
			HintExhaustion:   string(tutor.HintContinue),
			MaxTurns:         sim.DefaultMaxTurns,
		},
		Population: Population{
			Cognition:     pop.Cognition,
			AbilityMin:    pop.AbilityMin,
			AbilityMax:    pop.AbilityMax,
			Decider:       pop.Decider,
			Values:        pop.Values,
			DiligenceMean: pop.DiligenceMean,
			DiligenceSD:   pop.DiligenceSD,
			StartDelay:    pop.Start,
			Timing: Timing{
				MinOffTask: timing.MinOffTask,
				MaxOffTask: timing.MaxOffTask,
				HintMean:   timing.HintMean,
				HintSD:     timing.HintSD,
				GuessMean:  timing.GuessMean,
				GuessSD:    timing.GuessSD,
			},
		},
		Sessions: Sessions{
			Count:    10,
			Interval: 24 * time.Hour,
			Length:   45 * time.Minute,
		},
		Sink: Sink{
			Kind:      "sqlite",
			FlushSize: sim.DefaultFlushSize,
		},
		Log: Log{Mode: "dev"},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Curriculum = envStr(EnvPrefix+"CURRICULUM", c.Curriculum)

	s := &c.Simulation
	s.Seed = envUint(EnvPrefix+"SEED", s.Seed)
	s.Students = envInt(EnvPrefix+"STUDENTS", s.Students)
	s.Workers = envInt(EnvPrefix+"WORKERS", s.Workers)
	s.MasteryThreshold = envFloat(EnvPrefix+"MASTERY_THRESHOLD", s.MasteryThreshold)
	s.Mode = envStr(EnvPrefix+"MODE", s.Mode)
	s.HintExhaustion = envStr(EnvPrefix+"HINT_EXHAUSTION", s.HintExhaustion)
	s.MaxTurns = envInt(EnvPrefix+"MAX_TURNS", s.MaxTurns)

	p := &c.Population
	p.Cognition = envStr(EnvPrefix+"COGNITION", p.Cognition)
	p.Decider = envStr(EnvPrefix+"DECIDER", p.Decider)
	p.RandomValues = envBool(EnvPrefix+"RANDOM_VALUES", p.RandomValues)

	c.Sessions.Count = envInt(EnvPrefix+"SESSIONS", c.Sessions.Count)

	c.Sink.Kind = envStr(EnvPrefix+"SINK", c.Sink.Kind)
	c.Sink.DSN = envStr(EnvPrefix+"SINK_DSN", c.Sink.DSN)
	c.Sink.FlushSize = envInt(EnvPrefix+"FLUSH_SIZE", c.Sink.FlushSize)

	c.Log.Mode = envStr(EnvPrefix+"LOG_MODE", c.Log.Mode)
	c.Log.Level = envStr(EnvPrefix+"LOG_LEVEL", c.Log.Level)
	c.Metrics.File = envStr(EnvPrefix+"METRICS_FILE", c.Metrics.File)
}

var validate = validator.New()

// Validate checks field constraints and the rules that span fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	p := c.Population
	if p.AbilityMin > p.AbilityMax {
		return fmt.Errorf("invalid config: population ability_min %v above ability_max %v", p.AbilityMin, p.AbilityMax)
	}
	if p.Timing.MinOffTask > p.Timing.MaxOffTask {
		return fmt.Errorf("invalid config: min_off_task %v above max_off_task %v", p.Timing.MinOffTask, p.Timing.MaxOffTask)
	}
	if c.Simulation.Mode == string(sim.ModeTimed) {
		s := c.Sessions
		if s.Count == 0 {
			return errors.New("invalid config: timed mode needs sessions.count")
		}
		if s.Length <= 0 || s.Interval < s.Length {
			return fmt.Errorf("invalid config: session length %v must be positive and fit the interval %v", s.Length, s.Interval)
		}
	}
	if !c.Simulation.Until.IsZero() && !c.Simulation.Start.IsZero() && !c.Simulation.Until.After(c.Simulation.Start) {
		return errors.New("invalid config: simulation.until must be after simulation.start")
	}
	switch c.Sink.Kind {
	case "postgres", "redis":
		if c.Sink.DSN == "" {
			return fmt.Errorf("invalid config: sink %s needs a dsn", c.Sink.Kind)
		}
	}
	return nil
}

// LearnerPopulation converts the population section.
func (c *Config) LearnerPopulation() learner.Population {
	p := c.Population
	return learner.Population{
		Cognition:     p.Cognition,
		AbilityMin:    p.AbilityMin,
		AbilityMax:    p.AbilityMax,
		Decider:       p.Decider,
		RandomValues:  p.RandomValues,
		Values:        p.Values,
		Constructs:    p.Constructs,
		DiligenceMean: p.DiligenceMean,
		DiligenceSD:   p.DiligenceSD,
		Start:         p.StartDelay,
	}
}

// LearnerTiming converts the timing section.
func (c *Config) LearnerTiming() learner.Timing {
	t := c.Population.Timing
	return learner.Timing{
		MinOffTask: t.MinOffTask,
		MaxOffTask: t.MaxOffTask,
		HintMean:   t.HintMean,
		HintSD:     t.HintSD,
		GuessMean:  t.GuessMean,
		GuessSD:    t.GuessSD,
	}
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// Schedule expands the sessions section, starting at start when
// sessions.first is unset.
func (c *Config) Schedule(start time.Time) (*schedule.Fixed, error) {
	s := c.Sessions
	iv := schedule.Interval{First: s.First, Every: s.Interval, Length: s.Length, Count: s.Count}
	if iv.First.IsZero() {
		iv.First = start
	}
	for _, d := range s.Weekdays {
		iv.Weekdays = append(iv.Weekdays, weekdays[d])
	}
	return iv.Build()
}

// Sim builds the runner configuration. now is used as the start time when
// simulation.start is unset.
func (c *Config) Sim(now time.Time) (sim.Config, error) {
	s := c.Simulation
	start := s.Start
	if start.IsZero() {
		start = now.UTC().Truncate(time.Second)
	}
	out := sim.Config{
		Mode:        sim.Mode(s.Mode),
		Students:    s.Students,
		Seed:        s.Seed,
		Workers:     s.Workers,
		Start:       start,
		MaxTurns:    s.MaxTurns,
		FlushSize:   c.Sink.FlushSize,
		Description: s.Description,
		Population:  c.LearnerPopulation(),
		Timing:      c.LearnerTiming(),
		Threshold:   s.MasteryThreshold,
		HintPolicy:  tutor.HintPolicy(s.HintExhaustion),
		Until:       s.Until,
	}
	if out.Mode == sim.ModeTimed {
		sched, err := c.Schedule(start)
		if err != nil {
			return sim.Config{}, fmt.Errorf("build schedule: %w", err)
		}
		out.Schedule = sched
	}
	return out, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseUint(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
