package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/motivsim/internal/learner"
	"github.com/abhisek/motivsim/internal/sim"
	"github.com/abhisek/motivsim/internal/tutor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motivsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Sink.Kind)
	assert.Equal(t, learner.DefaultValues(), cfg.Population.Values)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Simulation.Students)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
curriculum: fractions.yaml
simulation:
  seed: 42
  students: 25
  mode: timed
  hint_exhaustion: advance
  start: 2024-09-02T08:00:00Z
population:
  cognition: bias
  ability_min: -2
  ability_max: 2
  constructs: [diligence, self_efficacy]
  values:
    attempt: 8
    guess: 2
    hint: 3
    off_task: 1
    stop_work: 0.5
  start_delay:
    mean: 1m
    sd: 20s
  timing:
    min_off_task: 10s
    max_off_task: 5m
sessions:
  count: 3
  interval: 48h
  length: 50m
  weekdays: [mon, wed]
sink:
  kind: memory
  flush_size: 50
log:
  mode: prod
  level: warn
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fractions.yaml", cfg.Curriculum)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, 25, cfg.Simulation.Students)
	assert.Equal(t, 0.5, cfg.Population.Values.StopWork)
	assert.Equal(t, time.Minute, cfg.Population.StartDelay.Mean)
	assert.Equal(t, 5*time.Minute, cfg.Population.Timing.MaxOffTask)
	assert.Equal(t, 50*time.Minute, cfg.Sessions.Length)
	// Unset fields keep their defaults.
	assert.Equal(t, 0.9, cfg.Simulation.MasteryThreshold)
	assert.Equal(t, "warn", cfg.Log.Level)

	sc, err := cfg.Sim(time.Now())
	require.NoError(t, err)
	assert.Equal(t, sim.ModeTimed, sc.Mode)
	assert.Equal(t, tutor.HintAdvance, sc.HintPolicy)
	assert.Equal(t, 50, sc.FlushSize)
	assert.Equal(t, []string{learner.ConstructDiligence, learner.ConstructSelfEfficacy}, sc.Population.Constructs)
	assert.Equal(t, 10*time.Second, sc.Timing.MinOffTask)

	require.NotNil(t, sc.Schedule)
	sessions := sc.Schedule.All()
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, s.Start.Weekday())
		assert.Equal(t, 50*time.Minute, s.End.Sub(s.Start))
		assert.False(t, s.Start.Before(sc.Start))
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, "simulation:\n  studnets: 4\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Simulation, cfg.Simulation)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MOTIVSIM_STUDENTS", "7")
	t.Setenv("MOTIVSIM_SEED", "99")
	t.Setenv("MOTIVSIM_MASTERY_THRESHOLD", "0.95")
	t.Setenv("MOTIVSIM_RANDOM_VALUES", "true")
	t.Setenv("MOTIVSIM_SINK", "memory")
	t.Setenv("MOTIVSIM_WORKERS", "not-a-number")

	cfg, err := Load(writeConfig(t, "simulation:\n  students: 3\n  workers: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Simulation.Students, "env wins over file")
	assert.Equal(t, uint64(99), cfg.Simulation.Seed)
	assert.Equal(t, 0.95, cfg.Simulation.MasteryThreshold)
	assert.True(t, cfg.Population.RandomValues)
	assert.Equal(t, "memory", cfg.Sink.Kind)
	assert.Equal(t, 2, cfg.Simulation.Workers, "unparsable override is ignored")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no students", func(c *Config) { c.Simulation.Students = 0 }},
		{"threshold of one", func(c *Config) { c.Simulation.MasteryThreshold = 1 }},
		{"unknown mode", func(c *Config) { c.Simulation.Mode = "batch" }},
		{"unknown hint policy", func(c *Config) { c.Simulation.HintExhaustion = "skip" }},
		{"unknown cognition", func(c *Config) { c.Population.Cognition = "oracle" }},
		{"unknown construct", func(c *Config) { c.Population.Constructs = []string{"grit"} }},
		{"ability range inverted", func(c *Config) { c.Population.AbilityMin = 2 }},
		{"off task range inverted", func(c *Config) { c.Population.Timing.MinOffTask = time.Hour }},
		{"unknown sink", func(c *Config) { c.Sink.Kind = "kafka" }},
		{"postgres without dsn", func(c *Config) { c.Sink.Kind = "postgres" }},
		{"redis without dsn", func(c *Config) { c.Sink.Kind = "redis" }},
		{"bad weekday", func(c *Config) { c.Sessions.Weekdays = []string{"monday"} }},
		{"timed without sessions", func(c *Config) {
			c.Simulation.Mode = "timed"
			c.Sessions.Count = 0
		}},
		{"session longer than interval", func(c *Config) {
			c.Simulation.Mode = "timed"
			c.Sessions.Length = 2 * c.Sessions.Interval
		}},
		{"until before start", func(c *Config) {
			c.Simulation.Start = time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)
			c.Simulation.Until = c.Simulation.Start.Add(-time.Hour)
		}},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSimDefaultsStartToNow(t *testing.T) {
	cfg := Default()
	now := time.Date(2024, 9, 2, 9, 30, 15, 500, time.Local)
	sc, err := cfg.Sim(now)
	require.NoError(t, err)
	assert.Equal(t, now.UTC().Truncate(time.Second), sc.Start)
	assert.Equal(t, sim.ModeSync, sc.Mode)
	assert.Nil(t, sc.Schedule, "sync mode has no schedule")
}
