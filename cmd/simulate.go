package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhisek/motivsim/internal/config"
	"github.com/abhisek/motivsim/internal/curriculum"
	"github.com/abhisek/motivsim/internal/metrics"
	"github.com/abhisek/motivsim/internal/report"
	"github.com/abhisek/motivsim/internal/sim"
	"github.com/abhisek/motivsim/internal/store"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [curriculum]",
	Short: "Run a population of simulated learners through a curriculum",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Int("students", 0, "Number of learners (overrides simulation.students)")
	f.Uint64("seed", 0, "Random seed (overrides simulation.seed)")
	f.String("mode", "", "sync or timed (overrides simulation.mode)")
	f.String("sink", "", "sqlite, postgres, redis or memory (overrides sink.kind)")
	f.String("metrics-file", "", "Write prometheus metrics to this file after the run")
	f.String("description", "", "Description stored with the batch record")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applySimulateFlags(cmd, args, cfg); err != nil {
		return err
	}
	if cfg.Curriculum == "" {
		return fmt.Errorf("no curriculum: pass a path or set curriculum in the config")
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	curric, err := curriculum.Load(cfg.Curriculum)
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}
	sc, err := cfg.Sim(time.Now())
	if err != nil {
		return err
	}

	sink, err := openSink(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	reg := prometheus.NewRegistry()
	runner, err := sim.New(curric, sink, sc,
		sim.WithLogger(log),
		sim.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		return err
	}
	res, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Summary(res, curric.Domain().Len()))

	if cfg.Metrics.File != "" {
		if err := metrics.WriteFile(cfg.Metrics.File, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if n := res.Count(sim.StatusFailed); n > 0 {
		return fmt.Errorf("%d of %d learners failed", n, len(res.Learners))
	}
	return nil
}

// applySimulateFlags layers command-line overrides on the loaded config and
// revalidates it.
func applySimulateFlags(cmd *cobra.Command, args []string, cfg *config.Config) error {
	f := cmd.Flags()
	if len(args) == 1 {
		cfg.Curriculum = args[0]
	}
	if f.Changed("students") {
		cfg.Simulation.Students, _ = f.GetInt("students")
	}
	if f.Changed("seed") {
		cfg.Simulation.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("mode") {
		cfg.Simulation.Mode, _ = f.GetString("mode")
	}
	if f.Changed("sink") {
		cfg.Sink.Kind, _ = f.GetString("sink")
	}
	if f.Changed("metrics-file") {
		cfg.Metrics.File, _ = f.GetString("metrics-file")
	}
	if f.Changed("description") {
		cfg.Simulation.Description, _ = f.GetString("description")
	}
	return cfg.Validate()
}

// openSink opens the configured record sink.
func openSink(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (store.Sink, error) {
	switch cfg.Sink.Kind {
	case "memory":
		return store.NewMemorySink(), nil
	case "redis":
		var opts []store.RedisOption
		if cfg.Sink.StreamPrefix != "" {
			opts = append(opts, store.WithStreamPrefix(cfg.Sink.StreamPrefix))
		}
		if cfg.Sink.StreamMaxLen > 0 {
			opts = append(opts, store.WithMaxLen(cfg.Sink.StreamMaxLen))
		}
		s, err := store.NewRedisSink(ctx, cfg.Sink.DSN, opts...)
		if err != nil {
			return nil, fmt.Errorf("open redis sink: %w", err)
		}
		return s, nil
	default:
		dsn, err := storeDSN(cmd, cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.OpenContext(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return st, nil
	}
}
