package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/motivsim/internal/config"
	"github.com/abhisek/motivsim/internal/logger"
	"github.com/abhisek/motivsim/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "motivsim",
	Short:        "Simulate learners working through a mastery-learning tutor",
	Long:         "motivsim generates tutoring logs from simulated learners whose motivation shapes what they do next.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides MOTIVSIM_CONFIG env var)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MOTIVSIM_DB env var)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then MOTIVSIM_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// loadConfig reads the --config file, falling back to MOTIVSIM_CONFIG.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// storeDSN picks the SQL store to read or write: a postgres sink DSN, then
// an explicit --db, then a configured sqlite DSN, then the default path.
func storeDSN(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if cfg.Sink.Kind == "postgres" {
		return cfg.Sink.DSN, nil
	}
	if cmd.Flags().Changed("db") || cfg.Sink.DSN == "" {
		return resolveDBPath(cmd)
	}
	return cfg.Sink.DSN, store.EnsureDir(cfg.Sink.DSN)
}

// openStore opens the SQL store for the read-side commands.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dsn, err := storeDSN(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.OpenContext(cmd.Context(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
