package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/journal"
	"github.com/aretw0/journal/internal/config"
	"github.com/aretw0/journal/pkg/core"
	"github.com/aretw0/journal/pkg/metrics"
)

var (
	verbose    bool
	configPath string
	storePath  string
	storeOrder string

	cfg    = config.Default()
	logger = slog.Default()
)

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "A learning journal that keeps weekly reflections in a JSON document",
	Long: `journal records short reflections on what you learned.
Entries are appended to a single document that the CLI and the web server
can share safely.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if storeOrder != "" {
			if _, err := core.ParseOrder(storeOrder); err != nil {
				return err
			}
			cfg.Storage.Order = storeOrder
		}

		level, err := cfg.Log.SlogLevel()
		if err != nil {
			return err
		}
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{Level: level}
		if cfg.Log.Format == "json" {
			logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
		} else {
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		}
		slog.SetDefault(logger)

		cfg.Storage.Path = resolveStorePath()
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./journal.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&storePath, "path", "p", "", "Journal document or database path")
	rootCmd.PersistentFlags().StringVar(&storeOrder, "order", "", "Entry order: oldest_first or newest_first")
}

// resolveStorePath picks the store location: the --path flag, then the
// configured path, then a document found above the working directory.
func resolveStorePath() string {
	if storePath != "" {
		return storePath
	}
	if cfg.Storage.Path != config.Default().Storage.Path {
		return cfg.Storage.Path
	}
	if _, err := os.Stat(cfg.Storage.Path); err == nil {
		return cfg.Storage.Path
	}
	if found, err := journal.FindDocument("."); err == nil {
		logger.Debug("using journal found above working directory", "path", found)
		return found
	}
	return cfg.Storage.Path
}

// openService wires the configured store and service. m may be nil.
func openService(m *metrics.Metrics) (*core.Service, error) {
	opts := []journal.Option{
		journal.WithLogger(logger),
		journal.WithAdapter(cfg.Storage.Adapter),
		journal.WithOrder(cfg.Storage.ParsedOrder()),
		journal.WithPolicy(cfg.Policy.CorePolicy()),
		journal.WithVersioning(cfg.Storage.Versioned),
		journal.WithMustExist(cfg.Storage.MustExist),
		journal.WithLockTimeout(cfg.Storage.LockTimeout),
		journal.WithStaleLock(cfg.Storage.StaleLock),
		journal.WithCacheTTL(cfg.Storage.CacheTTL),
	}
	if m != nil {
		opts = append(opts, journal.WithMetrics(m))
	}

	svc, err := journal.New(cfg.Storage.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal at %s: %w", cfg.Storage.Path, err)
	}
	return svc, nil
}
