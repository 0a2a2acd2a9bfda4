package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/newsvec/internal/config"
	logpkg "github.com/kailas-cloud/newsvec/internal/logger"
	"github.com/kailas-cloud/newsvec/internal/version"
)

// app holds what every subcommand needs after startup.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	serve := newServeCmd(a)

	root := &cobra.Command{
		Use:           "newsvec",
		Short:         "Vector search and deduplication for news articles",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		// Without a subcommand the service starts.
		RunE: serve.RunE,
	}
	root.AddCommand(serve, newIngestCmd(a))
	return root
}

// load reads config/<ENV>.yaml and builds the logger.
func (a *app) load() error {
	a.env = config.GetEnv()

	cfg, err := config.Load(a.env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logger, err := logpkg.NewLogger(a.env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger
	return nil
}
