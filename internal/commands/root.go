// Package commands implements the finstate CLI.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/buildinfo"
	"github.com/cleared-dev/finstate/internal/config"
	"github.com/cleared-dev/finstate/internal/logger"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	repo     string
	logLevel string
	cfg      *config.Config // nil when the repo has no finstate.yaml
}

// config returns the loaded project file, or an error telling the user to
// run init.
func (a *app) config() (*config.Config, error) {
	if a.cfg == nil {
		return nil, fmt.Errorf("no %s in %s (run \"finstate init\" first)", config.FileName, a.repo)
	}
	return a.cfg, nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "finstate",
		Short:   "Derive financial statements from a transaction ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.repo, "repo", ".", "company repo directory")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(a),
		newAddCommand(a),
		newImportCommand(a),
		newCheckCommand(a),
		newStatementsCommand(a),
		newPeriodsCommand(a),
		newPortfolioCommand(a),
		newRebuildCommand(a),
	)

	return rootCmd
}

// setup resolves the repo, loads its config when there is one and puts a
// logger in the command context.
func (a *app) setup(cmd *cobra.Command) error {
	abs, err := filepath.Abs(a.repo)
	if err != nil {
		return fmt.Errorf("resolving repo path: %w", err)
	}
	a.repo = abs

	cfg, err := config.LoadRepo(abs)
	switch {
	case err == nil:
		a.cfg = cfg
	case errors.Is(err, fs.ErrNotExist):
		a.cfg = nil
	default:
		return err
	}

	levelName := a.logLevel
	if levelName == "" && a.cfg != nil {
		levelName = a.cfg.Log.Level
	}
	if levelName == "" {
		levelName = os.Getenv(config.EnvLogLevel)
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}

	log := logger.New(cmd.ErrOrStderr(), level)
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	log.Debug().Str("repo", abs).Bool("config", a.cfg != nil).Msg("starting")
	return nil
}
