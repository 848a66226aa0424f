package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/monover/monover/internal/config"
	"github.com/monover/monover/internal/errors"
	"github.com/monover/monover/internal/git"
	"github.com/monover/monover/internal/planner"
)

// newRootCmd builds the monover command tree.
func newRootCmd(versionInfo config.VersionInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monover",
		Short: "Compute next release versions for monorepo packages",
		Long: `monover inspects a monorepo's git history to answer two questions:
which packages changed since a reference commit, and what each package's
next semantic version should be, based on conventional-commit analysis of
the commits since its last release tag.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", versionInfo.Version, versionInfo.Commit, versionInfo.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("repo", "", "path to the monorepo root (default: current directory)")
	flags.String("ref", config.DefaultRef, "reference branch or commit for change detection")
	flags.StringSlice("include", nil, "workspace name patterns to include")
	flags.StringSlice("exclude", nil, "workspace name patterns to exclude")
	flags.StringSlice("include-paths", nil, "workspace path patterns to include")
	flags.StringSlice("exclude-paths", nil, "workspace path patterns to exclude")
	flags.Bool("json", false, "emit JSON output")
	flags.Bool("debug", false, "enable debug logging")

	cmd.AddCommand(newChangedCmd())
	cmd.AddCommand(newChangesCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newTagCmd())

	return cmd
}

// app bundles the pieces every subcommand needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	git     *git.Client
	planner *planner.Planner
}

// newApp loads configuration from the command's flags and wires up the
// git client and planner.
func newApp(cmd *cobra.Command) (*app, error) {
	repo, err := cmd.Flags().GetString("repo")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repo, cmd.Flags())
	if err != nil {
		return nil, err
	}

	if !git.IsRepository(cfg.RepoPath) {
		return nil, errors.Wrapf(errors.ErrNotGitRepository, "%s", cfg.RepoPath)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}

	gitClient := git.New(cfg.RepoPath, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		git:     gitClient,
		planner: planner.New(gitClient, logger),
	}, nil
}

// close flushes buffered log entries.
func (a *app) close() {
	_ = a.logger.Sync()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
