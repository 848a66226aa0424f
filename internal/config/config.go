package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/monover/monover/internal/errors"
	"github.com/monover/monover/internal/workspace"
)

const (
	// ConfigName is the repo-level config file name (.monover.yaml).
	ConfigName = ".monover"

	// EnvPrefix namespaces environment overrides (MONOVER_REF etc).
	EnvPrefix = "MONOVER"

	// DefaultRef is the reference branch used when none is configured.
	DefaultRef = "master"
)

// Config holds all monover settings. Precedence: command-line flags,
// then MONOVER_* environment variables, then the repo's .monover.yaml,
// then defaults.
type Config struct {
	// RepoPath is the monorepo root. Defaults to the working directory.
	RepoPath string

	// Ref is the reference branch or commit for change detection.
	Ref string

	// Filter narrows which workspaces are considered.
	Filter workspace.FilterOptions

	// Push controls whether `monover tag` pushes created tags to origin.
	Push bool

	// JSON switches command output to JSON.
	JSON bool

	// Debug enables development logging.
	Debug bool

	// VersionInfo carries build metadata.
	VersionInfo VersionInfo
}

// VersionInfo contains build-time version metadata
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// Load builds a Config from the config file, environment, and the given
// flag set (which may be nil). repoPath is the --repo flag value and
// takes highest precedence; when empty, the repository comes from
// MONOVER_REPO, then a repo key in the config file, then the working
// directory. The config file search is anchored before the file is
// read, so a repo key can relocate the repository but not the file
// lookup itself.
func Load(repoPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("ref", DefaultRef)
	v.SetDefault("push", false)
	v.SetDefault("json", false)
	v.SetDefault("debug", false)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.NewConfigError("flags", nil, err)
		}
	}

	if repoPath == "" {
		repoPath = v.GetString("repo")
	}
	searchPath := repoPath
	if searchPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.NewConfigError("repo", nil, errors.Wrap(err, "cannot determine working directory"))
		}
		searchPath = wd
	}

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(searchPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", v.ConfigFileUsed(),
				errors.Wrap(errors.ErrInvalidConfiguration, err.Error()))
		}
	}

	if repoPath == "" {
		repoPath = v.GetString("repo")
	}
	if repoPath == "" {
		repoPath = searchPath
	}

	cfg := &Config{
		RepoPath: repoPath,
		Ref:      v.GetString("ref"),
		Push:     v.GetBool("push"),
		JSON:     v.GetBool("json"),
		Debug:    v.GetBool("debug"),
		Filter: workspace.FilterOptions{
			Include:      v.GetStringSlice("include"),
			Exclude:      v.GetStringSlice("exclude"),
			IncludePaths: v.GetStringSlice("include-paths"),
			ExcludePaths: v.GetStringSlice("exclude-paths"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate sanity-checks the config before any git work starts.
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return errors.NewConfigError("repo", nil,
			errors.Wrap(errors.ErrInvalidConfiguration, "repository path must not be empty"))
	}
	if info, err := os.Stat(c.RepoPath); err != nil || !info.IsDir() {
		return errors.NewConfigError("repo", c.RepoPath,
			errors.Wrap(errors.ErrInvalidConfiguration, "repository path is not a directory"))
	}
	if c.Ref == "" {
		return errors.NewConfigError("ref", nil,
			errors.Wrap(errors.ErrInvalidConfiguration, "reference must not be empty"))
	}
	return c.Filter.Validate()
}
