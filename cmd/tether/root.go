// Root command: global flags, configuration loading, backend selection.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/tether/internal/config"
	"github.com/mesh-intelligence/tether/internal/github"
	"github.com/mesh-intelligence/tether/internal/memory"
	"github.com/mesh-intelligence/tether/internal/paths"
	"github.com/mesh-intelligence/tether/internal/sqlite"
	"github.com/mesh-intelligence/tether/pkg/types"
)

const version = "0.2.0"

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// Shared per-invocation state, set up by PersistentPreRunE.
var (
	logger   *zap.Logger
	resolver *config.Resolver

	// backend is constructed lazily; config commands never touch it.
	backend        types.Backend
	closeBackend   func() error
	sessionBackend *memory.Backend
)

var rootCmd = &cobra.Command{
	Use:     "tether",
	Short:   "Tether manages linked entities in a pluggable issue tracker",
	Long: `Tether creates, updates, and interlinks entities (issues, tasks) stored
in a configurable backend, and runs graph operations (trees, recursive
unlinking, cycle detection) over the persisted link graph.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(flagVerbose)
		if err != nil {
			return err
		}

		localDir := flagConfigDir
		if localDir == "" {
			if localDir, err = paths.LocalConfigDir(); err != nil {
				return err
			}
		}
		globalDir, err := paths.GlobalConfigDir()
		if err != nil {
			return err
		}
		resolver = config.New(localDir, globalDir, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeBackend != nil {
			return closeBackend()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "local configuration directory (default: $(CWD)/.tether)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "sqlite data directory (default: $(CWD)/.tether-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	return cfg.Build()
}

// getBackend instantiates the configured backend on first use. Selection
// and parameters come from the resolver ("backend", "github.*",
// "sqlite.data_dir").
func getBackend() (types.Backend, error) {
	if backend != nil {
		return backend, nil
	}

	name, ok, err := resolver.Get("backend", false)
	if err != nil {
		return nil, err
	}
	if !ok {
		name = "sqlite"
	}

	switch name {
	case "sqlite":
		configured, _, err := resolver.Get("sqlite.data_dir", false)
		if err != nil {
			return nil, err
		}
		dataDir, err := paths.ResolveDataDir(flagDataDir, configured)
		if err != nil {
			return nil, err
		}
		b, err := sqlite.Open(dataDir, logger)
		if err != nil {
			return nil, err
		}
		backend = b
		closeBackend = b.Close

	case "github":
		owner, _, err := resolver.Get("github.owner", false)
		if err != nil {
			return nil, err
		}
		repo, _, err := resolver.Get("github.repository", false)
		if err != nil {
			return nil, err
		}
		token, _, err := resolver.Get("github.token", false)
		if err != nil {
			return nil, err
		}
		if owner == "" || repo == "" {
			return nil, fmt.Errorf("%w: github backend not configured; run:\n"+
				"  tether config set github.owner <owner>\n"+
				"  tether config set github.repository <repo>", types.ErrValidation)
		}
		b, err := github.New(github.Options{Owner: owner, Repo: repo, Token: token}, logger)
		if err != nil {
			return nil, err
		}
		backend = b

	case "memory":
		if sessionBackend == nil {
			sessionBackend = memory.New(logger)
		}
		backend = sessionBackend

	default:
		return nil, fmt.Errorf("%w: unknown backend %q", types.ErrValidation, name)
	}
	return backend, nil
}
