// Package cli wires the oq command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/j-veylop/omni-quota/internal/config"
	"github.com/j-veylop/omni-quota/internal/logger"
	"github.com/j-veylop/omni-quota/internal/services"
)

// GlobalFlags contains flags available to every command.
type GlobalFlags struct {
	JSON    bool
	Verbose bool
}

// env carries what subcommands share.
type env struct {
	loadConfig func() (*config.Config, error)
	flags      GlobalFlags
}

// NewRootCmd builds the oq command tree. Without a subcommand it runs the TUI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.Load)
}

func newRootCmd(load func() (*config.Config, error)) *cobra.Command {
	e := &env{loadConfig: load}

	root := &cobra.Command{
		Use:   "oq",
		Short: "Omni-Quota - quota monitor for local language servers",
		Long: `Omni-Quota finds language server processes on this machine, asks them for
the signed-in account and its per-model quota, and keeps a history of the
remaining percentages.

Run without a command to open the dashboard. Configuration comes from
OQ_* environment variables and .env files.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.runTUI(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVar(&e.flags.JSON, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&e.flags.Verbose, "verbose", "v", false, "Log to stderr at debug level")

	root.AddCommand(
		newScanCmd(e),
		newStatusCmd(e),
		newSelectCmd(e),
		newAccountsCmd(e),
		newHistoryCmd(e),
		newVersionCmd(e),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setupLogging sends logs to stderr in verbose mode, otherwise to the log file.
func (e *env) setupLogging(cfg *config.Config, stderr io.Writer) (io.Closer, error) {
	if e.flags.Verbose {
		logger.Setup(stderr, slog.LevelDebug)
		return io.NopCloser(nil), nil
	}
	return logger.SetupFile(cfg.LogPath, logger.ParseLevel(cfg.LogLevel))
}

// openManager loads configuration and opens the store without starting
// background monitoring. The returned func releases both.
func (e *env) openManager(cmd *cobra.Command) (*services.Manager, func(), error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, err := e.setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}

	mgr, err := services.NewManager(cfg)
	if err != nil {
		_ = logFile.Close()
		return nil, nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return mgr, func() {
		if closeErr := mgr.Close(); closeErr != nil {
			logger.Warn("Error closing services", "error", closeErr)
		}
		_ = logFile.Close()
	}, nil
}
