// Package cli implements the todoflow command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/rpggio/todoflow/internal/app"
	"github.com/rpggio/todoflow/internal/config"
	"github.com/rpggio/todoflow/internal/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	version    string
}

// NewRootCommand builds the full command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{version: version}

	rootCmd := &cobra.Command{
		Use:   "todoflow",
		Short: "A persistent task list",
		Long: `todoflow keeps an ordered task list in SQLite or a NATS key-value bucket.

Use the subcommands to add, toggle, edit and remove tasks, or run "todoflow serve"
to expose the same list to MCP clients.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (YAML or TOML); defaults to $TODOFLOW_CONFIG_PATH")

	rootCmd.AddCommand(
		newAddCmd(opts),
		newToggleCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
		newClearCmd(opts),
		newListCmd(opts),
		newHistoryCmd(opts),
		newServeCmd(opts),
		newVersionCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	return config.Load()
}

// open loads configuration, builds the logger and opens the task store.
// The returned func releases everything open acquired.
func (o *rootOptions) open(cmd *cobra.Command, cfg config.Config) (*app.App, func(), error) {
	logger, closeLog, logErr := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Path:   cfg.Log.Path,
		Writer: cmd.ErrOrStderr(),
	})
	if logErr != nil {
		logger.Warn("logging to stderr", "error", logErr)
	}

	a, err := app.Open(cmd.Context(), cfg, logger)
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	return a, func() {
		if err := a.Close(); err != nil {
			logger.Error("close storage", "error", err)
		}
		closeLog()
	}, nil
}

// withApp runs fn against a freshly opened store.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	a, closeFn, err := o.open(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(a)
}
