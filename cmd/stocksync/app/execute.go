package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "stocksync",
		Short:   "Vendor inventory sync and stock-out detection",
		Version: a.version,
		Long: `stocksync pulls product snapshots from configured vendors (HTTP JSON
endpoints and CSV files), keeps one canonical record per SKU and vendor,
and records a stock-out event whenever a product's quantity drops from
positive to zero.

Passes run on a cron schedule under "serve", or once with "sync".`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspect", Title: "Inspection Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is ./stocksync.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("stocksync {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand applies flags, rebuilds the logger and reloads the
// configuration so command flags take part in it.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	a.settings.UpdateFromFlags(
		mustGetString(cmd, "config"),
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)

	logger := NewLogger(a.settings)
	a.logger = &logger

	if a.pinned {
		return nil
	}
	cfg, err := LoadConfig(a.settings.ConfigFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.config = cfg
	return nil
}

// ExitOnError prints err and exits with status 1. It does nothing when
// err is nil.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool panics when name is not a defined flag.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
