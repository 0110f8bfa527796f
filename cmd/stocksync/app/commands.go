package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/stocksync/cmd/stocksync/cmd/events"
	"github.com/agentstation/stocksync/cmd/stocksync/cmd/mockvendor"
	"github.com/agentstation/stocksync/cmd/stocksync/cmd/products"
	"github.com/agentstation/stocksync/cmd/stocksync/cmd/serve"
	"github.com/agentstation/stocksync/cmd/stocksync/cmd/trigger"
	"github.com/agentstation/stocksync/cmd/stocksync/cmd/vendors"
)

func (a *App) registerCommands(rootCmd *cobra.Command) {
	core := []*cobra.Command{serve.NewCommand(a), trigger.NewCommand(a), mockvendor.NewCommand(a)}
	for _, c := range core {
		c.GroupID = "core"
		rootCmd.AddCommand(c)
	}

	inspect := []*cobra.Command{vendors.NewCommand(a), products.NewCommand(a), events.NewCommand(a)}
	for _, c := range inspect {
		c.GroupID = "inspect"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("stocksync %s\n", a.version)
			if a.settings.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
