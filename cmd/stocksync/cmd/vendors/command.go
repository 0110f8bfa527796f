// Package vendors provides the vendors command.
package vendors

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/cmd/output"
)

// NewCommand creates the vendors command, which lists configured vendors
// in fetch order, including disabled ones.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:     "vendors",
		Aliases: []string{"vendor"},
		Short:   "List configured vendors",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := app.Registry()
			if err != nil {
				return err
			}
			specs := reg.Specs()
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), specs, func() output.Data {
				return output.SpecsToData(specs)
			})
		},
	}
}
