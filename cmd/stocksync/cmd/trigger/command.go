// Package trigger provides the sync command, which runs one pass and
// prints its report.
package trigger

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/cmd/output"
	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
)

// NewCommand creates the sync command.
func NewCommand(app application.Application) *cobra.Command {
	var timeout = constants.CommandTimeout

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass now",
		Long: `Sync fetches every enabled vendor, reconciles the snapshot into the
store and prints the pass report. Stock-outs found in this pass are
listed below the report.

The command exits non-zero when the store rejects the batch.`,
		Example: `  stocksync sync
  stocksync sync --format json
  STOCKSYNC_STORE_DRIVER=postgres STOCKSYNC_STORE_DSN=postgres://localhost/stocksync stocksync sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, cmd, app)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", timeout, "Upper bound for the whole pass")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, app application.Application) error {
	runner, err := app.Runner()
	if err != nil {
		return err
	}

	report, err := runner.SyncAll(ctx)
	if errors.Is(err, errors.ErrSyncDisabled) {
		return fmt.Errorf("%w: set sync.enabled=true (or STOCKSYNC_SYNC_ENABLED=true)", err)
	}
	if err != nil && report.ID == "" {
		return err
	}

	out := cmd.OutOrStdout()
	if perr := output.Print(out, app.OutputFormat(), report, func() output.Data {
		return output.ReportToData(report)
	}); perr != nil {
		return perr
	}

	format := output.DetectFormat(app.OutputFormat())
	if format == output.FormatTable {
		fmt.Fprintln(out, output.ReportLine(report))
		if events := report.Result.Events; len(events) > 0 {
			fmt.Fprintln(out)
			if perr := output.Print(out, string(format), events, func() output.Data {
				return output.EventsToData(events)
			}); perr != nil {
				return perr
			}
		}
	}
	return err
}
