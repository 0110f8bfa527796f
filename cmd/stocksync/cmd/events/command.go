// Package events provides the events command.
package events

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/cmd/output"
	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/pkg/errors"
)

// NewCommand creates the events command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		f     store.EventFilter
		since string
	)

	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"stock-outs"},
		Short:   "List recorded stock-out events",
		Long: `Events lists stock-out events newest first. --since takes either an
RFC 3339 timestamp or a duration relative to now.`,
		Example: `  stocksync events --since 24h
  stocksync events --vendor VENDOR_B --since 2024-05-01T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if since != "" {
				t, err := parseSince(since, time.Now())
				if err != nil {
					return err
				}
				f.Since = t
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			events, err := st.ListStockOuts(cmd.Context(), f)
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), events, func() output.Data {
				return output.EventsToData(events)
			})
		},
	}

	cmd.Flags().StringVar(&f.Vendor, "vendor", "", "Only this vendor")
	cmd.Flags().StringVar(&f.SKU, "sku", "", "Only this SKU")
	cmd.Flags().StringVar(&since, "since", "", "Only events at or after this time (RFC 3339 or duration)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Maximum rows (0 for all)")
	return cmd
}

func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.NewValidationError("since", s, "must be an RFC 3339 timestamp or a duration")
	}
	return t, nil
}
