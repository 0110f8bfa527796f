// Package products provides the products command.
package products

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/stocksync/cmd/application"
	"github.com/agentstation/stocksync/internal/cmd/output"
	"github.com/agentstation/stocksync/internal/server/filter"
	"github.com/agentstation/stocksync/pkg/errors"
)

// NewCommand creates the products command. It filters the same way the
// API's products listing does.
func NewCommand(app application.Application) *cobra.Command {
	var (
		f                   filter.ProductFilter
		inStock, outOfStock bool
	)

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List stored products",
		Long: `Products lists the canonical product records in the configured store,
ordered by vendor then SKU. The memory store starts empty in every process,
so this is most useful against postgres or mysql.`,
		Example: `  stocksync products --vendor VENDOR_A
  stocksync products --out-of-stock --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case inStock && outOfStock:
				return errors.NewValidationError("in-stock", true, "cannot be combined with --out-of-stock")
			case inStock, outOfStock:
				f.InStock = &inStock
			}
			if f.Limit > filter.MaxLimit {
				f.Limit = filter.MaxLimit
			}
			f.NameContains = strings.ToLower(f.NameContains)

			st, err := app.Store()
			if err != nil {
				return err
			}
			all, err := st.ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			products := f.Apply(all)
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), products, func() output.Data {
				return output.ProductsToData(products)
			})
		},
	}

	cmd.Flags().StringVar(&f.Vendor, "vendor", "", "Only this vendor")
	cmd.Flags().StringVar(&f.SKU, "sku", "", "Only this SKU")
	cmd.Flags().StringVar(&f.NameContains, "name", "", "Name contains (case-insensitive)")
	cmd.Flags().BoolVar(&inStock, "in-stock", false, "Only products with positive stock")
	cmd.Flags().BoolVar(&outOfStock, "out-of-stock", false, "Only products with zero or unknown stock")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Maximum rows (0 for all)")
	cmd.Flags().IntVar(&f.Offset, "offset", 0, "Rows to skip")
	return cmd
}
