package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/agentstation/stocksync/internal/syncer"
	"github.com/agentstation/stocksync/internal/vendors"
	"github.com/agentstation/stocksync/pkg/inventory"
)

const timeLayout = "2006-01-02 15:04:05"

// ProductsToData converts products to a table.
func ProductsToData(products []inventory.Product) Data {
	d := Data{
		Headers:   []string{"Vendor", "SKU", "Name", "Stock", "Updated"},
		Alignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
	for _, p := range products {
		d.Rows = append(d.Rows, []string{
			p.Vendor,
			p.SKU,
			p.Name,
			inventory.FormatQty(p.StockQuantity),
			p.UpdatedAt.Local().Format(timeLayout),
		})
	}
	return d
}

// EventsToData converts stock-out events to a table.
func EventsToData(events []inventory.StockOutEvent) Data {
	d := Data{
		Headers:   []string{"Occurred", "Vendor", "SKU", "Previous"},
		Alignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
	for _, e := range events {
		d.Rows = append(d.Rows, []string{
			e.OccurredAt.Local().Format(timeLayout),
			e.Vendor,
			e.SKU,
			strconv.Itoa(e.PreviousQuantity),
		})
	}
	return d
}

// SpecsToData converts vendor specs to a table.
func SpecsToData(specs []vendors.Spec) Data {
	d := Data{Headers: []string{"Name", "Kind", "Location", "Encoding", "Enabled"}}
	for _, s := range specs {
		enc := s.Encoding
		if enc == "" {
			enc = "-"
		}
		d.Rows = append(d.Rows, []string{s.Name, string(s.Kind), s.Location, enc, strconv.FormatBool(s.Enabled)})
	}
	return d
}

// ReportToData converts the per-vendor part of a sync report to a table.
func ReportToData(r syncer.Report) Data {
	d := Data{
		Headers:   []string{"Vendor", "Kind", "Items", "Duration", "Timed Out"},
		Alignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
	for _, v := range r.Vendors {
		timedOut := ""
		if v.TimedOut {
			timedOut = "yes"
		}
		d.Rows = append(d.Rows, []string{
			v.Vendor,
			string(v.Kind),
			strconv.Itoa(v.Count),
			v.Duration.Round(time.Millisecond).String(),
			timedOut,
		})
	}
	d.Rows = append(d.Rows, []string{"total", "", strconv.Itoa(r.Fetched), r.Duration.Round(time.Millisecond).String(), ""})
	return d
}

// ReportLine is the one-line summary printed under a report table.
func ReportLine(r syncer.Report) string {
	return fmt.Sprintf("pass %s: %s", r.ID, r.Summary())
}
