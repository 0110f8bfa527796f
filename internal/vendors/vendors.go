// Package vendors provides the fetchers that pull inventory snapshots from
// vendor sources and the registry that builds them from configuration.
//
// A fetcher never fails outward: every error is logged and degrades to an
// empty (or, for CSV, partial) snapshot so one broken vendor cannot stop a
// sync pass.
package vendors

import (
	"context"
	"time"

	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/inventory"
)

// Kind identifies the type of vendor source.
type Kind string

// Supported vendor kinds.
const (
	KindREST Kind = constants.KindREST
	KindCSV  Kind = constants.KindCSV
)

// Fetcher pulls one vendor's current snapshot.
type Fetcher interface {
	// Vendor returns the vendor id stamped on every produced row.
	Vendor() string

	// Kind returns the source kind.
	Kind() Kind

	// Fetch returns the snapshot. It never returns an error; failures are
	// logged and yield an empty or partial slice.
	Fetch(ctx context.Context) []inventory.VendorProduct
}

// Bounded is implemented by fetchers that know the longest a Fetch call
// can legitimately take, retries included.
type Bounded interface {
	Deadline() time.Duration
}

// DeadlineFor returns the per-fetch deadline to apply to f.
func DeadlineFor(f Fetcher) time.Duration {
	if b, ok := f.(Bounded); ok {
		if d := b.Deadline(); d > 0 {
			return d
		}
	}
	return constants.DefaultTimeout
}
