package syncer

import (
	"fmt"
	"time"

	"github.com/agentstation/stocksync/internal/vendors"
	"github.com/agentstation/stocksync/pkg/reconcile"
)

// Report describes one sync pass.
type Report struct {
	ID        string           `json:"id"                yaml:"id"`
	StartedAt time.Time        `json:"startedAt"         yaml:"startedAt"`
	Duration  time.Duration    `json:"duration"          yaml:"duration"`
	Vendors   []VendorReport   `json:"vendors"           yaml:"vendors"`
	Fetched   int              `json:"fetched"           yaml:"fetched"`
	Result    reconcile.Result `json:"result"            yaml:"result"`
	Error     string           `json:"error,omitempty"   yaml:"error,omitempty"`
}

// VendorReport is the fetch outcome for one vendor.
type VendorReport struct {
	Vendor   string        `json:"vendor"             yaml:"vendor"`
	Kind     vendors.Kind  `json:"kind"               yaml:"kind"`
	Count    int           `json:"count"              yaml:"count"`
	Duration time.Duration `json:"duration"           yaml:"duration"`
	TimedOut bool          `json:"timedOut,omitempty" yaml:"timedOut,omitempty"`
}

// Failed reports whether the pass ended with a storage error.
func (r Report) Failed() bool {
	return r.Error != ""
}

// Summary returns a human-readable summary of the pass.
func (r Report) Summary() string {
	if r.Failed() {
		return fmt.Sprintf("sync failed after %d of %d items: %s", r.Result.Processed, r.Fetched, r.Error)
	}
	return fmt.Sprintf("%d items from %d vendors: %s", r.Fetched, len(r.Vendors), r.Result.Summary())
}
