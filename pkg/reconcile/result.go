package reconcile

import (
	"fmt"
	"time"

	"github.com/agentstation/stocksync/pkg/inventory"
)

// Result summarizes one ProcessBatch call.
type Result struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	// Processed counts rows applied; on failure, the rows before the bad one.
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	StockOuts int `json:"stockOuts"`

	Events []inventory.StockOutEvent `json:"events"`
}

// Summary returns a one-line human readable summary.
func (r Result) Summary() string {
	return fmt.Sprintf("%d processed (%d created, %d updated), %d stock-outs in %s",
		r.Processed, r.Created, r.Updated, r.StockOuts, r.Duration.Round(time.Millisecond))
}
