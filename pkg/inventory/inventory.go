// Package inventory defines the data carried between vendor fetchers,
// the reconciliation engine and the stores.
package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VendorProduct is one row of a vendor snapshot. It is produced by a
// fetcher, consumed once by the reconciliation engine and never stored.
//
// StockQuantity is nil when the vendor omitted it; a nil quantity never
// counts as a transition to zero.
type VendorProduct struct {
	SKU           string `json:"sku"                     yaml:"sku"`
	Name          string `json:"name"                    yaml:"name"`
	StockQuantity *int   `json:"stockQuantity,omitempty" yaml:"stockQuantity,omitempty"`
	Vendor        string `json:"vendor,omitempty"        yaml:"vendor,omitempty"`
}

// Key returns the natural key of the row.
func (vp VendorProduct) Key() Key {
	return Key{SKU: vp.SKU, Vendor: vp.Vendor}
}

// Product is the canonical stored state of one (SKU, Vendor) pair.
type Product struct {
	ID            uuid.UUID `json:"id"                      yaml:"id"`
	SKU           string    `json:"sku"                     yaml:"sku"`
	Name          string    `json:"name"                    yaml:"name"`
	StockQuantity *int      `json:"stockQuantity,omitempty" yaml:"stockQuantity,omitempty"`
	Vendor        string    `json:"vendor"                  yaml:"vendor"`
	UpdatedAt     time.Time `json:"updatedAt"               yaml:"updatedAt"`
}

// Key returns the natural key of the product.
func (p Product) Key() Key {
	return Key{SKU: p.SKU, Vendor: p.Vendor}
}

// InStock reports whether the product has a known positive quantity.
func (p Product) InStock() bool {
	return p.StockQuantity != nil && *p.StockQuantity > 0
}

// StockOutEvent records one observed transition from positive stock to zero.
// PreviousQuantity is always > 0.
type StockOutEvent struct {
	ID               uuid.UUID `json:"id"               yaml:"id"`
	SKU              string    `json:"sku"              yaml:"sku"`
	Vendor           string    `json:"vendor"           yaml:"vendor"`
	PreviousQuantity int       `json:"previousQuantity" yaml:"previousQuantity"`
	OccurredAt       time.Time `json:"occurredAt"       yaml:"occurredAt"`
}

// Key identifies a product by its natural key.
type Key struct {
	SKU    string
	Vendor string
}

// String formats the key as vendor:sku.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Vendor, k.SKU)
}

// Qty returns a pointer to n, for building quantities in literals.
func Qty(n int) *int {
	return &n
}

// FormatQty renders a possibly-absent quantity.
func FormatQty(q *int) string {
	if q == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *q)
}
