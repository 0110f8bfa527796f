// Package filter parses listing query parameters for the API.
package filter

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/stocksync/internal/store"
	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
)

// MaxLimit caps any page size.
const MaxLimit = 1000

// ProductFilter narrows a products listing.
type ProductFilter struct {
	Vendor       string
	SKU          string
	NameContains string
	InStock      *bool

	Limit  int // 0 means everything
	Offset int
}

// ParseProductFilter reads vendor, sku, name_contains, in_stock, limit and
// offset from the query string.
func ParseProductFilter(r *http.Request) (ProductFilter, error) {
	q := r.URL.Query()
	f := ProductFilter{
		Vendor:       q.Get("vendor"),
		SKU:          q.Get("sku"),
		NameContains: strings.ToLower(q.Get("name_contains")),
	}

	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.NewValidationError("in_stock", v, "must be true or false")
		}
		f.InStock = &b
	}

	var err error
	if f.Limit, err = parseBounded(q.Get("limit"), "limit", MaxLimit); err != nil {
		return f, err
	}
	if f.Offset, err = parseBounded(q.Get("offset"), "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

// Apply filters and paginates products, keeping their order.
func (f ProductFilter) Apply(products []inventory.Product) []inventory.Product {
	out := make([]inventory.Product, 0, len(products))
	for _, p := range products {
		if f.matches(p) {
			out = append(out, p)
		}
	}

	if f.Offset >= len(out) {
		return []inventory.Product{}
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

func (f ProductFilter) matches(p inventory.Product) bool {
	if f.Vendor != "" && p.Vendor != f.Vendor {
		return false
	}
	if f.SKU != "" && p.SKU != f.SKU {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), f.NameContains) {
		return false
	}
	if f.InStock != nil && p.InStock() != *f.InStock {
		return false
	}
	return true
}

// ParseEventFilter reads vendor, sku, since (RFC 3339) and limit.
func ParseEventFilter(r *http.Request) (store.EventFilter, error) {
	q := r.URL.Query()
	f := store.EventFilter{
		Vendor: q.Get("vendor"),
		SKU:    q.Get("sku"),
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.NewValidationError("since", v, "must be an RFC 3339 timestamp")
		}
		f.Since = since
	}

	var err error
	if f.Limit, err = parseBounded(q.Get("limit"), "limit", MaxLimit); err != nil {
		return f, err
	}
	return f, nil
}

// parseBounded parses a non-negative integer, capped at max when max > 0.
// Empty means zero.
func parseBounded(s, field string, max int) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError(field, s, "must be a non-negative integer")
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}
