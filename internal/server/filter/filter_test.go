package filter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stocksync/pkg/errors"
	"github.com/agentstation/stocksync/pkg/inventory"
)

func sample() []inventory.Product {
	return []inventory.Product{
		{SKU: "A", Name: "Cordless Drill", Vendor: "V1", StockQuantity: inventory.Qty(3)},
		{SKU: "B", Name: "Drill Bits", Vendor: "V1", StockQuantity: inventory.Qty(0)},
		{SKU: "A", Name: "Gloves", Vendor: "V2"},
		{SKU: "C", Name: "Safety Glasses", Vendor: "V2", StockQuantity: inventory.Qty(9)},
	}
}

func skus(ps []inventory.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Vendor+":"+p.SKU)
	}
	return out
}

func TestProductFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"V1:A", "V1:B", "V2:A", "V2:C"}},
		{"vendor=V2", []string{"V2:A", "V2:C"}},
		{"sku=A", []string{"V1:A", "V2:A"}},
		{"name_contains=DRILL", []string{"V1:A", "V1:B"}},
		{"in_stock=true", []string{"V1:A", "V2:C"}},
		{"in_stock=false", []string{"V1:B", "V2:A"}},
		{"limit=2", []string{"V1:A", "V1:B"}},
		{"offset=3", []string{"V2:C"}},
		{"offset=10", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f, err := ParseProductFilter(httptest.NewRequest("GET", "/products?"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, skus(f.Apply(sample())))
		})
	}
}

func TestProductFilterRejectsBadValues(t *testing.T) {
	for _, q := range []string{"in_stock=maybe", "limit=-1", "offset=x"} {
		_, err := ParseProductFilter(httptest.NewRequest("GET", "/products?"+q, nil))
		assert.True(t, errors.IsValidationError(err), q)
	}
}

func TestLimitIsCapped(t *testing.T) {
	f, err := ParseProductFilter(httptest.NewRequest("GET", "/products?limit=999999", nil))
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, f.Limit)
}

func TestParseEventFilter(t *testing.T) {
	f, err := ParseEventFilter(httptest.NewRequest("GET", "/api/v1/stock-out-events?vendor=V&sku=A&since=2024-01-02T03:04:05Z&limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, "V", f.Vendor)
	assert.Equal(t, "A", f.SKU)
	assert.Equal(t, 5, f.Limit)
	assert.True(t, f.Since.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))

	_, err = ParseEventFilter(httptest.NewRequest("GET", "/api/v1/stock-out-events?since=yesterday", nil))
	assert.True(t, errors.IsValidationError(err))
}
