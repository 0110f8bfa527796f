package mockvendor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stocksync/internal/mockvendor"
	"github.com/agentstation/stocksync/internal/vendors"
	"github.com/agentstation/stocksync/pkg/inventory"
	"github.com/agentstation/stocksync/pkg/logging"
)

func TestSampleIsValidSnapshot(t *testing.T) {
	var items []inventory.VendorProduct
	require.NoError(t, json.Unmarshal(mockvendor.Sample(), &items))
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.NotEmpty(t, it.SKU)
	}
}

func TestHandlerRejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	mockvendor.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, mockvendor.Path, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRESTFetcherReadsMockVendor(t *testing.T) {
	mux := http.NewServeMux()
	mockvendor.Mount(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := vendors.NewRESTFetcher("VENDOR_A", srv.URL+mockvendor.Path, vendors.WithRESTLogger(logging.NewNopLogger()))
	items := f.Fetch(context.Background())

	var want []inventory.VendorProduct
	require.NoError(t, json.Unmarshal(mockvendor.Sample(), &want))
	require.Len(t, items, len(want))
	for _, it := range items {
		assert.Equal(t, "VENDOR_A", it.Vendor)
	}

	// The sample carries one row without a quantity.
	var absent int
	for _, it := range items {
		if it.StockQuantity == nil {
			absent++
		}
	}
	assert.Equal(t, 1, absent)
}
