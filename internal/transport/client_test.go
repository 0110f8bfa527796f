package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/stocksync/internal/transport"
	"github.com/agentstation/stocksync/pkg/errors"
)

type item struct {
	SKU string `json:"sku"`
}

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestGetJSON(t *testing.T) {
	c := transport.New()

	t.Run("decodes array", func(t *testing.T) {
		var got []item
		found, err := c.GetJSON(context.Background(), "V", serve(t, 200, `[{"sku":"A"}]`), &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []item{{SKU: "A"}}, got)
	})

	t.Run("null body is not found", func(t *testing.T) {
		var got []item
		found, err := c.GetJSON(context.Background(), "V", serve(t, 200, "null"), &got)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, got)
	})

	t.Run("empty body is not found", func(t *testing.T) {
		var got []item
		found, err := c.GetJSON(context.Background(), "V", serve(t, 200, "  "), &got)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("malformed body is a parse error", func(t *testing.T) {
		var got []item
		_, err := c.GetJSON(context.Background(), "V", serve(t, 200, `{"sku":`), &got)
		require.Error(t, err)
		var pe *errors.ParseError
		assert.ErrorAs(t, err, &pe)
		assert.False(t, errors.IsTransient(err))
	})

	t.Run("server error is an API error", func(t *testing.T) {
		var got []item
		_, err := c.GetJSON(context.Background(), "VENDOR_A", serve(t, 503, "down"), &got)
		require.Error(t, err)
		var ae *errors.APIError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, 503, ae.StatusCode)
		assert.Equal(t, "down", ae.Message)
		assert.True(t, errors.IsVendorUnavailable(err))
		assert.True(t, errors.IsTransient(err))
	})

	t.Run("client error is still transient", func(t *testing.T) {
		var got []item
		_, err := c.GetJSON(context.Background(), "V", serve(t, 404, ""), &got)
		require.Error(t, err)
		assert.True(t, errors.IsTransient(err))
		assert.Contains(t, err.Error(), "Not Found")
	})
}

func TestGetConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := transport.New(transport.WithTimeout(200 * time.Millisecond))
	_, err := c.Get(context.Background(), "VENDOR_A", url)
	require.Error(t, err)

	var ae *errors.APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, ae.StatusCode)
	assert.True(t, errors.IsVendorUnavailable(err))
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	c := transport.New(transport.WithTimeout(50 * time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, c.Timeout())

	var got []item
	_, err := c.GetJSON(context.Background(), "V", srv.URL, &got)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}
