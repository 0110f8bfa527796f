package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/stocksync/pkg/errors"
)

func TestNotFoundError(t *testing.T) {
	err := pkgerrors.NewNotFoundError("product", "SKU1")
	assert.Equal(t, "product with ID SKU1 not found", err.Error())
	assert.True(t, pkgerrors.IsNotFound(err))

	wrapped := errors.Join(errors.New("failed"), err)
	assert.True(t, pkgerrors.IsNotFound(wrapped))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("vendors.rest[0].url", "", "cannot be empty")
		assert.Equal(t, "validation failed for field vendors.rest[0].url: cannot be empty", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
		rateLimited bool
	}{
		{"server error", 503, true, false},
		{"transport failure", 0, true, false},
		{"rate limited", 429, false, true},
		{"client error", 404, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("VENDOR_A", tt.status, "boom")
			assert.Equal(t, tt.unavailable, pkgerrors.IsVendorUnavailable(err))
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.True(t, pkgerrors.IsTransient(err), "every API error is retryable")
			assert.Contains(t, err.Error(), "VENDOR_A")
		})
	}

	t.Run("unwrap", func(t *testing.T) {
		base := errors.New("connection refused")
		err := pkgerrors.WrapAPI("VENDOR_A", 0, base)
		assert.ErrorIs(t, err, base)
	})
}

func TestParseError(t *testing.T) {
	base := errors.New(`strconv.Atoi: parsing "notanint": invalid syntax`)
	err := pkgerrors.NewParseError("csv", "/tmp/stock.csv", 3, base)

	assert.Equal(t, `csv parse error at /tmp/stock.csv:3: strconv.Atoi: parsing "notanint": invalid syntax`, err.Error())
	assert.ErrorIs(t, err, base)
	assert.False(t, pkgerrors.IsTransient(err))

	// A parse error wrapped inside an API error stays permanent.
	nested := fmt.Errorf("decode: %w", pkgerrors.WrapParse("json", "", base))
	assert.False(t, pkgerrors.IsTransient(nested))
}

func TestStoreError(t *testing.T) {
	base := errors.New("disk full")
	err := pkgerrors.NewStoreError("save", "SKU1", "VENDOR_A", base)

	assert.Equal(t, "store save failed for VENDOR_A:SKU1: disk full", err.Error())
	assert.True(t, pkgerrors.IsStorage(err))
	assert.ErrorIs(t, err, base)

	var storeErr *pkgerrors.StoreError
	require.ErrorAs(t, fmt.Errorf("batch: %w", err), &storeErr)
	assert.Equal(t, "save", storeErr.Operation)

	assert.Equal(t, "store commit failed: disk full", pkgerrors.NewStoreError("commit", "", "", base).Error())
}

func TestTimeoutError(t *testing.T) {
	err := pkgerrors.NewTimeoutError("fetch", "5s", "vendor did not answer")
	assert.True(t, pkgerrors.IsTimeout(err))
	assert.True(t, pkgerrors.IsTransient(err))
	assert.Contains(t, err.Error(), "5s")
}

func TestWrapHelpersNil(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("csv", "x", nil))
	assert.NoError(t, pkgerrors.WrapStore("save", "", "", nil))
	assert.NoError(t, pkgerrors.WrapAPI("v", 500, nil))
	assert.False(t, pkgerrors.IsTransient(nil))
}

func TestConfigError(t *testing.T) {
	base := errors.New("yaml: line 3")
	err := pkgerrors.NewConfigError("vendors", "cannot decode", base)
	assert.Equal(t, "configuration error in vendors: cannot decode", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestIOError(t *testing.T) {
	base := errors.New("permission denied")
	err := pkgerrors.WrapIO("open", "/tmp/stock.csv", base)
	assert.Equal(t, "IO error during open of /tmp/stock.csv: permission denied", err.Error())
	assert.ErrorIs(t, err, base)
}
