// Package errors holds the error vocabulary of stocksync. Every typed error
// maps onto one sentinel, so callers can branch with Is against the
// sentinels or pull details out with As.
package errors

import (
	"errors"
)

var (
	New    = errors.New
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTimeout      = errors.New("operation timed out")

	// ErrVendorUnavailable covers vendor 5xx answers and requests that got
	// no answer at all.
	ErrVendorUnavailable = errors.New("vendor unavailable")
	ErrRateLimited       = errors.New("rate limited")

	// ErrStorage is matched by every StoreError.
	ErrStorage = errors.New("storage failure")

	ErrPassInProgress = errors.New("sync pass already in progress")
	ErrSyncDisabled   = errors.New("sync disabled")
)

func IsNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsValidationError(err error) bool   { return errors.Is(err, ErrInvalidInput) }
func IsRateLimited(err error) bool       { return errors.Is(err, ErrRateLimited) }
func IsTimeout(err error) bool           { return errors.Is(err, ErrTimeout) }
func IsVendorUnavailable(err error) bool { return errors.Is(err, ErrVendorUnavailable) }
func IsStorage(err error) bool           { return errors.Is(err, ErrStorage) }

// IsTransient reports whether retrying the vendor call could help. Any
// APIError or timeout qualifies unless a ParseError sits in the chain.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var (
		parseErr *ParseError
		apiErr   *APIError
	)
	switch {
	case errors.As(err, &parseErr):
		return false
	case errors.As(err, &apiErr):
		return true
	}
	return errors.Is(err, ErrTimeout)
}

// The Wrap helpers return nil for a nil err so they can wrap a call site
// directly.

func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, 0, err)
}

func WrapStore(operation, sku, vendor string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, sku, vendor, err)
}

func WrapAPI(vendor string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Vendor: vendor, StatusCode: statusCode, Message: err.Error(), Err: err}
}
