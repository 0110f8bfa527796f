package errors

import (
	"fmt"
	"strings"
)

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NotFoundError names a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return e.Resource + " with ID " + e.ID + " not found"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError rejects a value. Field is a dotted config or query path
// and may be empty.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if e.Field != "" {
		b.WriteString(" for field ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// APIError is a failed vendor call. StatusCode is zero when no response
// arrived.
type APIError struct {
	Vendor     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

func NewAPIError(vendor string, statusCode int, message string) *APIError {
	return &APIError{Vendor: vendor, StatusCode: statusCode, Message: message}
}

func (e *APIError) Error() string {
	status := ""
	if e.StatusCode != 0 {
		status = fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	return "API error from " + e.Vendor + status + ": " + e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 429:
		return target == ErrRateLimited
	case e.StatusCode == 0 || e.StatusCode >= 500:
		return target == ErrVendorUnavailable
	default:
		return false
	}
}

// ConfigError reports configuration that could not be loaded.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	where := ""
	if e.Component != "" {
		where = " in " + e.Component
	}
	return "configuration error" + where + ": " + e.Message
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParseError is malformed vendor data. It is never retried.
type ParseError struct {
	Format  string // json or csv
	File    string
	Line    int
	Message string
	Err     error
}

func NewParseError(format, file string, line int, err error) *ParseError {
	return &ParseError{Format: format, File: file, Line: line, Message: messageOf(err), Err: err}
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s parse error at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s parse error in %s: %s", e.Format, e.File, e.Message)
	default:
		return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError is a failed open, read or close.
type IOError struct {
	Operation string
	Path      string
	Message   string
	Err       error
}

func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Message: messageOf(err), Err: err}
}

func (e *IOError) Error() string {
	target := ""
	if e.Path != "" {
		target = " of " + e.Path
	}
	return "IO error during " + e.Operation + target + ": " + e.Message
}

func (e *IOError) Unwrap() error { return e.Err }

// StoreError is a failed store call. SKU and Vendor identify the row when
// the call was about one.
type StoreError struct {
	Operation string
	SKU       string
	Vendor    string
	Err       error
}

func NewStoreError(operation, sku, vendor string, err error) *StoreError {
	return &StoreError{Operation: operation, SKU: sku, Vendor: vendor, Err: err}
}

func (e *StoreError) Error() string {
	if e.SKU == "" {
		return fmt.Sprintf("store %s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("store %s failed for %s:%s: %v", e.Operation, e.Vendor, e.SKU, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStorage }

// TimeoutError is an operation that ran past its deadline.
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration, Message: message}
}

func (e *TimeoutError) Error() string {
	after := ""
	if e.Duration != "" {
		after = " after " + e.Duration
	}
	return "operation " + e.Operation + " timed out" + after + ": " + e.Message
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
