package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns ctx carrying logger. A nil logger stores the default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger carried by ctx, or the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, _ := ctx.Value(ctxKey{}).(*zerolog.Logger); l != nil {
			return l
		}
	}
	return Default()
}

// derive replaces the context logger with one extended by fn.
func derive(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	l := fn(FromContext(ctx).With()).Logger()
	return WithLogger(ctx, &l)
}

// WithField adds one field to the context logger.
func WithField(ctx context.Context, key string, value any) context.Context {
	return derive(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

// WithFields adds every entry of fields to the context logger.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	return derive(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

// WithVendor tags the context logger with a vendor id.
func WithVendor(ctx context.Context, vendor string) context.Context {
	return derive(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("vendor", vendor) })
}

// WithOperation tags the context logger with an operation name.
func WithOperation(ctx context.Context, operation string) context.Context {
	return derive(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("operation", operation) })
}

// WithPass tags the context logger with a sync pass id.
func WithPass(ctx context.Context, passID string) context.Context {
	return derive(ctx, func(c zerolog.Context) zerolog.Context { return c.Str("pass_id", passID) })
}
