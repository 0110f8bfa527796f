// Package logging provides structured logging for stocksync using zerolog.
// Console output is used when stderr is a terminal, JSON otherwise.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("vendor", "VENDOR_A").Int("items", 12).Msg("Fetched vendor snapshot")
//
//	ctx := logging.WithLogger(context.Background(), log)
//	ctx = logging.WithVendor(ctx, "VENDOR_A")
//	logging.FromContext(ctx).Warn().Msg("vendor unavailable")
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var current atomic.Pointer[zerolog.Logger]

func init() {
	cfg := DefaultConfig()
	cfg.Level = os.Getenv("LOG_LEVEL")
	if cfg.Level == "" && os.Getenv("DEBUG") != "" {
		cfg.Level = "debug"
	}
	if f := os.Getenv("LOG_FORMAT"); f != "" {
		cfg.Format = f
	}
	l := build(cfg)
	current.Store(&l)
}

// Default returns a copy of the process-wide logger.
func Default() *zerolog.Logger {
	l := *current.Load()
	return &l
}

// SetDefault replaces the process-wide logger, including zerolog's
// global log.Logger.
func SetDefault(logger zerolog.Logger) {
	current.Store(&logger)
	log.Logger = logger
}

// New returns a timestamped logger writing to w at the global level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.GlobalLevel()).With().Timestamp().Logger()
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event { return current.Load().Debug() }

// Info starts an info event on the default logger.
func Info() *zerolog.Event { return current.Load().Info() }

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event { return current.Load().Warn() }

// Error starts an error event on the default logger.
func Error() *zerolog.Event { return current.Load().Error() }

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
