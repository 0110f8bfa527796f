package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/stocksync/pkg/logging"
)

// NewLogger builds the process logger. Level precedence, highest first:
// --log-level, --quiet, --verbose, LOG_LEVEL, info.
func NewLogger(s *Settings) zerolog.Logger {
	level := determineLogLevel(s)
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:      level,
		Format:     s.LogFormat,
		Output:     s.LogOutput,
		TimeFormat: "kitchen",
		NoColor:    s.NoColor || os.Getenv("NO_COLOR") != "",
		AddCaller:  level == "debug" || level == "trace",
		Fields:     map[string]any{"service": "stocksync"},
	})
}

func determineLogLevel(s *Settings) string {
	if s.LogLevel != "" {
		valid := validateLogLevel(s.LogLevel)
		if valid != s.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", s.LogLevel, valid)
		}
		return valid
	}
	if s.Verbose && s.Quiet {
		fmt.Fprintf(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet\n")
		return "warn"
	}
	if s.Quiet {
		return "warn"
	}
	if s.Verbose {
		return "debug"
	}
	return "info"
}

func validateLogLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	}
	return "info"
}
