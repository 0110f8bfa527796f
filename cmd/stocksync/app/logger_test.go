package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{"default", Settings{}, "info"},
		{"verbose", Settings{Verbose: true}, "debug"},
		{"quiet", Settings{Quiet: true}, "warn"},
		{"quiet wins over verbose", Settings{Verbose: true, Quiet: true}, "warn"},
		{"explicit wins over verbose", Settings{LogLevel: "error", Verbose: true}, "error"},
		{"explicit wins over quiet", Settings{LogLevel: "trace", Quiet: true}, "trace"},
		{"invalid falls back to info", Settings{LogLevel: "loud"}, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.settings))
		})
	}
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	logger := NewLogger(&Settings{LogLevel: "warn", LogFormat: "json", LogOutput: "discard"})
	assert.Equal(t, "warn", logger.GetLevel().String())
}
