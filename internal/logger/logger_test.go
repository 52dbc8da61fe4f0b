package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestGet_ReturnsUsableLogger(t *testing.T) {
	log := Get()
	if log == nil {
		t.Fatal("Get returned nil")
	}
	if Get() != log {
		t.Error("Get should return the same logger instance")
	}

	// Leveled events must be callable directly on the returned logger.
	log.Info().Str("key", "value").Msg("info message")
	log.Warn().Msg("warn message")
	log.Error().Msg("error message")
	log.Debug().Msg("debug message")
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	cases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		SetLevel(tc.level)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Errorf("SetLevel(%q) set global level %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestHelpers_DoNotPanic(t *testing.T) {
	Info("informational", map[string]interface{}{"n": 1})
	Warn("warning", nil)
	Debug("debugging", map[string]interface{}{"ok": true})
	Error("failed", nil, map[string]interface{}{"n": 2})
}
