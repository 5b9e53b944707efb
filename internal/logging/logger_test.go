package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"info", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"Trace", LevelTrace},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level      string
		logAtDebug bool
	}{
		{"info", false},
		{"debug", true},
		{"trace", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			assert.Equal(t, tt.logAtDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))

			buf.Reset()
			logger.Info("info message")
			assert.Contains(t, buf.String(), "info message")
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)

	logger.Log(context.Background(), LevelTrace, "path step", "path", 3)
	assert.Contains(t, buf.String(), "level=TRACE")
	assert.Contains(t, buf.String(), "path=3")
}
