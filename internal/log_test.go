package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_LevelGating(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Info("hidden %d", 1)
	logger.Debug("hidden too")
	logger.Warn("shown %s", "warn")
	logger.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown warn")
	assert.Contains(t, out, "[ERROR] shown error")
}

func TestLogger_WithPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo).With("analytics").With("synth")

	logger.Info("expanded %d tests", 4)

	assert.Equal(t, "[INFO] [analytics] [synth] expanded 4 tests\n", buf.String())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel(" TRACE "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("chatty"))
}

func TestLogger_NilIsSilent(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() { logger.Info("nothing") })
}
