package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" WARN "))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestInitReplacesNopLogger(t *testing.T) {
	Init("error")
	assert.True(t, Log.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, Log.Core().Enabled(zapcore.InfoLevel))
}
