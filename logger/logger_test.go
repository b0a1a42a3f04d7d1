package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	testCases := []struct {
		level string
		want  zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			t.Setenv("LOG_ENV", "")
			t.Setenv("APP_ENV", "")
			l, err := New(tc.level)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tc.want))
			assert.False(t, l.Core().Enabled(tc.want-1))
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty")
	assert.Error(t, err)
}

func TestIsProduction(t *testing.T) {
	t.Setenv("LOG_ENV", "")
	t.Setenv("APP_ENV", "")
	assert.False(t, IsProduction())

	t.Setenv("APP_ENV", "production")
	assert.True(t, IsProduction())

	t.Setenv("LOG_ENV", "development")
	assert.False(t, IsProduction(), "LOG_ENV takes precedence")

	t.Setenv("LOG_ENV", "production")
	l, err := New("info")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}
