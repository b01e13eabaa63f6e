package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit_Levels(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	tests := []struct {
		level  string
		format string
		want   zapcore.Level
	}{
		{"", "console", zapcore.InfoLevel},
		{"debug", "console", zapcore.DebugLevel},
		{"warn", "json", zapcore.WarnLevel},
		{"ERROR", "json", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			require.NoError(t, Init(tt.level, tt.format))
			assert.True(t, Get().Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, Get().Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestInit_BadLevel(t *testing.T) {
	t.Cleanup(func() { Logger = nil })
	assert.Error(t, Init("chatty", "console"))
}

func TestGet_FallsBackWithoutInit(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
	Sync()
}
