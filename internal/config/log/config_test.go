package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/weisyn/zkvm/pkg/types"
)

func TestUserLevelOverride(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  types.LogLevel
		zap   zapcore.Level
	}{
		{"小写", "debug", types.DebugLevel, zapcore.DebugLevel},
		{"大写归一化", "WARN", types.WarnLevel, zapcore.WarnLevel},
		{"panic", "panic", types.PanicLevel, zapcore.PanicLevel},
		{"未知级别保留默认", "verbose", types.InfoLevel, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New(&types.UserLogConfig{Level: types.StringPtr(tt.level)})
			assert.Equal(t, tt.want, cfg.GetLevel())
			assert.Equal(t, tt.zap, cfg.GetZapLevel())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := types.ParseLogLevel(" Error ")
	require.NoError(t, err)
	assert.Equal(t, types.ErrorLevel, level)

	_, err = types.ParseLogLevel("trace")
	assert.Error(t, err)
}
