package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		level       string
		wantLevel   zapcore.Level
		wantErr     bool
	}{
		{name: "production defaults to info", environment: "production", wantLevel: zapcore.InfoLevel},
		{name: "development defaults to debug", environment: "development", wantLevel: zapcore.DebugLevel},
		{name: "level override", environment: "production", level: "warn", wantLevel: zapcore.WarnLevel},
		{name: "unknown environment", environment: "staging", wantErr: true},
		{name: "invalid level", environment: "development", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.environment, tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.wantLevel))
			assert.False(t, l.Core().Enabled(tt.wantLevel-1))
		})
	}
}
