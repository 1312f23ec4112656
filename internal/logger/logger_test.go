package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "prod defaults to info", env: EnvProd, want: zapcore.InfoLevel},
		{name: "dev defaults to debug", env: EnvDev, want: zapcore.DebugLevel},
		{name: "level override", env: EnvLocal, level: "warn", want: zapcore.WarnLevel},
		{name: "unknown env", env: "staging", wantErr: true},
		{name: "bad level", env: EnvProd, level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, FromContext(ctx))

	l := zap.NewExample()
	ctx = ContextWithLogger(ctx, l)
	assert.Same(t, l, FromContext(ctx))

	fallback := zap.NewNop()
	assert.Same(t, l, FromContextOr(ctx, fallback))
	assert.Same(t, fallback, FromContextOr(context.Background(), fallback))
	assert.NotNil(t, FromContextOr(context.Background(), nil))
}
