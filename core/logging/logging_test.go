package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("known level", func(t *testing.T) {
		l, err := NewLogger("debug", "console")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		l, err := NewLogger("loud", "json")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})
}

func TestSetLogger(t *testing.T) {
	prev := Logger
	defer SetLogger(prev)

	l := zap.NewExample()
	SetLogger(l)
	assert.Same(t, l, Logger)

	SetLogger(nil)
	assert.NotNil(t, Logger)
}
