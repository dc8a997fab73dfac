package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("Should build a logger at the requested level", func(t *testing.T) {
		l, err := New("debug")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})
	t.Run("Should default to warn", func(t *testing.T) {
		l, err := New("")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})
	t.Run("Should disable logging for none", func(t *testing.T) {
		l, err := New(LevelNone)
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	})
	t.Run("Should reject unknown levels", func(t *testing.T) {
		_, err := New("chatty")
		assert.Error(t, err)
	})
}

func TestOrNop(t *testing.T) {
	t.Run("Should replace nil with a no-op logger", func(t *testing.T) {
		assert.NotNil(t, OrNop(nil))
	})
}
