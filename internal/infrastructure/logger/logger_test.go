package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Run("rejects unknown level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Level = "loud"
		_, err := New(cfg)
		assert.ErrorContains(t, err, "unknown log level")
	})

	t.Run("writes JSON to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		cfg := ProductionConfig()
		cfg.Output = path

		l, err := New(cfg)
		require.NoError(t, err)
		l.Info("invoice generated")
		_ = l.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"invoice generated"`)
	})

	t.Run("fails when the file cannot be opened", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Output = filepath.Join(t.TempDir(), "missing", "app.log")
		_, err := New(cfg)
		assert.Error(t, err)
	})

	t.Run("tees extra cores", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		cfg := DefaultConfig()
		cfg.Output = "stderr"

		l, err := New(cfg, core, nil)
		require.NoError(t, err)
		l.Warn("arrears found")

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "arrears found", recorded.All()[0].Message)
	})
}

func TestNewForEnvironment(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	l, err := NewForEnvironment("production", "error", core)
	require.NoError(t, err)
	l.Info("ignored")
	l.Error("kept")

	// the extra core keeps its own level
	assert.Equal(t, 2, recorded.Len())
}
