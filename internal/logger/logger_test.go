package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_DebugGate(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		expectLog bool
	}{
		{name: "debug enabled", debug: true, expectLog: true},
		{name: "debug disabled", debug: false, expectLog: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New("test", &buf, tt.debug)
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "test message arg")
				assert.Contains(t, buf.String(), "DEBUG")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New("session", &buf, false)

	l.Info("connected to %s", "server1")
	l.Warn("host key %s", "ignored")
	l.Error("failed: %d", 1)

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "session")
	assert.Contains(t, out, "connected to server1")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "host key ignored")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "failed: 1")
}

func TestNewEnvLogger_RespectsEnv(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	l := NewEnvLogger("x")
	zl, ok := l.(*zapLogger)
	require.True(t, ok)
	assert.True(t, zl.sugar.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestNoop(t *testing.T) {
	l := Noop()
	assert.NotPanics(t, func() {
		l.Debug("x")
		l.Info("x")
		l.Warn("x")
		l.Error("x")
	})
}

func TestDefaultAndSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(New("", &buf, false))
	Default().Info("hello")

	assert.Contains(t, buf.String(), "hello")
}
