package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"dev", "dev"},
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVersion(tt.in), tt.in)
	}
}

func withVersion(t *testing.T, v, c, d string) {
	t.Helper()
	pv, pc, pd := version, commit, date
	SetVersionInfo(v, c, d)
	t.Cleanup(func() { SetVersionInfo(pv, pc, pd) })
}

func TestVersionCommand(t *testing.T) {
	te := setupTestEnv(t)
	withVersion(t, "1.4.0", "abc123", "2026-01-02")

	require.NoError(t, run([]string{"version"}))

	out := te.stdout.String()
	assert.Contains(t, out, "appd v1.4.0\n")
	assert.Contains(t, out, "commit: abc123\n")
	assert.Contains(t, out, "built: 2026-01-02\n")
	assert.Contains(t, out, "os/arch: "+runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCommand_Short(t *testing.T) {
	te := setupTestEnv(t)
	withVersion(t, "1.4.0", "abc123", "2026-01-02")

	require.NoError(t, run([]string{"version", "--short"}))
	assert.Equal(t, "1.4.0\n", te.stdout.String())
}

func TestVersionCommand_JSON(t *testing.T) {
	te := setupTestEnv(t)
	withVersion(t, "1.4.0", "abc123", "2026-01-02")

	require.NoError(t, run([]string{"--json", "version"}))

	data := decodeEnvelope(t, te.stdout.Bytes())["data"].(map[string]interface{})
	assert.Equal(t, "1.4.0", data["version"])
	assert.Equal(t, "abc123", data["commit"])
}
