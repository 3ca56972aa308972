package cli

import (
	"fmt"
	"testing"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{`unknown command "deploy" for "appd"`, true},
		{"unknown flag: --nope", true},
		{"unknown shorthand flag: 'z' in -z", false},
		{"connection refused", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(fmt.Errorf("%s", tt.msg)))
		})
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	te := setupTestEnv(t)

	err := run([]string{"deploy"})
	require.Error(t, err)
	assert.Contains(t, te.stderr.String(), "Error: unknown command")
	assert.Contains(t, te.stderr.String(), "Run 'appd --help'")
}

func TestRun_StructuredErrorOnStderr(t *testing.T) {
	te := setupTestEnv(t)

	err := run([]string{"plan", "--app", "myapp", "--host", "server1", "--format", "xml", "--user", "deploy"})
	require.Error(t, err)
	assert.Contains(t, te.stderr.String(), "✗ Unknown format 'xml'")
	assert.Empty(t, te.stdout.String())
}

func TestRun_JSONErrorEnvelope(t *testing.T) {
	te := setupTestEnv(t)

	err := run([]string{"--json", "--config", "/missing.yaml", "hosts"})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))

	env := decodeEnvelope(t, te.stdout.Bytes())
	assert.Equal(t, false, env["success"])
	assert.Equal(t, ErrCodeConfigNotFound, env["error"].(map[string]interface{})["code"])
	assert.Empty(t, te.stderr.String())
}

func TestRun_InvalidConfigFile(t *testing.T) {
	te := setupTestEnv(t)
	writeFile(t, te, "/etc/appd.yaml", "connect_timeout: -1s\n")

	err := run([]string{"--config", "/etc/appd.yaml", "hosts"})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, te.stderr.String(), "connect_timeout must be positive")
}

func TestRun_ConfigDefaultsReachCommands(t *testing.T) {
	te := setupTestEnv(t)
	writeFile(t, te, "/etc/appd.yaml", "ssh_config: /ssh/config\nbase_dir: /srv\nremote_name: origin2\n")

	require.NoError(t, run([]string{"--config", "/etc/appd.yaml", "plan", "--app", "blog", "--host", "server1"}))
	assert.Contains(t, te.stdout.String(), "\tgit remote add origin2 server1:/srv/blog_remote/\n")
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	te := setupTestEnv(t)
	te.vars[PasswordEnv] = "s3cret"

	require.NoError(t, run([]string{"-v", "provision", "--app", "myapp", "--host", "server1", "--ssh-config", "/ssh/config"}))
	assert.Contains(t, te.stderr.String(), "phase")
}
