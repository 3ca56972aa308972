package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToJSON_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unknown alias", errors.New(errors.ErrConfig, "No SSH config entry for 'web'", ""), ErrCodeHostNotFound},
		{"config file missing", errors.New(errors.ErrConfig, "Config file not found: /x.yaml", ""), ErrCodeConfigNotFound},
		{"bad config", errors.New(errors.ErrConfig, "Invalid config format", ""), ErrCodeConfigInvalid},
		{"missing user", errors.New(errors.ErrConfig, "SSH config entry for 'web' has no User", ""), ErrCodeConfigInvalid},
		{"host key mismatch", errors.New(errors.ErrSSH, "Host key for web changed", ""), ErrCodeSSHHostKey},
		{"unknown host key", errors.New(errors.ErrSSH, "web is not in known_hosts", "Connect once with ssh web"), ErrCodeSSHHostKey},
		{"auth", errors.New(errors.ErrSSH, "Couldn't log in", "Auth failed. Check your key"), ErrCodeSSHAuthFailed},
		{"dial", errors.New(errors.ErrSSH, "Connection refused", ""), ErrCodeSSHConnectionFail},
		{"remote", errors.NewRemoteCommand("groupadd x", "boom", 9), ErrCodeRemoteCommand},
		{"input", errors.New(errors.ErrInput, "Cancelled", ""), ErrCodeInvalidInput},
		{"git", errors.New(errors.ErrGit, "Not a git repository", ""), ErrCodeGitRemote},
		{"plain", fmt.Errorf("something odd"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorToJSON(tt.err).Code)
		})
	}
}

func TestErrorToJSON_Nil(t *testing.T) {
	assert.Nil(t, ErrorToJSON(nil))
}

func TestErrorToJSON_RemoteDetails(t *testing.T) {
	got := ErrorToJSON(errors.NewRemoteCommand("mkdir /opt/a/", "mkdir: cannot create directory '/opt/a/': File exists", 1))

	details, ok := got.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "mkdir /opt/a/", details["command"])
	assert.Equal(t, 1, details["exit_code"])
	assert.Contains(t, details["stderr"], "File exists")
}

func TestErrorToJSON_CauseDetails(t *testing.T) {
	got := ErrorToJSON(errors.WrapWithCode(fmt.Errorf("dial tcp: timeout"), errors.ErrSSH, "Couldn't connect", "Check the host"))

	assert.Equal(t, "Couldn't connect", got.Message)
	assert.Equal(t, "Check the host", got.Suggestion)
	assert.Equal(t, map[string]interface{}{"cause": "dial tcp: timeout"}, got.Details)
}

func TestWriteJSONSuccess(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSuccess(&buf, map[string]string{"k": "v"}))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.Equal(t, map[string]interface{}{"k": "v"}, env.Data)
}

func TestWriteJSONFromError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONFromError(&buf, errors.New(errors.ErrInput, "Cancelled", "")))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeInvalidInput, env.Error.Code)
	assert.NotContains(t, buf.String(), `"data"`)
}
