package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/appd/internal/errors"
)

// Machine mode flag - when true, outputs JSON and suppresses human-friendly decorations
var machineMode bool

// MachineMode returns true if machine-readable output is enabled
func MachineMode() bool {
	return machineMode
}

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All --json output should use this envelope.
type JSONEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *JSONError  `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound    = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid     = "CONFIG_INVALID"
	ErrCodeHostNotFound      = "HOST_NOT_FOUND"
	ErrCodeSSHAuthFailed     = "SSH_AUTH_FAILED"
	ErrCodeSSHHostKey        = "SSH_HOST_KEY"
	ErrCodeSSHConnectionFail = "SSH_CONNECTION_FAILED"
	ErrCodeRemoteCommand     = "REMOTE_COMMAND_FAILED"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeGitRemote         = "GIT_REMOTE_FAILED"
	ErrCodeUnknown           = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data interface{}) error {
	env := JSONEnvelope{
		Success: true,
		Data:    data,
	}
	return writeJSONEnvelope(w, env)
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	env := JSONEnvelope{
		Success: false,
		Error:   ErrorToJSON(err),
	}
	return writeJSONEnvelope(w, env)
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		return &JSONError{
			Code:    ErrCodeUnknown,
			Message: err.Error(),
		}
	}

	out := &JSONError{
		Code:       mapErrorCode(appErr),
		Message:    appErr.Message,
		Suggestion: appErr.Suggestion,
	}

	if rce, ok := errors.AsRemoteCommand(err); ok {
		out.Details = map[string]interface{}{
			"command":   rce.Command,
			"stderr":    rce.Stderr,
			"exit_code": rce.ExitCode,
		}
	} else if appErr.Cause != nil {
		out.Details = map[string]interface{}{
			"cause": appErr.Cause.Error(),
		}
	}

	return out
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(appErr *errors.Error) string {
	switch appErr.Code {
	case errors.ErrConfig:
		msgLower := strings.ToLower(appErr.Message)
		if strings.Contains(msgLower, "no ssh config entry") || strings.Contains(msgLower, "no host") {
			return ErrCodeHostNotFound
		}
		if strings.Contains(msgLower, "not found") || strings.Contains(msgLower, "couldn't find") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrSSH:
		msgLower := strings.ToLower(appErr.Message)
		if strings.Contains(msgLower, "host key") || strings.HasPrefix(appErr.Suggestion, "Connect once with ssh") {
			return ErrCodeSSHHostKey
		}
		if strings.HasPrefix(appErr.Suggestion, "Auth failed") {
			return ErrCodeSSHAuthFailed
		}
		return ErrCodeSSHConnectionFail
	case errors.ErrRemote:
		return ErrCodeRemoteCommand
	case errors.ErrInput:
		return ErrCodeInvalidInput
	case errors.ErrGit:
		return ErrCodeGitRemote
	}

	return ErrCodeUnknown
}
