package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig = "CONFIG" // SSH config lookup or appd config problems
	ErrSSH    = "SSH"    // connecting, authenticating, opening sessions
	ErrRemote = "REMOTE" // a remote command wrote to stderr
	ErrInput  = "INPUT"  // prompts and plan validation
	ErrGit    = "GIT"    // local repository changes
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrSSH code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrSSH,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", indent(e.Cause.Error())))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsConfiguration reports whether err is a configuration error
// (unknown host alias, missing User, bad appd config).
func IsConfiguration(err error) bool {
	return IsCode(err, ErrConfig)
}

// RemoteCommandError is the cause attached to ErrRemote errors. A remote
// command fails as soon as it writes anything to stderr, whatever its exit
// status was.
type RemoteCommandError struct {
	Command  string
	Stderr   string // stderr lines joined with "\n"
	ExitCode int
}

func (e *RemoteCommandError) Error() string {
	return e.Stderr
}

// NewRemoteCommand builds the ErrRemote error for a command that wrote to stderr.
func NewRemoteCommand(command, stderr string, exitCode int) *Error {
	return &Error{
		Code:       ErrRemote,
		Message:    fmt.Sprintf("Remote command failed: %s", command),
		Suggestion: "Fix the problem on the server, then re-run. Steps that already ran are not rolled back.",
		Cause: &RemoteCommandError{
			Command:  command,
			Stderr:   stderr,
			ExitCode: exitCode,
		},
	}
}

// AsRemoteCommand extracts the RemoteCommandError from err, if any.
func AsRemoteCommand(err error) (*RemoteCommandError, bool) {
	var rce *RemoteCommandError
	if errors.As(err, &rce) {
		return rce, true
	}
	return nil, false
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}
