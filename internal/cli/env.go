package cli

import (
	"io"
	"os"

	"github.com/rileyhilliard/appd/internal/ui"
	"github.com/rileyhilliard/appd/pkg/sshutil"
	"github.com/spf13/afero"
)

// Env holds the process-level collaborators commands talk to. Tests replace
// it with in-memory filesystems, buffers and the mock SSH host.
type Env struct {
	FS     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Dialer   sshutil.Dialer
	Prompter Prompter

	// Interactive is true when prompts and in-place progress lines can be
	// shown (stdin and stderr are terminals).
	Interactive bool

	Getenv func(string) string
	Getwd  func() (string, error)
}

// DefaultEnv wires the real filesystem, terminal, and SSH dialer.
func DefaultEnv() *Env {
	return &Env{
		FS:          afero.NewOsFs(),
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Dialer:      sshutil.DefaultDialer,
		Prompter:    NewFormPrompter(os.Stdin, os.Stderr),
		Interactive: ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stderr),
		Getenv:      os.Getenv,
		Getwd:       os.Getwd,
	}
}

var env = DefaultEnv()

// SetEnv replaces the command environment and returns a func restoring the
// previous one.
func SetEnv(e *Env) func() {
	prev := env
	env = e
	return func() { env = prev }
}
