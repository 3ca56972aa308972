package sshutil

import (
	"bytes"
	"fmt"

	"github.com/rileyhilliard/appd/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Exec runs a command on the remote host and returns the output.
// When stdin is non-nil it is written to the command's input stream.
// Returns stdout, stderr, exit code, and any error.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) Exec(cmd string, stdin []byte) (stdout, stderr []byte, exitCode int, err error) {
	session, err := c.NewSession()
	if err != nil {
		return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	exitCode = 0
	err = session.Run(cmd)
	if err != nil {
		switch e := err.(type) {
		case *ssh.ExitError:
			exitCode = e.ExitStatus()
		case *ssh.ExitMissingError:
			// Server closed the channel without a status; treat like a
			// signal death and let the caller inspect stderr.
			exitCode = -1
		default:
			return nil, nil, -1, errors.WrapWithCode(err, errors.ErrSSH,
				fmt.Sprintf("Failed to execute command: %s", cmd),
				"The connection may have dropped. Check the host is still reachable.")
		}
	}

	return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitCode, nil
}
