package sshutil

// SSHClient defines the interface for SSH command execution.
// Both the real Client and mock implementations satisfy this interface.
//
// This interface enables testing of SSH-dependent code without requiring
// actual SSH connections. The mock implementation simulates a Linux host
// that responds realistically to the provisioning commands.
type SSHClient interface {
	// Exec runs a command, feeding stdin (if non-nil) to it, and returns
	// stdout, stderr, and exit code.
	// Exit code is -1 if the command couldn't be executed at all.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string, stdin []byte) (stdout, stderr []byte, exitCode int, err error)

	// Close closes the SSH connection.
	Close() error

	// GetHost returns the original host/alias used to connect.
	GetHost() string

	// GetAddress returns the resolved host:port address.
	GetAddress() string
}

// Dialer opens a connection for a resolved profile. Dial satisfies it;
// tests substitute a mock.
type Dialer func(profile HostProfile, opts DialOptions) (SSHClient, error)

// DefaultDialer dials a real SSH connection.
func DefaultDialer(profile HostProfile, opts DialOptions) (SSHClient, error) {
	client, err := Dial(profile, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}
