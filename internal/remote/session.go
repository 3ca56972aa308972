// Package remote owns the lifecycle of one SSH connection to a provisioning
// target and runs commands on it with a strict failure policy: any output on
// stderr fails the command, whatever its exit status.
package remote

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/rileyhilliard/appd/internal/logger"
	"github.com/rileyhilliard/appd/pkg/sshutil"
)

// SudoPrefix makes sudo read the password from stdin without printing a prompt.
const SudoPrefix = `sudo -S -p "" `

// ProfileResolver turns a host alias into connection parameters.
// *sshutil.Resolver satisfies it.
type ProfileResolver interface {
	Lookup(alias string) (sshutil.HostProfile, error)
}

// PasswordFunc asks for the login password once the profile is known.
// Returning "" means rely on keys or the agent.
type PasswordFunc func(profile sshutil.HostProfile) (string, error)

// Options configures a Session.
type Options struct {
	Resolver ProfileResolver
	Password PasswordFunc        // nil means no password
	Dialer   sshutil.Dialer      // nil means sshutil.DefaultDialer
	Dial     sshutil.DialOptions // Password is filled in by the session
	Logger   logger.Logger
}

// Session holds a resolved host profile, the password, and at most one live
// connection. The connection is opened lazily and may be reopened after Close.
type Session struct {
	hostname string
	profile  sshutil.HostProfile
	password Secret
	dialer   sshutil.Dialer
	dialOpts sshutil.DialOptions
	log      logger.Logger

	client sshutil.SSHClient
}

// New resolves hostname and prompts for the password. No connection is made.
// Configuration errors are returned before the password is asked for.
func New(hostname string, opts Options) (*Session, error) {
	if opts.Resolver == nil {
		return nil, errors.New(errors.ErrConfig, "No SSH config resolver", "")
	}

	profile, err := opts.Resolver.Lookup(hostname)
	if err != nil {
		return nil, err
	}

	var password Secret
	if opts.Password != nil {
		pw, err := opts.Password(profile)
		var appErr *errors.Error
		if stderrors.As(err, &appErr) {
			return nil, err
		}
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrInput,
				fmt.Sprintf("Couldn't read the password for %s@%s", profile.User, hostname),
				"Pass it with --password-stdin or APPD_PASSWORD when not on a terminal")
		}
		password = NewSecret(pw)
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = sshutil.DefaultDialer
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	if password.Empty() {
		log.Debug("no password for %s@%s; relying on keys and the agent", profile.User, hostname)
	}

	return &Session{
		hostname: hostname,
		profile:  profile,
		password: password,
		dialer:   dialer,
		dialOpts: opts.Dial,
		log:      log,
	}, nil
}

// Hostname returns the alias the session was created for.
func (s *Session) Hostname() string { return s.hostname }

// Profile returns the resolved connection parameters.
func (s *Session) Profile() sshutil.HostProfile { return s.profile }

// User returns the remote login user.
func (s *Session) User() string { return s.profile.User }

// Connected reports whether a connection is currently open.
func (s *Session) Connected() bool { return s.client != nil }

// Open connects if no connection is open. It is a no-op otherwise.
func (s *Session) Open() error {
	if s.client != nil {
		return nil
	}

	opts := s.dialOpts
	opts.Password = s.password.Reveal()
	if opts.Logger == nil {
		opts.Logger = s.log
	}

	s.log.Debug("connecting to %s as %s (%s)", s.hostname, s.profile.User, s.profile.Address())
	client, err := s.dialer(s.profile, opts)
	if err != nil {
		return err
	}
	s.client = client
	return nil
}

// Close terminates the connection and clears the handle so the next call
// reconnects. Closing a session with no open connection is a no-op.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}
	client := s.client
	s.client = nil

	s.log.Debug("closing connection to %s", s.hostname)
	if err := client.Close(); err != nil {
		return errors.Wrap(err, fmt.Sprintf("Failed to close the connection to %s", s.hostname))
	}
	return nil
}

// Run executes cmd, writing input to its stdin when non-nil. Any stderr
// output fails the call with a remote command error carrying the joined
// stderr lines, whatever the exit status. Otherwise the joined stdout lines
// are returned, even for a non-zero exit status.
func (s *Session) Run(cmd string, input []byte) (string, error) {
	if err := s.Open(); err != nil {
		return "", err
	}

	s.log.Debug("run: %s", cmd)
	stdout, stderr, exitCode, err := s.client.Exec(cmd, input)
	if err != nil {
		return "", err
	}
	if len(stderr) > 0 {
		return "", errors.NewRemoteCommand(cmd, JoinLines(stderr), exitCode)
	}
	if exitCode != 0 {
		s.log.Debug("%q exited %d with no stderr; treating as success", cmd, exitCode)
	}
	return JoinLines(stdout), nil
}

// ForgetPassword zeroes the held password. Later Sudo calls send an empty
// line and new connections rely on keys and the agent.
func (s *Session) ForgetPassword() {
	s.password.Zero()
}

// Sudo runs cmd through sudo, feeding the session password on stdin.
func (s *Session) Sudo(cmd string) (string, error) {
	return s.Run(SudoCommand(cmd), s.password.line())
}

// SudoCommand wraps cmd so sudo reads the password from stdin silently.
func SudoCommand(cmd string) string {
	return SudoPrefix + cmd
}

// JoinLines splits output into lines, drops the line terminators, and joins
// them with "\n". Terminators are stripped before joining, so the result has
// single newlines rather than the doubled ones a plain join of raw lines gives.
func JoinLines(out []byte) string {
	if len(out) == 0 {
		return ""
	}
	lines := strings.Split(string(out), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return strings.Join(lines, "\n")
}
