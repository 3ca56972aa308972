package sshutil

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/rileyhilliard/appd/internal/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultTimeout bounds the TCP connect and SSH handshake.
const DefaultTimeout = 10 * time.Second

// Client wraps an SSH connection with additional metadata.
type Client struct {
	*ssh.Client
	Host    string // The alias used to connect
	Address string // The resolved address (host:port)
}

// DialOptions controls authentication and host key verification for Dial.
type DialOptions struct {
	// Password is tried for password and keyboard-interactive auth, and as
	// the passphrase of an encrypted IdentityFile. Empty disables both.
	Password string

	// KnownHostsPath defaults to ~/.ssh/known_hosts.
	KnownHostsPath string

	// InsecureIgnoreHostKey accepts any host key without verification.
	InsecureIgnoreHostKey bool

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	Logger logger.Logger
}

func (o DialOptions) logger() logger.Logger {
	if o.Logger == nil {
		return logger.Default()
	}
	return o.Logger
}

// WarningHandler is a function that handles warning messages.
// If nil, warnings go to the default logger.
var WarningHandler func(message string)

func emitWarning(message string) {
	if WarningHandler != nil {
		WarningHandler(message)
	} else {
		logger.Default().Warn("%s", message)
	}
}

// Dial establishes an SSH connection using a resolved host profile.
func Dial(profile HostProfile, opts DialOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	config, encryptedKeys, err := buildSSHConfig(profile, opts)
	if err != nil {
		var appErr *errors.Error
		if stderrors.As(err, &appErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't set up SSH for '%s'", profile.Alias),
			"Check your keys are loaded: ssh-add -l")
	}

	address := profile.Address()
	opts.logger().Debug("dialing %s as %s (%s)", profile.Alias, profile.User, address)

	conn, err := net.DialTimeout("tcp", address, opts.Timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", profile.Alias, address),
			suggestionForDialError(err))
	}

	// The handshake deadline is cleared once the connection is up; remote
	// commands run without a timeout.
	_ = conn.SetDeadline(time.Now().Add(opts.Timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		var hostKeyErr *HostKeyMismatchError
		if stderrors.As(err, &hostKeyErr) {
			return nil, errors.New(errors.ErrSSH,
				hostKeyErr.Error(),
				hostKeyErr.Suggestion())
		}

		var unknownErr *HostKeyUnknownError
		if stderrors.As(err, &unknownErr) {
			return nil, errors.New(errors.ErrSSH,
				unknownErr.Error(),
				unknownErr.Suggestion())
		}

		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", profile.Alias),
			suggestionForHandshakeError(err, encryptedKeys))
	}
	_ = conn.SetDeadline(time.Time{})

	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    profile.Alias,
		Address: address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// GetHost returns the alias used to connect.
func (c *Client) GetHost() string {
	return c.Host
}

// GetAddress returns the resolved host:port address.
func (c *Client) GetAddress() string {
	return c.Address
}

// buildSSHConfig creates an SSH client config with authentication methods.
// It also returns any keys that exist but could not be decrypted.
func buildSSHConfig(profile HostProfile, opts DialOptions) (*ssh.ClientConfig, []string, error) {
	var authMethods []ssh.AuthMethod
	var encryptedKeys []string

	tryKeyFile := func(keyPath string) {
		keyAuth, err := keyFileAuth(keyPath, opts.Password)
		if err != nil {
			var encErr *EncryptedKeyError
			if stderrors.As(err, &encErr) {
				encryptedKeys = append(encryptedKeys, keyPath)
			}
			return
		}
		authMethods = append(authMethods, keyAuth)
	}

	// SSH agent first (most common and convenient)
	if agentAuth := sshAgentAuth(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}

	if profile.IdentityFile != "" {
		tryKeyFile(profile.IdentityFile)
	}

	defaultKeys := []string{
		filepath.Join(homeDir(), ".ssh", "id_ed25519"),
		filepath.Join(homeDir(), ".ssh", "id_rsa"),
		filepath.Join(homeDir(), ".ssh", "id_ecdsa"),
	}
	for _, keyPath := range defaultKeys {
		if keyPath == profile.IdentityFile {
			continue
		}
		tryKeyFile(keyPath)
	}

	if opts.Password != "" {
		password := opts.Password
		authMethods = append(authMethods,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}

	if len(authMethods) == 0 {
		msg := "No SSH auth methods available"
		suggestion := "Load a key into the agent (ssh-add -l) or enter the server password when prompted"

		if len(encryptedKeys) > 0 {
			msg = fmt.Sprintf("Found SSH key(s) but they're encrypted: %s", strings.Join(encryptedKeys, ", "))
			suggestion = addKeySuggestion("Add your key(s) to the agent:\n", encryptedKeys)
		}

		return nil, encryptedKeys, errors.New(errors.ErrSSH, msg, suggestion)
	}

	config := &ssh.ClientConfig{
		User:    profile.User,
		Auth:    authMethods,
		Timeout: opts.Timeout,
	}

	if opts.InsecureIgnoreHostKey {
		emitWarning(fmt.Sprintf("host key verification is disabled for '%s'; the connection is open to man-in-the-middle attacks", profile.Alias))
		config.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // explicit opt-in
		return config, encryptedKeys, nil
	}

	knownHostsPath := opts.KnownHostsPath
	if knownHostsPath == "" {
		knownHostsPath = filepath.Join(homeDir(), ".ssh", "known_hosts")
	}
	callback, err := createHostKeyCallback(expandHome(knownHostsPath, homeDir()))
	if err != nil {
		return nil, encryptedKeys, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Failed to load known_hosts from %s", knownHostsPath),
			"Check the file exists and is readable, or pass --known-hosts")
	}
	config.HostKeyCallback = callback
	// Negotiate the key types already recorded for this host, so a server that
	// also offers another algorithm doesn't trip a false mismatch.
	config.HostKeyAlgorithms = knownHostKeyAlgorithms(callback, profile.Address())

	return config, encryptedKeys, nil
}

var (
	agentConn     net.Conn
	agentClient   agent.ExtendedAgent
	agentConnOnce sync.Once
)

// sshAgentAuth returns an auth method using the SSH agent if available.
// The agent connection is reused across multiple SSH connections.
// Returns nil if the agent has no keys loaded.
func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentConnOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return
		}
		agentConn = conn
		agentClient = agent.NewClient(conn)
	})

	if agentClient == nil {
		return nil
	}

	// An empty agent causes auth failures when placed before other methods.
	signers, err := agentClient.Signers()
	if err != nil || len(signers) == 0 {
		return nil
	}

	return ssh.PublicKeysCallback(agentClient.Signers)
}

// CloseAgent closes the SSH agent connection if one is open.
// This should be called when the application is shutting down.
func CloseAgent() {
	if agentConn != nil {
		agentConn.Close()
	}
}

// keyFileAuth returns an auth method using a private key file. Encrypted keys
// are decrypted with passphrase when one is given.
// Returns EncryptedKeyError if the key still can't be used.
func keyFileAuth(keyPath, passphrase string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err == nil {
		return ssh.PublicKeys(signer), nil
	}

	var missing *ssh.PassphraseMissingError
	if !stderrors.As(err, &missing) && !isEncryptedPEM(key) {
		return nil, err
	}

	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
		if err == nil {
			return ssh.PublicKeys(signer), nil
		}
	}
	return nil, &EncryptedKeyError{Path: keyPath}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// expandHome replaces a leading ~ or ~/ in path with home.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func addKeySuggestion(header string, keys []string) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, key := range keys {
		if runtime.GOOS == "darwin" {
			sb.WriteString(fmt.Sprintf("  ssh-add --apple-use-keychain %s\n", key))
		} else {
			sb.WriteString(fmt.Sprintf("  ssh-add %s\n", key))
		}
	}
	sb.WriteString("\nNot sure which key? Check with: ssh -v <host>")
	return sb.String()
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Try: ssh <host>"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	if strings.Contains(errStr, "no such host") {
		return "The hostname doesn't resolve. Check HostName in your SSH config."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error, encryptedKeys []string) string {
	errStr := err.Error()
	if strings.Contains(errStr, "unable to authenticate") || strings.Contains(errStr, "no supported methods") {
		if len(encryptedKeys) > 0 {
			return addKeySuggestion("Your key(s) are encrypted. Add them to the agent:\n", encryptedKeys)
		}
		return "Auth failed. Check the password you entered, or that your key is loaded: ssh-add -l"
	}
	if strings.Contains(errStr, "host key") {
		return "Host key issue. Try connecting manually first: ssh <host>"
	}
	return "Something went wrong during SSH setup. Try: ssh <host>"
}

// EncryptedKeyError is returned when an SSH key requires a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// HostKeyMismatchError provides helpful context when known_hosts verification fails.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns actionable steps to fix the host key mismatch.
func (e *HostKeyMismatchError) Suggestion() string {
	host := stripPort(e.Hostname)

	var wantTypes []string
	for _, k := range e.Want {
		wantTypes = append(wantTypes, k.Key.Type())
	}
	wantStr := "unknown"
	if len(wantTypes) > 0 {
		wantStr = strings.Join(wantTypes, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match what's in known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  If the server was reinstalled, remove the old entry:\n"+
			"    ssh-keygen -R %s",
		wantStr, e.ReceivedType, host)
}

// HostKeyUnknownError is returned when known_hosts has no entry for the server.
type HostKeyUnknownError struct {
	Hostname   string
	KnownHosts string
}

func (e *HostKeyUnknownError) Error() string {
	return fmt.Sprintf("host %s is not in %s", stripPort(e.Hostname), e.KnownHosts)
}

// Suggestion returns actionable steps to trust the host.
func (e *HostKeyUnknownError) Suggestion() string {
	return fmt.Sprintf(
		"Connect once with ssh to verify and record the host key:\n"+
			"    ssh %s exit\n\n"+
			"  Or, only if you trust the network, re-run with --insecure-ignore-host-key",
		stripPort(e.Hostname))
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// isEncryptedPEM checks if PEM data contains encryption markers.
func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED"))
}

// createHostKeyCallback wraps the knownhosts callback to provide better error messages.
func createHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		dir := filepath.Dir(knownHostsPath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if err != nil && stderrors.As(err, &keyErr) {
			if len(keyErr.Want) == 0 {
				return &HostKeyUnknownError{Hostname: hostname, KnownHosts: knownHostsPath}
			}
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   knownHostsPath,
				Want:         keyErr.Want,
			}
		}
		return err
	}, nil
}

// knownHostKeyAlgorithms probes callback with a throwaway key to learn which
// key types known_hosts holds for address. Returns nil (library defaults)
// when the host is unknown.
func knownHostKeyAlgorithms(callback ssh.HostKeyCallback, address string) []string {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil
	}
	probe, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil
	}

	err = callback(address, &net.TCPAddr{IP: net.IPv4zero, Port: 22}, probe)
	var mismatch *HostKeyMismatchError
	if !stderrors.As(err, &mismatch) {
		return nil
	}

	// Want comes from a map; keep file order so preference is stable.
	want := append([]knownhosts.KnownKey(nil), mismatch.Want...)
	sort.SliceStable(want, func(i, j int) bool { return want[i].Line < want[j].Line })

	var algos []string
	seen := make(map[string]bool)
	add := func(a string) {
		if !seen[a] {
			seen[a] = true
			algos = append(algos, a)
		}
	}
	for _, k := range want {
		if k.Key.Type() == ssh.KeyAlgoRSA {
			add(ssh.KeyAlgoRSASHA512)
			add(ssh.KeyAlgoRSASHA256)
		}
		add(k.Key.Type())
	}
	return algos
}
