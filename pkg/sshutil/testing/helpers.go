package testing

import (
	"github.com/rileyhilliard/appd/pkg/sshutil"
)

// DialRecord captures one dial attempt made through Dialer.
type DialRecord struct {
	Profile sshutil.HostProfile
	Options sshutil.DialOptions
}

// Dialer returns an sshutil.Dialer that connects to this host as the
// profile's user.
func (h *MockHost) Dialer() sshutil.Dialer {
	return func(profile sshutil.HostProfile, opts sshutil.DialOptions) (sshutil.SSHClient, error) {
		h.mu.Lock()
		h.dials = append(h.dials, DialRecord{Profile: profile, Options: opts})
		err := h.dialErr
		h.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return h.Connect(profile.User), nil
	}
}

// Dials returns every dial attempt made through Dialer.
func (h *MockHost) Dials() []DialRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DialRecord(nil), h.dials...)
}

// FailDials makes subsequent dials return err. Pass nil to restore.
func (h *MockHost) FailDials(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dialErr = err
}

// EmitGitHints makes git init print the default-branch hint on stderr,
// as git 2.28+ does when init.defaultBranch is unset.
func (h *MockHost) EmitGitHints(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gitHints = on
}

// WithGroups pre-populates groups. Keys are group names, values members.
func WithGroups(host *MockHost, groups map[string][]string) {
	for group, members := range groups {
		host.AddGroup(group, members...)
	}
}

// WithDirs pre-populates root-owned directories.
func WithDirs(host *MockHost, dirs []string) {
	for _, dir := range dirs {
		host.MkdirAll(dir)
	}
}
