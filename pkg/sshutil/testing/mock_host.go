// Package testing provides SSH mock utilities for testing.
// This package simulates a Linux machine with groups, directories, ACLs and
// sudo, shared across any number of mock connections.
package testing

import (
	"path"
	"strings"
	"sync"
)

// Dir is the simulated state of one remote directory.
type Dir struct {
	Group      string
	GroupWrite bool
	SetGID     bool
	ACL        []string // setfacl -m specs, in the order applied
	BareRepo   bool
	RootOwned  bool
}

// Call is one command received by any connection to the host.
type Call struct {
	Conn  int // 1-based connection number
	Cmd   string
	Stdin []byte
}

// MockHost simulates the state of a remote Linux machine.
// Connections opened with Connect share this state.
type MockHost struct {
	mu           sync.Mutex
	name         string
	sudoPassword string
	groups       map[string]map[string]struct{} // group -> members
	dirs         map[string]*Dir
	calls        []Call
	conns        int
	open         int
	commands     map[string]CommandResponse
	gitHints     bool
	dialErr      error
	dials        []DialRecord
}

// NewMockHost creates a host with / and /opt owned by root.
// sudoPassword is what sudo -S expects; empty means NOPASSWD.
func NewMockHost(name, sudoPassword string) *MockHost {
	return &MockHost{
		name:         name,
		sudoPassword: sudoPassword,
		groups:       make(map[string]map[string]struct{}),
		dirs: map[string]*Dir{
			"/":    {Group: "root", RootOwned: true},
			"/opt": {Group: "root", RootOwned: true},
		},
		commands: make(map[string]CommandResponse),
	}
}

// Name returns the host name.
func (h *MockHost) Name() string {
	return h.name
}

// AddGroup creates a group with the given members.
func (h *MockHost) AddGroup(group string, members ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.groups[group]
	if !ok {
		set = make(map[string]struct{})
		h.groups[group] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
}

// HasGroup returns true if the group exists.
func (h *MockHost) HasGroup(group string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.groups[group]
	return ok
}

// IsMember returns true if user is a member of group.
func (h *MockHost) IsMember(group, user string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.groups[group][user]
	return ok
}

// MkdirAll creates a root-owned directory and its parents.
func (h *MockHost) MkdirAll(p string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p = path.Clean(p)
	for cur := p; cur != "/"; cur = path.Dir(cur) {
		if _, ok := h.dirs[cur]; !ok {
			h.dirs[cur] = &Dir{Group: "root", RootOwned: true}
		}
	}
}

// Dir returns a copy of the directory state, or false if it doesn't exist.
func (h *MockHost) Dir(p string) (Dir, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.dirs[path.Clean(p)]
	if !ok {
		return Dir{}, false
	}
	out := *d
	out.ACL = append([]string(nil), d.ACL...)
	return out, true
}

// Calls returns every command received so far, in order.
func (h *MockHost) Calls() []Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Call(nil), h.calls...)
}

// Commands returns just the command strings received so far.
func (h *MockHost) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.calls))
	for i, c := range h.calls {
		out[i] = c.Cmd
	}
	return out
}

// Connections returns how many connections were ever opened.
func (h *MockHost) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conns
}

// OpenConnections returns how many connections are currently open.
func (h *MockHost) OpenConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

// SetCommandResponse registers a canned response for a command pattern.
// The pattern can be an exact string or a regex pattern, and applies to
// every connection.
func (h *MockHost) SetCommandResponse(pattern string, resp CommandResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands[pattern] = resp
}

// Connect opens a new connection logged in as user. The user's group
// memberships are captured now, as a real login would; later usermod
// calls are only visible to connections opened afterwards.
func (h *MockHost) Connect(user string) *MockClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns++
	h.open++

	groups := map[string]struct{}{user: {}}
	for g, members := range h.groups {
		if _, ok := members[user]; ok {
			groups[g] = struct{}{}
		}
	}

	return &MockClient{
		host:    h,
		conn:    h.conns,
		user:    user,
		groups:  groups,
		address: h.name + ":22",
	}
}

func (h *MockHost) record(c Call) {
	h.calls = append(h.calls, c)
}

func (h *MockHost) closeConn() {
	if h.open > 0 {
		h.open--
	}
}

// canWrite reports whether a connection with the given identity can create
// entries inside dir.
func (d *Dir) canWrite(privileged bool, groups map[string]struct{}) bool {
	if privileged {
		return true
	}
	if !d.GroupWrite {
		return false
	}
	_, member := groups[d.Group]
	return member
}

func cleanDir(p string) string {
	return path.Clean(strings.TrimSpace(p))
}
