package testing

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// sudoPrefix is how callers ask for elevated execution with the password on stdin.
const sudoPrefix = `sudo -S -p "" `

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// MockClient is one simulated SSH connection to a MockHost.
// It parses the provisioning commands and applies them to the host state.
type MockClient struct {
	host    *MockHost
	conn    int
	user    string
	groups  map[string]struct{} // captured at login
	address string
	closed  bool
}

// Exec runs a command against the simulated host.
// Canned responses registered on the host win over simulation.
func (m *MockClient) Exec(cmd string, stdin []byte) (stdout, stderr []byte, exitCode int, err error) {
	h := m.host
	h.mu.Lock()
	defer h.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}

	h.record(Call{Conn: m.conn, Cmd: cmd, Stdin: append([]byte(nil), stdin...)})

	// Check for exact command matches first
	if resp, ok := h.commands[cmd]; ok {
		return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
	}

	// Check for pattern matches
	for pattern, resp := range h.commands {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Error
		}
	}

	return m.simulate(cmd, stdin)
}

// Close marks the connection as closed. Closing twice is a no-op.
func (m *MockClient) Close() error {
	m.host.mu.Lock()
	defer m.host.mu.Unlock()
	if !m.closed {
		m.closed = true
		m.host.closeConn()
	}
	return nil
}

// Closed returns true once Close has been called.
func (m *MockClient) Closed() bool {
	m.host.mu.Lock()
	defer m.host.mu.Unlock()
	return m.closed
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host.name
}

// GetAddress returns the host:port address.
func (m *MockClient) GetAddress() string {
	return m.address
}

// User returns the login user of this connection.
func (m *MockClient) User() string {
	return m.user
}

type result struct {
	stdout string
	stderr string
	code   int
}

func (r result) unpack() ([]byte, []byte, int, error) {
	var stdout, stderr []byte
	if r.stdout != "" {
		stdout = []byte(r.stdout)
	}
	if r.stderr != "" {
		stderr = []byte(r.stderr)
	}
	return stdout, stderr, r.code, nil
}

func fail(code int, format string, args ...interface{}) result {
	return result{stderr: fmt.Sprintf(format, args...) + "\n", code: code}
}

// simulate handles the commands the provisioner issues. Called with the
// host lock held.
func (m *MockClient) simulate(cmd string, stdin []byte) ([]byte, []byte, int, error) {
	h := m.host
	privileged := false

	if strings.HasPrefix(cmd, sudoPrefix) {
		if h.sudoPassword != "" && string(stdin) != h.sudoPassword+"\n" {
			return fail(1, "Sorry, try again.\nsudo: 1 incorrect password attempt").unpack()
		}
		privileged = true
		cmd = strings.TrimPrefix(cmd, sudoPrefix)
	}

	workDir := ""
	if before, after, ok := strings.Cut(cmd, " && "); ok && strings.HasPrefix(before, "cd ") {
		args := splitArgs(before)
		if len(args) != 2 {
			return fail(1, "bash: line 1: cd: too many arguments").unpack()
		}
		if _, ok := h.dirs[cleanDir(args[1])]; !ok {
			return fail(1, "bash: line 1: cd: %s: No such file or directory", args[1]).unpack()
		}
		workDir = args[1]
		cmd = after
	}

	args := splitArgs(cmd)
	if len(args) == 0 {
		return nil, nil, 0, nil
	}

	switch args[0] {
	case "groupadd":
		return m.groupadd(args[1:], privileged).unpack()
	case "usermod":
		return m.usermod(args[1:], privileged).unpack()
	case "mkdir":
		return m.mkdir(args[1:], privileged).unpack()
	case "chown":
		return m.chown(args[1:], privileged).unpack()
	case "setfacl":
		return m.setfacl(args[1:], privileged).unpack()
	case "chmod":
		return m.chmod(args[1:], privileged).unpack()
	case "git":
		return m.git(args[1:], workDir, privileged).unpack()
	case "id":
		return m.id(args[1:]).unpack()
	case "echo":
		return result{stdout: strings.Join(args[1:], " ") + "\n"}.unpack()
	case "true":
		return nil, nil, 0, nil
	}

	return fail(127, "bash: line 1: %s: command not found", args[0]).unpack()
}

func (m *MockClient) groupadd(args []string, privileged bool) result {
	if len(args) != 1 {
		return fail(2, "Usage: groupadd [options] GROUP")
	}
	if !privileged {
		return fail(10, "groupadd: Permission denied.\ngroupadd: cannot lock /etc/group; try again later.")
	}
	group := args[0]
	if _, ok := m.host.groups[group]; ok {
		return fail(9, "groupadd: group '%s' already exists", group)
	}
	m.host.groups[group] = make(map[string]struct{})
	return result{}
}

// usermod supports only: usermod -a -G GROUP USER
func (m *MockClient) usermod(args []string, privileged bool) result {
	if len(args) != 4 || args[0] != "-a" || args[1] != "-G" {
		return fail(2, "Usage: usermod [options] LOGIN")
	}
	if !privileged {
		return fail(1, "usermod: Permission denied.\nusermod: cannot lock /etc/passwd; try again later.")
	}
	group, user := args[2], args[3]
	members, ok := m.host.groups[group]
	if !ok {
		return fail(6, "usermod: group '%s' does not exist", group)
	}
	members[user] = struct{}{}
	return result{}
}

func (m *MockClient) mkdir(args []string, privileged bool) result {
	if len(args) != 1 {
		return fail(1, "mkdir: missing operand")
	}
	arg := args[0]
	p := cleanDir(arg)
	if _, ok := m.host.dirs[p]; ok {
		return fail(1, "mkdir: cannot create directory '%s': File exists", arg)
	}
	parent, ok := m.host.dirs[parentDir(p)]
	if !ok {
		return fail(1, "mkdir: cannot create directory '%s': No such file or directory", arg)
	}
	if !parent.canWrite(privileged, m.groups) {
		return fail(1, "mkdir: cannot create directory '%s': Permission denied", arg)
	}

	d := &Dir{Group: m.user, RootOwned: privileged}
	if privileged {
		d.Group = "root"
	}
	// setgid parents pass their group down
	if parent.SetGID {
		d.Group = parent.Group
		d.SetGID = true
	}
	m.host.dirs[p] = d
	return result{}
}

// chown supports only group changes: chown :GROUP DIR
func (m *MockClient) chown(args []string, privileged bool) result {
	if len(args) != 2 || !strings.HasPrefix(args[0], ":") {
		return fail(1, "chown: missing operand")
	}
	group := strings.TrimPrefix(args[0], ":")
	arg := args[1]
	if _, ok := m.host.groups[group]; !ok {
		return fail(1, "chown: invalid group: '%s'", args[0])
	}
	d, ok := m.host.dirs[cleanDir(arg)]
	if !ok {
		return fail(1, "chown: cannot access '%s': No such file or directory", arg)
	}
	if !privileged {
		return fail(1, "chown: changing group of '%s': Operation not permitted", arg)
	}
	d.Group = group
	return result{}
}

// setfacl supports only: setfacl -m SPEC DIR
func (m *MockClient) setfacl(args []string, privileged bool) result {
	if len(args) != 3 || args[0] != "-m" {
		return fail(2, "setfacl: Option -m: Invalid argument")
	}
	spec, arg := args[1], args[2]
	for _, entry := range strings.Split(spec, ",") {
		fields := strings.Split(strings.TrimPrefix(entry, "d:"), ":")
		if len(fields) == 3 && fields[0] == "g" && fields[1] != "" {
			if _, ok := m.host.groups[fields[1]]; !ok {
				return fail(1, "setfacl: Option -m: Invalid argument near character %d", strings.Index(spec, entry)+1)
			}
		}
	}
	d, ok := m.host.dirs[cleanDir(arg)]
	if !ok {
		return fail(1, "setfacl: %s: No such file or directory", arg)
	}
	if !privileged {
		return fail(1, "setfacl: %s: Operation not permitted", arg)
	}
	d.ACL = append(d.ACL, spec)
	return result{}
}

// chmod supports only symbolic group modes: chmod g+ws DIR
func (m *MockClient) chmod(args []string, privileged bool) result {
	if len(args) != 2 || !strings.HasPrefix(args[0], "g+") {
		return fail(1, "chmod: invalid mode: '%s'", strings.Join(args, " "))
	}
	mode, arg := strings.TrimPrefix(args[0], "g+"), args[1]
	d, ok := m.host.dirs[cleanDir(arg)]
	if !ok {
		return fail(1, "chmod: cannot access '%s': No such file or directory", arg)
	}
	if !privileged {
		return fail(1, "chmod: changing permissions of '%s': Operation not permitted", arg)
	}
	if strings.Contains(mode, "w") {
		d.GroupWrite = true
	}
	if strings.Contains(mode, "s") {
		d.SetGID = true
	}
	return result{}
}

// git supports only: git init --bare, run in the cd'd directory.
func (m *MockClient) git(args []string, workDir string, privileged bool) result {
	if len(args) != 2 || args[0] != "init" || args[1] != "--bare" {
		return fail(1, "git: '%s' is not a git command. See 'git --help'.", strings.Join(args, " "))
	}
	if workDir == "" {
		workDir = "/home/" + m.user
		if _, ok := m.host.dirs[workDir]; !ok {
			m.host.dirs[workDir] = &Dir{Group: m.user}
		}
	}
	d := m.host.dirs[cleanDir(workDir)]
	gitDir := strings.TrimSuffix(workDir, "/") + "/"

	if !d.canWrite(privileged, m.groups) {
		return fail(1, "%sdescription: Permission denied\nfatal: cannot copy '/usr/share/git-core/templates/description' to '%sdescription': Permission denied", gitDir, gitDir)
	}

	var res result
	if m.host.gitHints {
		res.stderr = "hint: Using 'master' as the name for the initial branch. This default branch name\n" +
			"hint: is subject to change. To configure the initial branch name to use in all\n" +
			"hint: of your new repositories, which will suppress this warning, call:\n"
	}
	if d.BareRepo {
		res.stdout = "Reinitialized existing Git repository in " + gitDir + "\n"
		return res
	}
	d.BareRepo = true
	res.stdout = "Initialized empty Git repository in " + gitDir + "\n"
	return res
}

func (m *MockClient) id(args []string) result {
	if len(args) == 1 && args[0] == "-un" {
		return result{stdout: m.user + "\n"}
	}
	if len(args) == 1 && args[0] == "-nG" {
		names := make([]string, 0, len(m.groups))
		for g := range m.groups {
			names = append(names, g)
		}
		sort.Strings(names)
		return result{stdout: strings.Join(names, " ") + "\n"}
	}
	return fail(1, "id: invalid option")
}

func parentDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}

// splitArgs splits a command line into words the way a POSIX shell would
// for plain words, single quotes, double quotes and backslash escapes.
// Expansions and operators are not interpreted.
func splitArgs(s string) []string {
	var (
		args     []string
		cur      strings.Builder
		inWord   bool
		inSingle bool
		inDouble bool
		escaped  bool
	)

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inSingle:
			if r == '\'' {
				inSingle = false
			} else {
				cur.WriteRune(r)
			}
		case inDouble:
			switch r {
			case '"':
				inDouble = false
			case '\\':
				escaped = true
			default:
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inWord = true
		case r == '\'':
			inSingle = true
			inWord = true
		case r == '"':
			inDouble = true
			inWord = true
		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args
}
