package sshutil

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/spf13/afero"
)

// HostProfile holds the connection parameters resolved for one SSH config alias.
type HostProfile struct {
	Alias        string // The name that was looked up
	Hostname     string // HostName, or the alias when HostName is not set
	Port         string
	User         string
	IdentityFile string // Optional, with ~ expanded
}

// Address returns the host:port string for dialing.
func (p HostProfile) Address() string {
	return net.JoinHostPort(p.Hostname, p.Port)
}

// SSHHostEntry represents a parsed host entry from SSH config.
type SSHHostEntry struct {
	Alias        string // The Host pattern (alias)
	Hostname     string // The HostName value (actual host to connect to)
	User         string // The User value
	Port         string // The Port value
	IdentityFile string // The IdentityFile value
}

// Description returns a user-friendly description of the host.
func (h SSHHostEntry) Description() string {
	parts := []string{}

	if h.Hostname != "" && h.Hostname != h.Alias {
		parts = append(parts, h.Hostname)
	}

	if h.User != "" {
		parts = append(parts, "user: "+h.User)
	}

	if h.Port != "" && h.Port != "22" {
		parts = append(parts, "port: "+h.Port)
	}

	if len(parts) == 0 {
		return h.Alias
	}

	return strings.Join(parts, ", ")
}

// Resolver looks up host aliases in a single SSH client config file.
type Resolver struct {
	fs   afero.Fs
	path string
	home string
}

// DefaultConfigPath returns ~/.ssh/config.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".ssh", "config")
}

// NewResolver creates a resolver reading path from fs.
// An empty path means ~/.ssh/config.
func NewResolver(fs afero.Fs, path string) *Resolver {
	if path == "" {
		path = DefaultConfigPath()
	}
	home := homeDir()
	return &Resolver{
		fs:   fs,
		path: expandHome(path, home),
		home: home,
	}
}

// Path returns the config file the resolver reads.
func (r *Resolver) Path() string {
	return r.path
}

// Lookup resolves alias to a HostProfile.
//
// Unlike Dial-time resolution this is strict: the alias must be named by a
// Host block (the catch-all "Host *" alone does not count) and the entry must
// carry a User. Both failures are ErrConfig errors.
func (r *Resolver) Lookup(alias string) (HostProfile, error) {
	cfg, matchLine, err := r.decode()
	if err != nil {
		return HostProfile{}, err
	}

	if !hasHostEntry(cfg, alias) {
		suggestion := fmt.Sprintf("Add an entry to %s:\n\n    Host %s\n        HostName <address>\n        User <login>", r.path, alias)
		if matchLine > 0 {
			suggestion += fmt.Sprintf("\n\n  The config has a Match block at line %d; entries after it are not read. Move the Host block above it.", matchLine)
		}
		return HostProfile{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("No SSH config entry for '%s'", alias),
			suggestion)
	}

	get := func(key string) (string, error) {
		v, err := cfg.Get(alias, key)
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Invalid %s for '%s' in %s", key, alias, r.path),
				"Check the value with: ssh -G "+alias)
		}
		return strings.TrimSpace(v), nil
	}

	user, err := get("User")
	if err != nil {
		return HostProfile{}, err
	}
	if user == "" {
		return HostProfile{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("SSH config entry for '%s' has no User", alias),
			fmt.Sprintf("Add a 'User <login>' line to the Host %s block in %s", alias, r.path))
	}

	profile := HostProfile{
		Alias:    alias,
		Hostname: alias,
		Port:     "22",
		User:     user,
	}

	if hostname, err := get("HostName"); err != nil {
		return HostProfile{}, err
	} else if hostname != "" {
		profile.Hostname = hostname
	}

	if port, err := get("Port"); err != nil {
		return HostProfile{}, err
	} else if port != "" {
		profile.Port = port
	}

	if identity, err := get("IdentityFile"); err != nil {
		return HostProfile{}, err
	} else if identity != "" {
		profile.IdentityFile = expandHome(identity, r.home)
	}

	return profile, nil
}

// Hosts returns all concrete host entries, excluding wildcard patterns.
// A missing config file yields no hosts and no error.
func (r *Resolver) Hosts() ([]SSHHostEntry, error) {
	exists, err := afero.Exists(r.fs, r.path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't read SSH config at %s", r.path),
			"Check the file permissions")
	}
	if !exists {
		return nil, nil // No SSH config is fine
	}

	cfg, _, err := r.decode()
	if err != nil {
		return nil, err
	}

	var hosts []SSHHostEntry
	seen := make(map[string]bool)

	for _, host := range cfg.Hosts {
		for _, pattern := range host.Patterns {
			alias := pattern.String()

			// Skip wildcards and special patterns
			if strings.ContainsAny(alias, "*?!") {
				continue
			}

			if seen[alias] {
				continue
			}
			seen[alias] = true

			entry := SSHHostEntry{
				Alias: alias,
			}

			if hostname, _ := cfg.Get(alias, "HostName"); hostname != "" {
				entry.Hostname = hostname
			}

			if user, _ := cfg.Get(alias, "User"); user != "" {
				entry.User = user
			}

			if port, _ := cfg.Get(alias, "Port"); port != "" {
				entry.Port = port
			}

			if identity, _ := cfg.Get(alias, "IdentityFile"); identity != "" {
				entry.IdentityFile = expandHome(identity, r.home)
			}

			hosts = append(hosts, entry)
		}
	}

	sort.Slice(hosts, func(i, j int) bool {
		return hosts[i].Alias < hosts[j].Alias
	})

	return hosts, nil
}

// decode reads and parses the config, returning the line of the first Match
// directive (0 if none) so callers can explain missing entries.
func (r *Resolver) decode() (*ssh_config.Config, int, error) {
	content, matchLine, err := preprocessSSHConfig(r.fs, r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("SSH config not found at %s", r.path),
				"Create it with a Host block for your server, or point --ssh-config at another file")
		}
		return nil, 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't read SSH config at %s", r.path),
			"Check the file permissions")
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't parse SSH config at %s", r.path),
			"Check the syntax with: ssh -G <host>")
	}
	return cfg, matchLine, nil
}

// hasHostEntry reports whether a Host block other than the bare catch-all
// matches alias.
func hasHostEntry(cfg *ssh_config.Config, alias string) bool {
	for _, host := range cfg.Hosts {
		if isCatchAll(host) {
			continue
		}
		if host.Matches(alias) {
			return true
		}
	}
	return false
}

func isCatchAll(host *ssh_config.Host) bool {
	for _, p := range host.Patterns {
		if p.String() != "*" {
			return false
		}
	}
	return true
}

// preprocessSSHConfig reads the SSH config and returns content up to the first Match directive.
// The kevinburke/ssh_config library doesn't support Match, so anything after it is dropped.
// Also returns the line number where Match was found (0 if not found).
func preprocessSSHConfig(fs afero.Fs, configPath string) ([]byte, int, error) {
	content, err := afero.ReadFile(fs, configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}
