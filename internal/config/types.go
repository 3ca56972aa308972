package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
const CurrentConfigVersion = 1

// Config holds user-level appd settings. Command-line flags override
// every field.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// SSHConfig is the SSH client config used to resolve host aliases.
	// Empty means ~/.ssh/config.
	SSHConfig string `yaml:"ssh_config" mapstructure:"ssh_config"`

	// KnownHosts is the known_hosts file for host key verification.
	// Empty means ~/.ssh/known_hosts.
	KnownHosts string `yaml:"known_hosts" mapstructure:"known_hosts"`

	// InsecureIgnoreHostKey turns off host key verification for every
	// connection. A warning is printed each time it takes effect.
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key" mapstructure:"insecure_ignore_host_key"`

	// ConnectTimeout bounds the TCP connect and SSH handshake.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// BaseDir is where default deploy and repo directories are created.
	BaseDir string `yaml:"base_dir" mapstructure:"base_dir"`

	// RemoteName is the git remote name shown in the summary and used by
	// --add-remote.
	RemoteName string `yaml:"remote_name" mapstructure:"remote_name"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:        CurrentConfigVersion,
		ConnectTimeout: 10 * time.Second,
		BaseDir:        "/opt",
		RemoteName:     "public",
	}
}
