package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/appd/internal/config"
	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/rileyhilliard/appd/internal/provision"
	"github.com/spf13/cobra"
)

// PlanFlags holds the values that make up a provisioning plan.
type PlanFlags struct {
	App       string
	Host      string
	Group     string
	DeployDir string
	RepoDir   string
	BaseDir   string
}

// AddPlanFlags registers --app, --host, --group, --deploy-dir, --repo-dir
// and --base-dir on a command.
func AddPlanFlags(cmd *cobra.Command, flags *PlanFlags) {
	cmd.Flags().StringVar(&flags.App, "app", "", "name of the app")
	cmd.Flags().StringVar(&flags.Host, "host", "", "SSH config alias of the server")
	cmd.Flags().StringVar(&flags.Group, "group", "", "group to create (default: the app name)")
	cmd.Flags().StringVar(&flags.DeployDir, "deploy-dir", "", "directory to deploy in (default: <base-dir>/<app>/)")
	cmd.Flags().StringVar(&flags.RepoDir, "repo-dir", "", "bare repository directory (default: <base-dir>/<app>_remote/)")
	cmd.Flags().StringVar(&flags.BaseDir, "base-dir", "", "parent of the default directories (default /opt)")
}

// Answers returns the flag values as plan answers.
func (f PlanFlags) Answers() provision.Answers {
	return provision.Answers{
		AppName:   f.App,
		Host:      f.Host,
		Group:     f.Group,
		DeployDir: f.DeployDir,
		RepoDir:   f.RepoDir,
	}
}

// ConnectionFlags holds the SSH settings that can override the config file.
type ConnectionFlags struct {
	SSHConfig             string
	KnownHosts            string
	InsecureIgnoreHostKey bool
	ConnectTimeout        string
	RemoteName            string
}

// AddConnectionFlags registers the SSH and remote-name flags on a command.
func AddConnectionFlags(cmd *cobra.Command, flags *ConnectionFlags) {
	cmd.Flags().StringVar(&flags.SSHConfig, "ssh-config", "", "SSH client config (default ~/.ssh/config)")
	cmd.Flags().StringVar(&flags.KnownHosts, "known-hosts", "", "known_hosts file (default ~/.ssh/known_hosts)")
	cmd.Flags().BoolVar(&flags.InsecureIgnoreHostKey, "insecure-ignore-host-key", false,
		"INSECURE: accept any host key without verification")
	cmd.Flags().StringVar(&flags.ConnectTimeout, "connect-timeout", "", "SSH connect timeout (e.g., 5s, 1m)")
	cmd.Flags().StringVar(&flags.RemoteName, "remote-name", "", "git remote name to suggest (default public)")
}

// Apply returns a copy of cfg with every flag the user set layered on top.
func (f ConnectionFlags) Apply(cfg config.Config) (config.Config, error) {
	if f.SSHConfig != "" {
		cfg.SSHConfig = config.ExpandTilde(f.SSHConfig)
	}
	if f.KnownHosts != "" {
		cfg.KnownHosts = config.ExpandTilde(f.KnownHosts)
	}
	if f.InsecureIgnoreHostKey {
		cfg.InsecureIgnoreHostKey = true
	}
	if f.RemoteName != "" {
		cfg.RemoteName = f.RemoteName
	}

	timeout, err := ParseTimeout(f.ConnectTimeout)
	if err != nil {
		return cfg, err
	}
	if timeout > 0 {
		cfg.ConnectTimeout = timeout
	}

	if err := config.Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseTimeout parses a timeout flag into a duration.
// Returns zero duration if the flag is empty.
func ParseTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	return duration, nil
}

// baseDir picks --base-dir over the configured base directory.
func baseDir(f PlanFlags, cfg config.Config) string {
	if f.BaseDir != "" {
		return f.BaseDir
	}
	return cfg.BaseDir
}
