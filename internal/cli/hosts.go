package cli

import (
	"fmt"

	"github.com/rileyhilliard/appd/internal/config"
	"github.com/rileyhilliard/appd/internal/ui"
	"github.com/rileyhilliard/appd/pkg/sshutil"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// HostOutput is one SSH config host in `appd hosts --json`.
type HostOutput struct {
	Alias        string `json:"alias"`
	Hostname     string `json:"hostname"`
	User         string `json:"user,omitempty"`
	Port         string `json:"port,omitempty"`
	IdentityFile string `json:"identity_file,omitempty"`
	Usable       bool   `json:"usable"`
}

var hostsSSHConfig string

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List hosts from your SSH config",
	Long: `List the Host aliases in your SSH config that provision can target.

Wildcard patterns are left out. Entries without a User line are shown but
can't be provisioned until one is added.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostsCommand(hostsSSHConfig)
	},
}

func init() {
	rootCmd.AddCommand(hostsCmd)
	hostsCmd.Flags().StringVar(&hostsSSHConfig, "ssh-config", "", "SSH client config (default ~/.ssh/config)")
}

func hostsCommand(sshConfig string) error {
	path := appConfig.SSHConfig
	if sshConfig != "" {
		path = config.ExpandTilde(sshConfig)
	}

	entries, err := sshutil.NewResolver(env.FS, path).Hosts()
	if err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(env.Stdout, lo.Map(entries, func(e sshutil.SSHHostEntry, _ int) HostOutput {
			return HostOutput{
				Alias:        e.Alias,
				Hostname:     lo.Ternary(e.Hostname != "", e.Hostname, e.Alias),
				User:         e.User,
				Port:         e.Port,
				IdentityFile: e.IdentityFile,
				Usable:       e.User != "",
			}
		}))
	}

	fmt.Fprintln(env.Stdout, ui.RenderHostsTable(entries))
	if missing := lo.CountBy(entries, func(e sshutil.SSHHostEntry) bool { return e.User == "" }); missing > 0 {
		fmt.Fprintf(env.Stdout, "\n%d host(s) have no User line and can't be provisioned yet.\n", missing)
	}
	return nil
}
