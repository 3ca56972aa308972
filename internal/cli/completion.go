package cli

import (
	"fmt"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate a shell completion script",
	Long: `Generate a completion script for your shell.

Examples:
  appd completion bash > /etc/bash_completion.d/appd
  appd completion zsh > "${fpath[1]}/_appd"
  appd completion fish > ~/.config/fish/completions/appd.fish`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	// No config or logging needed to print a script
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		out := env.Stdout
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
		return errors.New(errors.ErrInput,
			fmt.Sprintf("Unsupported shell '%s'", args[0]),
			"Use bash, zsh, fish or powershell")
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
