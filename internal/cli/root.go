package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/rileyhilliard/appd/internal/config"
	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/rileyhilliard/appd/internal/logger"
	"github.com/rileyhilliard/appd/internal/ui"
	"github.com/rileyhilliard/appd/pkg/sshutil"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

// appConfig is loaded once per invocation by the root PersistentPreRunE.
var appConfig = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "appd",
	Short: "Provision a server for git push-to-deploy",
	Long: `appd prepares a remote server for push-to-deploy in one shot.

It connects over SSH using your ~/.ssh/config, creates a group for the app,
adds you to it, creates a deploy directory and a bare git repository with
group-shared permissions, and prints the git remote to add locally.

Examples:
  appd provision
  appd provision --app blog --host web1
  appd plan --app blog --host web1 --format yaml
  appd hosts`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initGlobals,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.config/appd/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&machineMode, "json", false, "machine-readable JSON output")
}

// initGlobals loads config and sets up logging and colors for every command.
func initGlobals(cmd *cobra.Command, _ []string) error {
	debug := verbose || env.Getenv(logger.DebugEnv) != ""
	logger.SetDefault(logger.New("appd", env.Stderr, debug))

	if machineMode || !env.Interactive {
		noColor = true
	}
	ui.ConfigureColors(noColor)

	cfg, err := config.LoadOrDefault(env.FS, cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg
	return nil
}

// Execute runs the root command and exits non-zero on any error.
func Execute() {
	err := run(os.Args[1:])
	sshutil.CloseAgent()
	if err != nil {
		os.Exit(1)
	}
}

// run executes the command tree with args and reports a returned error on
// stderr (or as a JSON envelope on stdout in --json mode).
func run(args []string) error {
	rootCmd.SetArgs(args)
	rootCmd.SetIn(env.Stdin)
	rootCmd.SetOut(env.Stdout)
	rootCmd.SetErr(env.Stderr)

	err := rootCmd.Execute()
	if err == nil {
		return nil
	}

	if machineMode {
		_ = WriteJSONFromError(env.Stdout, err)
		return err
	}

	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		fmt.Fprint(env.Stderr, "\n"+err.Error())
	} else {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		if isUnknownCommandError(err) {
			fmt.Fprintf(env.Stderr, "Run 'appd --help' to see the available commands.\n")
		}
	}
	return err
}

// isUnknownCommandError checks if the error is from cobra for an unknown
// command or flag.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}
