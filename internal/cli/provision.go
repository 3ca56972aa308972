package cli

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/appd/internal/config"
	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/rileyhilliard/appd/internal/logger"
	"github.com/rileyhilliard/appd/internal/provision"
	"github.com/rileyhilliard/appd/internal/remote"
	"github.com/rileyhilliard/appd/internal/ui"
	"github.com/rileyhilliard/appd/pkg/sshutil"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// ProvisionOptions configures the provision command behavior.
type ProvisionOptions struct {
	Plan          PlanFlags
	Connection    ConnectionFlags
	PasswordStdin bool // Read the password from the first line of stdin
	AddRemote     bool // Register the git remote in the local repository
}

// ProvisionOutput is the JSON output structure for machine mode.
type ProvisionOutput struct {
	Plan             provision.Plan `json:"plan"`
	User             string         `json:"user"`
	RemoteName       string         `json:"remote_name"`
	RemotePath       string         `json:"remote_path"`
	RemoteAddCommand string         `json:"remote_add_command"`
	RemoteAdded      bool           `json:"remote_added"`
}

var provisionOpts ProvisionOptions

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Set up a server for git push-to-deploy",
	Long: `Provision a server for push-to-deploy.

Creates a group for the app and adds your login user to it, then creates
the bare repository and deploy directories with setgid and default ACLs so
everything inside stays writable by the group, and initializes the bare
repository. Any command that writes to stderr stops the run; steps that
already ran are left in place.

Values not given as flags are prompted for when running in a terminal.

Examples:
  appd provision
  appd provision --app blog --host web1
  echo "$PW" | appd provision --app blog --host web1 --password-stdin
  appd provision --app blog --host web1 --add-remote`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return provisionCommand(provisionOpts)
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	AddPlanFlags(provisionCmd, &provisionOpts.Plan)
	AddConnectionFlags(provisionCmd, &provisionOpts.Connection)
	provisionCmd.Flags().BoolVar(&provisionOpts.PasswordStdin, "password-stdin", false,
		"read the server password from stdin")
	provisionCmd.Flags().BoolVar(&provisionOpts.AddRemote, "add-remote", false,
		"add the git remote to the repository in the current directory")
}

// provisionCommand implements the provision command logic.
func provisionCommand(opts ProvisionOptions) error {
	log := logger.Default()

	cfg, err := opts.Connection.Apply(*appConfig)
	if err != nil {
		return err
	}
	resolver := sshutil.NewResolver(env.FS, cfg.SSHConfig)

	answers, err := collectAnswers(opts.Plan, resolver, cfg)
	if err != nil {
		return err
	}
	plan, err := provision.NewPlan(answers, baseDir(opts.Plan, cfg))
	if err != nil {
		return err
	}

	workDir := ""
	if opts.AddRemote {
		workDir, err = checkLocalRemote(cfg.RemoteName, plan.RemotePath())
		if err != nil {
			return err
		}
	}

	progress := env.Stdout
	if machineMode {
		progress = env.Stderr
	}
	display := ui.NewPhaseDisplay(progress, env.Interactive && !machineMode)

	restore := routeWarnings(display)
	defer restore()

	session, err := remote.New(plan.Host, remote.Options{
		Resolver: resolver,
		Password: passwordSource(opts.PasswordStdin),
		Dialer:   env.Dialer,
		Dial: sshutil.DialOptions{
			KnownHostsPath:        cfg.KnownHosts,
			InsecureIgnoreHostKey: cfg.InsecureIgnoreHostKey,
			Timeout:               cfg.ConnectTimeout,
			Logger:                log,
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	result, err := provision.NewProvisioner(display, log, cfg.RemoteName).Run(plan, session)
	if err != nil {
		return err
	}

	added := false
	if opts.AddRemote {
		if err := addLocalRemote(workDir, result); err != nil {
			return err
		}
		added = true
	}

	if machineMode {
		return WriteJSONSuccess(env.Stdout, ProvisionOutput{
			Plan:             result.Plan,
			User:             result.User,
			RemoteName:       result.RemoteName,
			RemotePath:       result.RemotePath,
			RemoteAddCommand: result.RemoteAddCommand(),
			RemoteAdded:      added,
		})
	}

	display.Newline()
	if added {
		fmt.Fprint(env.Stdout, ui.RenderRemoteAdded(result.RemoteName, result.RemotePath))
		return nil
	}
	fmt.Fprint(env.Stdout, ui.RenderProvisionSummary(result.RemoteName, result.RemotePath))
	return nil
}

// collectAnswers starts from the flags and prompts for anything missing
// when a terminal is available.
func collectAnswers(flags PlanFlags, resolver *sshutil.Resolver, cfg config.Config) (provision.Answers, error) {
	answers := flags.Answers()
	if !env.Interactive || machineMode {
		return answers, nil
	}
	if answers.AppName != "" && answers.Host != "" && answers.Group != "" &&
		answers.DeployDir != "" && answers.RepoDir != "" {
		return answers, nil
	}

	var hosts []sshutil.SSHHostEntry
	if answers.Host == "" {
		entries, err := resolver.Hosts()
		if err != nil {
			logger.Default().Debug("listing SSH hosts: %v", err)
		}
		hosts = lo.Filter(entries, func(h sshutil.SSHHostEntry, _ int) bool {
			return h.User != ""
		})
	}

	return env.Prompter.Answers(answers, hosts, baseDir(flags, cfg))
}

// passwordSource returns how the session gets its password: stdin when
// asked for, then APPD_PASSWORD, then a prompt on a terminal, else empty.
func passwordSource(fromStdin bool) remote.PasswordFunc {
	return func(profile sshutil.HostProfile) (string, error) {
		if fromStdin {
			return readPasswordLine(env.Stdin)
		}
		if pw := env.Getenv(PasswordEnv); pw != "" {
			return pw, nil
		}
		if env.Interactive && !machineMode {
			return env.Prompter.Password(profile)
		}
		return "", nil
	}
}

// routeWarnings shows SSH warnings (insecure host key mode) as warning
// lines in the progress output.
func routeWarnings(display *ui.PhaseDisplay) func() {
	prev := sshutil.WarningHandler
	sshutil.WarningHandler = display.RenderWarning
	return func() { sshutil.WarningHandler = prev }
}

// checkLocalRemote fails before touching the server if --add-remote can't
// succeed afterwards.
func checkLocalRemote(name, url string) (string, error) {
	workDir, err := env.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrGit, "Cannot determine current directory", "")
	}
	urls, err := provision.LocalRemoteURLs(workDir, name)
	if err != nil {
		return "", err
	}
	if len(urls) > 0 {
		return "", errors.New(errors.ErrGit,
			fmt.Sprintf("Git remote '%s' already exists (%s)", name, strings.Join(urls, ", ")),
			fmt.Sprintf("Pick another name with --remote-name, or drop --add-remote and run:\n    git remote set-url %s %s", name, url))
	}
	return workDir, nil
}

func addLocalRemote(workDir string, result *provision.Result) error {
	err := provision.AddLocalRemote(workDir, result.RemoteName, result.RemotePath)
	if err != nil {
		// The server is provisioned; make sure the command is still visible.
		if !machineMode {
			fmt.Fprint(env.Stdout, "\n"+ui.RenderProvisionSummary(result.RemoteName, result.RemotePath))
		}
		return err
	}
	return nil
}
