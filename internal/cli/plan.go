package cli

import (
	"fmt"
	"io"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/rileyhilliard/appd/internal/provision"
	"github.com/rileyhilliard/appd/internal/remote"
	"github.com/rileyhilliard/appd/internal/ui"
	"github.com/rileyhilliard/appd/pkg/sshutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats for `appd plan`.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// PlanOptions configures the plan command.
type PlanOptions struct {
	Plan       PlanFlags
	SSHConfig  string
	RemoteName string
	User       string // Skips the SSH config lookup when set
	Format     string
}

// PlanOutput is what `appd plan` prints in YAML and JSON.
type PlanOutput struct {
	Plan             provision.Plan    `json:"plan" yaml:"plan"`
	User             string            `json:"user" yaml:"user"`
	Phases           []provision.Phase `json:"phases" yaml:"phases"`
	RemotePath       string            `json:"remote_path" yaml:"remote_path"`
	RemoteAddCommand string            `json:"remote_add_command" yaml:"remote_add_command"`
}

var planOpts PlanOptions

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what provision would run, without connecting",
	Long: `Print every command provision would run on the server, grouped by
connection, without connecting to it.

The login user comes from the SSH config entry for --host unless --user
is given.

Examples:
  appd plan --app blog --host web1
  appd plan --app blog --host web1 --format yaml
  appd plan --app blog --host web1 --user deploy --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return planCommand(planOpts)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	AddPlanFlags(planCmd, &planOpts.Plan)
	planCmd.Flags().StringVar(&planOpts.SSHConfig, "ssh-config", "", "SSH client config (default ~/.ssh/config)")
	planCmd.Flags().StringVar(&planOpts.RemoteName, "remote-name", "", "git remote name to suggest (default public)")
	planCmd.Flags().StringVar(&planOpts.User, "user", "", "remote login user (default: from the SSH config)")
	planCmd.Flags().StringVarP(&planOpts.Format, "format", "o", FormatText, "output format: text, yaml or json")
}

func planCommand(opts PlanOptions) error {
	cfg, err := ConnectionFlags{SSHConfig: opts.SSHConfig, RemoteName: opts.RemoteName}.Apply(*appConfig)
	if err != nil {
		return err
	}

	format := opts.Format
	if machineMode {
		format = FormatJSON
	}
	if format != FormatText && format != FormatYAML && format != FormatJSON {
		return errors.New(errors.ErrInput,
			fmt.Sprintf("Unknown format '%s'", format),
			"Use --format text, yaml or json")
	}

	plan, err := provision.NewPlan(opts.Plan.Answers(), baseDir(opts.Plan, cfg))
	if err != nil {
		return err
	}

	user := opts.User
	if user == "" {
		profile, err := sshutil.NewResolver(env.FS, cfg.SSHConfig).Lookup(plan.Host)
		if err != nil {
			return err
		}
		user = profile.User
	}

	result := provision.Result{Plan: plan, User: user, RemoteName: cfg.RemoteName, RemotePath: plan.RemotePath()}
	out := PlanOutput{
		Plan:             plan,
		User:             user,
		Phases:           provision.BuildPhases(plan, user),
		RemotePath:       result.RemotePath,
		RemoteAddCommand: result.RemoteAddCommand(),
	}

	switch format {
	case FormatJSON:
		return WriteJSONSuccess(env.Stdout, out)
	case FormatYAML:
		enc := yaml.NewEncoder(env.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return errors.WrapWithCode(err, errors.ErrInput, "Failed to encode the plan as YAML", "")
		}
		return enc.Close()
	}

	renderPlanText(env.Stdout, out)
	return nil
}

func renderPlanText(w io.Writer, out PlanOutput) {
	pd := ui.NewPhaseDisplay(w, false)

	fmt.Fprintf(w, "Provisioning %s on %s as %s\n", out.Plan.AppName, out.Plan.Host, out.User)
	for i, phase := range out.Phases {
		fmt.Fprintf(w, "\nConnection %d (%s)\n", i+1, phase.Name)
		for _, step := range phase.Steps {
			fmt.Fprintf(w, "  %s\n    ", step.Description)
			cmd := step.Command
			if step.Privileged {
				cmd = remote.SudoCommand(cmd)
			}
			pd.CommandPrompt(cmd)
		}
	}
	pd.ThinDivider()
	fmt.Fprintf(w, "Then locally:\n\n\t%s\n", out.RemoteAddCommand)
}
