package cli

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/rileyhilliard/appd/internal/provision"
	"github.com/rileyhilliard/appd/internal/ui"
	"github.com/rileyhilliard/appd/pkg/sshutil"
)

// PasswordEnv supplies the password in non-interactive runs.
const PasswordEnv = "APPD_PASSWORD"

// Prompter collects plan values and the server password from the user.
type Prompter interface {
	// Answers fills in whatever a is missing. hosts are the SSH config
	// entries offered when no host was given.
	Answers(a provision.Answers, hosts []sshutil.SSHHostEntry, baseDir string) (provision.Answers, error)

	// Password asks for the password of the profile's user. Empty means
	// rely on keys and the agent.
	Password(profile sshutil.HostProfile) (string, error)
}

// FormPrompter asks with huh forms and the Bubble Tea host picker.
type FormPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewFormPrompter creates a prompter reading from in and drawing on out.
func NewFormPrompter(in io.Reader, out io.Writer) *FormPrompter {
	return &FormPrompter{in: in, out: out}
}

func (p *FormPrompter) run(groups ...*huh.Group) error {
	keys := huh.NewDefaultKeyMap()
	keys.Quit = key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "cancel"),
	)

	form := huh.NewForm(groups...).
		WithKeyMap(keys).
		WithInput(p.in).
		WithOutput(p.out).
		WithProgramOptions(tea.WithOutput(p.out), tea.WithInput(p.in))

	if err := form.Run(); err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return errors.New(errors.ErrInput, "Cancelled", "")
		}
		return errors.WrapWithCode(err, errors.ErrInput,
			"Failed to get user input",
			"Check terminal compatibility, or pass every value as a flag")
	}
	return nil
}

// Answers implements Prompter.
func (p *FormPrompter) Answers(a provision.Answers, hosts []sshutil.SSHHostEntry, baseDir string) (provision.Answers, error) {
	if strings.TrimSpace(a.AppName) == "" {
		err := p.run(huh.NewGroup(
			huh.NewInput().
				Title("Name of app").
				Value(&a.AppName).
				Validate(validateAppName),
		))
		if err != nil {
			return a, err
		}
	}

	if strings.TrimSpace(a.Host) == "" {
		host, err := p.pickHost(hosts)
		if err != nil {
			return a, err
		}
		a.Host = host
	}

	app := strings.TrimSpace(a.AppName)
	var fields []huh.Field
	if a.Group == "" {
		fields = append(fields, huh.NewInput().
			Title("Group to use").
			Placeholder(app).
			Value(&a.Group))
	}
	if a.DeployDir == "" {
		fields = append(fields, huh.NewInput().
			Title("Directory to deploy in").
			Placeholder(provision.DefaultDeployDir(baseDir, app)).
			Value(&a.DeployDir))
	}
	if a.RepoDir == "" {
		fields = append(fields, huh.NewInput().
			Title("Directory for the bare git repository").
			Placeholder(provision.DefaultRepoDir(baseDir, app)).
			Value(&a.RepoDir))
	}
	if len(fields) > 0 {
		if err := p.run(huh.NewGroup(fields...)); err != nil {
			return a, err
		}
	}

	return a, nil
}

func (p *FormPrompter) pickHost(hosts []sshutil.SSHHostEntry) (string, error) {
	selected, cancelled, err := ui.PickSSHHost(hosts, p.out, p.in)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrInput, "Host picker failed", "Pass the host with --host")
	}
	if cancelled {
		return "", errors.New(errors.ErrInput, "Cancelled", "")
	}
	if selected != nil {
		return selected.Alias, nil
	}

	var host string
	err = p.run(huh.NewGroup(
		huh.NewInput().
			Title("Hostname to deploy on").
			Description("A Host alias from your SSH config").
			Value(&host).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("host is required")
				}
				if strings.ContainsAny(s, " \t") {
					return fmt.Errorf("host can't contain whitespace")
				}
				return nil
			}),
	))
	return host, err
}

// Password implements Prompter.
func (p *FormPrompter) Password(profile sshutil.HostProfile) (string, error) {
	var password string
	err := p.run(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("Password for %s@%s", profile.User, profile.Alias)).
			Description("Used for sudo and password login. Leave empty to rely on your SSH keys.").
			EchoMode(huh.EchoModePassword).
			Value(&password),
	))
	return password, err
}

func validateAppName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("app name is required")
	}
	if strings.ContainsAny(s, "/ \t") {
		return fmt.Errorf("app name can't contain '/' or whitespace")
	}
	return nil
}

// readPasswordLine reads one line from r, without the line terminator.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.WrapWithCode(err, errors.ErrInput, "Couldn't read the password from stdin", "")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
