package provision

import (
	"time"

	"github.com/rileyhilliard/appd/internal/logger"
	"github.com/rileyhilliard/appd/internal/remote"
)

// DefaultRemoteName is the git remote name suggested in the summary.
const DefaultRemoteName = "public"

// Reporter shows step progress. ui.PhaseDisplay implements it.
type Reporter interface {
	RenderProgress(name string)
	RenderSuccess(name string, duration time.Duration)
	RenderFailed(name string, duration time.Duration, err error)
}

// Result describes a finished provisioning run.
type Result struct {
	Plan       Plan   `json:"plan"`
	User       string `json:"user"`
	RemoteName string `json:"remote_name"`
	RemotePath string `json:"remote_path"`
}

// RemoteAddCommand returns the git command for adding the new remote locally.
func (r Result) RemoteAddCommand() string {
	return "git remote add " + r.RemoteName + " " + r.RemotePath
}

// Provisioner runs a Plan's phases over a remote session.
type Provisioner struct {
	reporter   Reporter
	log        logger.Logger
	remoteName string
}

// NewProvisioner creates a provisioner. An empty remoteName means "public".
func NewProvisioner(reporter Reporter, log logger.Logger, remoteName string) *Provisioner {
	if log == nil {
		log = logger.Default()
	}
	if remoteName == "" {
		remoteName = DefaultRemoteName
	}
	return &Provisioner{reporter: reporter, log: log, remoteName: remoteName}
}

// Run executes every phase in order, each inside its own session scope so
// the connection is closed between phases and reopened with a fresh login.
// The first failing step aborts the run; completed steps are not undone.
// The session's password is zeroed when Run returns.
func (p *Provisioner) Run(plan Plan, session *remote.Session) (*Result, error) {
	defer session.ForgetPassword()

	for _, phase := range BuildPhases(plan, session.User()) {
		p.log.Debug("phase %q: %d steps on a new connection", phase.Name, len(phase.Steps))

		steps := phase.Steps
		err := remote.WithSession(session, func(s *remote.Session) error {
			return p.runSteps(s, steps)
		})
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Plan:       plan,
		User:       session.User(),
		RemoteName: p.remoteName,
		RemotePath: plan.RemotePath(),
	}, nil
}

func (p *Provisioner) runSteps(s *remote.Session, steps []Step) error {
	for _, step := range steps {
		p.reporter.RenderProgress(step.Description)
		start := time.Now()

		var out string
		var err error
		if step.Privileged {
			out, err = s.Sudo(step.Command)
		} else {
			out, err = s.Run(step.Command, nil)
		}
		if err != nil {
			p.reporter.RenderFailed(step.Description, time.Since(start), err)
			return err
		}
		if out != "" {
			p.log.Debug("%s", out)
		}
		p.reporter.RenderSuccess(step.Description, time.Since(start))
	}
	return nil
}
