// Package provision turns a set of names (app, host, group, directories)
// into the remote commands that prepare a push-to-deploy server, and runs
// them over a remote session in two connection phases.
package provision

import (
	stderrors "errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/samber/lo"
)

// DefaultBaseDir is where deploy and repository directories go by default.
const DefaultBaseDir = "/opt"

// Plan is the set of names collected once per run. It is not modified after
// NewPlan returns.
type Plan struct {
	AppName   string `json:"app" yaml:"app" validate:"required,appname"`
	Host      string `json:"host" yaml:"host" validate:"required,hostalias"`
	Group     string `json:"group" yaml:"group" validate:"required,max=32,groupname"`
	DeployDir string `json:"deploy_dir" yaml:"deploy_dir" validate:"required,absdir"`
	RepoDir   string `json:"repo_dir" yaml:"repo_dir" validate:"required,absdir"`
}

// Answers are the raw values collected from flags or prompts. Empty optional
// fields fall back to defaults derived from AppName.
type Answers struct {
	AppName   string
	Host      string
	Group     string
	DeployDir string
	RepoDir   string
}

// DefaultDeployDir returns <base>/<app>/.
func DefaultDeployDir(base, app string) string {
	return path.Join(lo.Ternary(base == "", DefaultBaseDir, base), app) + "/"
}

// DefaultRepoDir returns <base>/<app>_remote/.
func DefaultRepoDir(base, app string) string {
	return path.Join(lo.Ternary(base == "", DefaultBaseDir, base), app+"_remote") + "/"
}

// NewPlan fills in defaults and validates the result. baseDir is the parent
// of the default directories ("" means /opt).
func NewPlan(a Answers, baseDir string) (Plan, error) {
	app := strings.TrimSpace(a.AppName)

	group, _ := lo.Coalesce(strings.TrimSpace(a.Group), app)
	deployDir, _ := lo.Coalesce(strings.TrimSpace(a.DeployDir), DefaultDeployDir(baseDir, app))
	repoDir, _ := lo.Coalesce(strings.TrimSpace(a.RepoDir), DefaultRepoDir(baseDir, app))

	p := Plan{
		AppName:   app,
		Host:      strings.TrimSpace(a.Host),
		Group:     group,
		DeployDir: deployDir,
		RepoDir:   repoDir,
	}
	if err := p.Validate(); err != nil {
		var appErr *errors.Error
		if a.Group == "" && planValidator.Var(p.Group, groupRules) != nil && stderrors.As(err, &appErr) {
			appErr.Suggestion = "The group defaults to the app name. Pass --group with a valid group name"
		}
		return Plan{}, err
	}
	return p, nil
}

// RemotePath returns the <host>:<repo_dir> reference for git remote add.
func (p Plan) RemotePath() string {
	return p.Host + ":" + p.RepoDir
}

// Validate checks every field and reports all problems at once.
func (p Plan) Validate() error {
	err := planValidator.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.WrapWithCode(err, errors.ErrInput, "Couldn't validate the provisioning plan", "")
	}

	problems := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		return "  " + describeFieldError(fe)
	})
	return errors.New(errors.ErrInput,
		"Invalid provisioning values:\n"+strings.Join(problems, "\n"),
		"Fix the values above and run again")
}

// groupRules must match the validate tag on Plan.Group.
const groupRules = "required,max=32,groupname"

var (
	planValidator = newPlanValidator()

	// Letters, digits, '_', '.' and '-', not starting with a digit, '.' or
	// '-'. groupadd on most distros accepts at least this much.
	groupNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)
)

func newPlanValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("groupname", func(fl validator.FieldLevel) bool {
		return groupNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("appname", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return !strings.ContainsRune(s, '/') && !strings.ContainsFunc(s, unicode.IsSpace)
	})
	_ = v.RegisterValidation("hostalias", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
	})
	_ = v.RegisterValidation("absdir", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return path.IsAbs(s) && !strings.ContainsAny(s, "\x00\n")
	})
	return v
}

var fieldLabels = map[string]string{
	"AppName":   "app name",
	"Host":      "host",
	"Group":     "group",
	"DeployDir": "deploy directory",
	"RepoDir":   "repository directory",
}

func describeFieldError(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	value := fmt.Sprintf("%v", fe.Value())

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s %q is longer than %s characters", label, value, fe.Param())
	case "groupname":
		return fmt.Sprintf("%s %q must start with a letter or _ and contain only letters, digits, _, . and -", label, value)
	case "appname":
		return fmt.Sprintf("%s %q may not contain '/' or whitespace", label, value)
	case "hostalias":
		return fmt.Sprintf("%s %q may not contain whitespace", label, value)
	case "absdir":
		return fmt.Sprintf("%s %q must be an absolute path", label, value)
	}
	return fmt.Sprintf("%s %q is invalid (%s)", label, value, fe.Tag())
}
