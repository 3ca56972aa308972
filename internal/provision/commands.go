package provision

import (
	"fmt"

	"github.com/alessio/shellescape"
)

// Every remote command string is built in this file. Values that come from
// the user (group, user and directory names) always go through quote.

func quote(s string) string {
	return shellescape.Quote(s)
}

// GroupAddCommand creates a system group.
func GroupAddCommand(group string) string {
	return "groupadd " + quote(group)
}

// AddUserToGroupCommand appends group to user's supplementary groups.
func AddUserToGroupCommand(group, user string) string {
	return "usermod -a -G " + quote(group) + " " + quote(user)
}

// MakeDirCommand creates a single directory. It fails if dir exists.
func MakeDirCommand(dir string) string {
	return "mkdir " + quote(dir)
}

// ChangeGroupCommand sets the group owner of dir.
func ChangeGroupCommand(group, dir string) string {
	return "chown " + quote(":"+group) + " " + quote(dir)
}

// GroupACLSpec gives group rwx on the directory and, by default, on
// everything created inside it, with a default mask of rwx.
func GroupACLSpec(group string) string {
	return fmt.Sprintf("d:g:%s:rwx,g:%s:rwx,d:m:rwx", group, group)
}

// SetGroupACLCommand applies GroupACLSpec to dir.
func SetGroupACLCommand(group, dir string) string {
	return "setfacl -m " + quote(GroupACLSpec(group)) + " " + quote(dir)
}

// SetGIDCommand makes dir group-writable and setgid so new entries inherit
// its group.
func SetGIDCommand(dir string) string {
	return "chmod g+ws " + quote(dir)
}

// InitBareRepoCommand initializes a bare git repository in dir.
func InitBareRepoCommand(dir string) string {
	return "cd " + quote(dir) + " && git init --bare"
}

// Step is one remote command with the progress message shown before it.
type Step struct {
	Description string `json:"description" yaml:"description"`
	Command     string `json:"command" yaml:"command"`
	Privileged  bool   `json:"sudo" yaml:"sudo"`
}

// Phase is an ordered list of steps run over one connection.
type Phase struct {
	Name  string `json:"name" yaml:"name"`
	Steps []Step `json:"steps" yaml:"steps"`
}

const (
	PhaseGroup       = "group"
	PhaseDirectories = "directories"
)

// BuildPhases returns the two phases for plan. The directory phase must run
// on a fresh login so the membership granted in the group phase applies.
func BuildPhases(p Plan, user string) []Phase {
	group := Phase{
		Name: PhaseGroup,
		Steps: []Step{
			{
				Description: fmt.Sprintf("Adding group `%s`", p.Group),
				Command:     GroupAddCommand(p.Group),
				Privileged:  true,
			},
			{
				Description: fmt.Sprintf("Adding yourself (`%s`) to group `%s`", user, p.Group),
				Command:     AddUserToGroupCommand(p.Group, user),
				Privileged:  true,
			},
		},
	}

	var dirSteps []Step
	dirSteps = append(dirSteps, sharedDirSteps(p.Group, p.RepoDir, fmt.Sprintf("Creating remote repo directory at `%s`", p.RepoDir))...)
	dirSteps = append(dirSteps, sharedDirSteps(p.Group, p.DeployDir, fmt.Sprintf("Creating application directory at `%s`", p.DeployDir))...)
	dirSteps = append(dirSteps, Step{
		Description: fmt.Sprintf("Creating bare git repository in `%s`", p.RepoDir),
		Command:     InitBareRepoCommand(p.RepoDir),
	})

	return []Phase{group, {Name: PhaseDirectories, Steps: dirSteps}}
}

// sharedDirSteps creates dir and sets it up so every member of group can
// write to it and everything created inside keeps the group.
func sharedDirSteps(group, dir, createMsg string) []Step {
	return []Step{
		{Description: createMsg, Command: MakeDirCommand(dir), Privileged: true},
		{Description: fmt.Sprintf("Setting directory group to `%s`", group), Command: ChangeGroupCommand(group, dir), Privileged: true},
		{Description: "Adding ACL permissions for group propagation", Command: SetGroupACLCommand(group, dir), Privileged: true},
		{Description: "Adding setgid", Command: SetGIDCommand(dir), Privileged: true},
	}
}
