package provision

import (
	"strings"
	"testing"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_Defaults(t *testing.T) {
	p, err := NewPlan(Answers{AppName: "myapp", Host: "server1"}, "")
	require.NoError(t, err)

	assert.Equal(t, Plan{
		AppName:   "myapp",
		Host:      "server1",
		Group:     "myapp",
		DeployDir: "/opt/myapp/",
		RepoDir:   "/opt/myapp_remote/",
	}, p)
	assert.Equal(t, "server1:/opt/myapp_remote/", p.RemotePath())
}

func TestNewPlan_Overrides(t *testing.T) {
	p, err := NewPlan(Answers{
		AppName:   " myapp ",
		Host:      "server1",
		Group:     "deployers",
		DeployDir: "/srv/www/myapp",
		RepoDir:   "/srv/git/myapp.git/",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "myapp", p.AppName)
	assert.Equal(t, "deployers", p.Group)
	assert.Equal(t, "/srv/www/myapp", p.DeployDir)
	assert.Equal(t, "/srv/git/myapp.git/", p.RepoDir)
}

func TestNewPlan_BaseDir(t *testing.T) {
	p, err := NewPlan(Answers{AppName: "blog", Host: "web"}, "/srv/")
	require.NoError(t, err)
	assert.Equal(t, "/srv/blog/", p.DeployDir)
	assert.Equal(t, "/srv/blog_remote/", p.RepoDir)
}

func TestNewPlan_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		answers Answers
		wantMsg []string
	}{
		{
			name:    "missing app and host",
			answers: Answers{},
			wantMsg: []string{"app name is required", "host is required", "group is required"},
		},
		{
			name:    "app with slash",
			answers: Answers{AppName: "my/app", Host: "server1", Group: "myapp"},
			wantMsg: []string{`app name "my/app" may not contain '/'`},
		},
		{
			name:    "host with space",
			answers: Answers{AppName: "myapp", Host: "server 1"},
			wantMsg: []string{`host "server 1" may not contain whitespace`},
		},
		{
			name:    "default group from app starting with a digit",
			answers: Answers{AppName: "1app", Host: "server1"},
			wantMsg: []string{`group "1app" must start with a letter or _`, "Pass --group"},
		},
		{
			name:    "explicit group with space",
			answers: Answers{AppName: "myapp", Host: "server1", Group: "my group"},
			wantMsg: []string{`group "my group"`, "Fix the values above"},
		},
		{
			name:    "group with shell characters",
			answers: Answers{AppName: "myapp", Host: "server1", Group: "x;rm"},
			wantMsg: []string{`group "x;rm"`},
		},
		{
			name:    "group too long",
			answers: Answers{AppName: "myapp", Host: "server1", Group: strings.Repeat("g", 33)},
			wantMsg: []string{"longer than 32 characters"},
		},
		{
			name:    "relative directories",
			answers: Answers{AppName: "myapp", Host: "server1", DeployDir: "opt/myapp", RepoDir: "./repo"},
			wantMsg: []string{`deploy directory "opt/myapp" must be an absolute path`, `repository directory "./repo" must be an absolute path`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.answers, "")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInput))
			for _, msg := range tt.wantMsg {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}

func TestNewPlan_GroupDefaultsFromAppName(t *testing.T) {
	for _, app := range []string{"MyApp", "my.app", "_svc", "web-1"} {
		t.Run(app, func(t *testing.T) {
			p, err := NewPlan(Answers{AppName: app, Host: "server1"}, "")
			require.NoError(t, err)
			assert.Equal(t, app, p.Group)
			assert.Equal(t, "groupadd "+app, GroupAddCommand(p.Group))
		})
	}
}

func TestDefaultDirs(t *testing.T) {
	assert.Equal(t, "/opt/myapp/", DefaultDeployDir("", "myapp"))
	assert.Equal(t, "/opt/myapp_remote/", DefaultRepoDir("", "myapp"))
	assert.Equal(t, "/data/x/", DefaultDeployDir("/data", "x"))
}
