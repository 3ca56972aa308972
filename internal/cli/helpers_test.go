package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/rileyhilliard/appd/internal/config"
	"github.com/rileyhilliard/appd/internal/provision"
	"github.com/rileyhilliard/appd/pkg/sshutil"
	sshtesting "github.com/rileyhilliard/appd/pkg/sshutil/testing"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testSSHConfig = `Host server1
    HostName 10.0.0.5
    User deploy

Host server2
    HostName 10.0.0.6

Host *
    ServerAliveInterval 30
`

// fakePrompter fills in missing answers from fixed values.
type fakePrompter struct {
	fill        provision.Answers
	password    string
	err         error
	offered     []sshutil.SSHHostEntry
	answerCalls int
	pwCalls     int
}

func (p *fakePrompter) Answers(a provision.Answers, hosts []sshutil.SSHHostEntry, _ string) (provision.Answers, error) {
	p.answerCalls++
	p.offered = hosts
	if p.err != nil {
		return a, p.err
	}
	if a.AppName == "" {
		a.AppName = p.fill.AppName
	}
	if a.Host == "" {
		a.Host = p.fill.Host
	}
	return a, nil
}

func (p *fakePrompter) Password(sshutil.HostProfile) (string, error) {
	p.pwCalls++
	return p.password, p.err
}

type testEnv struct {
	*Env
	host     *sshtesting.MockHost
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	prompter *fakePrompter
	vars     map[string]string
	workDir  string
}

// setupTestEnv points the package Env at an in-memory SSH config, the mock
// host (sudo password "s3cret") and a fresh git repository as working dir.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("HOME", "/home/tester")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/ssh/config", []byte(testSSHConfig), 0600))

	workDir := t.TempDir()
	_, err := git.PlainInit(workDir, false)
	require.NoError(t, err)

	te := &testEnv{
		host:     sshtesting.NewMockHost("server1", "s3cret"),
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		prompter: &fakePrompter{},
		vars:     map[string]string{},
		workDir:  workDir,
	}
	te.Env = &Env{
		FS:       fs,
		Stdin:    strings.NewReader(""),
		Stdout:   te.stdout,
		Stderr:   te.stderr,
		Dialer:   te.host.Dialer(),
		Prompter: te.prompter,
		Getenv:   func(k string) string { return te.vars[k] },
		Getwd:    func() (string, error) { return te.workDir, nil },
	}

	restore := SetEnv(te.Env)
	t.Cleanup(func() {
		restore()
		resetFlags(rootCmd)
		appConfig = config.DefaultConfig()
	})
	resetFlags(rootCmd)
	return te
}

// resetFlags puts every flag in the command tree back to its default so
// values don't leak between runs of the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, te *testEnv, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(te.FS, path, []byte(content), 0644))
}
