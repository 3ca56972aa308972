package cli

import (
	"testing"
	"time"

	"github.com/rileyhilliard/appd/internal/config"
	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"5s", 5 * time.Second, false},
		{"1m", time.Minute, false},
		{"500ms", 500 * time.Millisecond, false},
		{"soon", 0, true},
		{"5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeout(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectionFlags_Apply(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	base := *config.DefaultConfig()

	t.Run("no flags keeps config", func(t *testing.T) {
		got, err := ConnectionFlags{}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, base, got)
	})

	t.Run("flags override", func(t *testing.T) {
		got, err := ConnectionFlags{
			SSHConfig:             "~/alt/config",
			KnownHosts:            "/kh",
			InsecureIgnoreHostKey: true,
			ConnectTimeout:        "3s",
			RemoteName:            "prod",
		}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, "/home/tester/alt/config", got.SSHConfig)
		assert.Equal(t, "/kh", got.KnownHosts)
		assert.True(t, got.InsecureIgnoreHostKey)
		assert.Equal(t, 3*time.Second, got.ConnectTimeout)
		assert.Equal(t, "prod", got.RemoteName)
	})

	t.Run("does not modify the input", func(t *testing.T) {
		_, err := ConnectionFlags{RemoteName: "prod"}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, "public", base.RemoteName)
	})

	t.Run("bad timeout", func(t *testing.T) {
		_, err := ConnectionFlags{ConnectTimeout: "later"}.Apply(base)
		require.Error(t, err)
	})

	t.Run("bad remote name", func(t *testing.T) {
		_, err := ConnectionFlags{RemoteName: "a b"}.Apply(base)
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	})
}

func TestPlanFlags(t *testing.T) {
	f := PlanFlags{App: "blog", Host: "web1", Group: "g", DeployDir: "/d/", RepoDir: "/r/", BaseDir: "/srv"}

	a := f.Answers()
	assert.Equal(t, "blog", a.AppName)
	assert.Equal(t, "web1", a.Host)
	assert.Equal(t, "g", a.Group)
	assert.Equal(t, "/d/", a.DeployDir)
	assert.Equal(t, "/r/", a.RepoDir)

	cfg := *config.DefaultConfig()
	assert.Equal(t, "/srv", baseDir(f, cfg))
	assert.Equal(t, "/opt", baseDir(PlanFlags{}, cfg))
}
