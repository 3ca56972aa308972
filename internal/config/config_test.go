package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Empty(t, cfg.SSHConfig)
	assert.Empty(t, cfg.KnownHosts)
	assert.False(t, cfg.InsecureIgnoreHostKey)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "/opt", cfg.BaseDir)
	assert.Equal(t, "public", cfg.RemoteName)
	assert.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	t.Setenv("HOME", "/home/dev")
	fs := afero.NewMemMapFs()
	content := `
version: 1
ssh_config: ~/work/ssh_config
known_hosts: /etc/ssh/ssh_known_hosts
insecure_ignore_host_key: true
connect_timeout: 30s
base_dir: /srv
remote_name: production
`
	require.NoError(t, afero.WriteFile(fs, "/etc/appd.yaml", []byte(content), 0644))

	cfg, err := Load(fs, "/etc/appd.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/home/dev", "work/ssh_config"), cfg.SSHConfig)
	assert.Equal(t, "/etc/ssh/ssh_known_hosts", cfg.KnownHosts)
	assert.True(t, cfg.InsecureIgnoreHostKey)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "/srv", cfg.BaseDir)
	assert.Equal(t, "production", cfg.RemoteName)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("base_dir: /data\n"), 0644))

	cfg, err := Load(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.BaseDir)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, "public", cfg.RemoteName)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APPD_BASE_DIR", "/var/apps")
	t.Setenv("APPD_CONNECT_TIMEOUT", "3s")
	t.Setenv("APPD_INSECURE_IGNORE_HOST_KEY", "true")

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("base_dir: /data\nremote_name: live\n"), 0644))

	cfg, err := Load(fs, "/c.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/var/apps", cfg.BaseDir, "env beats file")
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.InsecureIgnoreHostKey)
	assert.Equal(t, "live", cfg.RemoteName)
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("APPD_REMOTE_NAME", "origin2")

	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, "origin2", cfg.RemoteName)
	assert.Equal(t, "/opt", cfg.BaseDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("base_dir: [unclosed\n"), 0644))

	_, err := Load(fs, "/bad.yaml")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestLoad_BadDuration(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("connect_timeout: soon\n"), 0644))

	_, err := Load(fs, "/c.yaml")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "Invalid config format")
}

func TestFind(t *testing.T) {
	t.Setenv("HOME", "/home/dev")
	global := "/home/dev/.config/appd/config.yaml"

	t.Run("explicit path", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/x/appd.yaml", nil, 0644))
		require.NoError(t, afero.WriteFile(fs, global, nil, 0644))

		path, err := Find(fs, "/x/appd.yaml")
		require.NoError(t, err)
		assert.Equal(t, "/x/appd.yaml", path)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Find(afero.NewMemMapFs(), "/x/appd.yaml")
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
		assert.Contains(t, err.Error(), "/x/appd.yaml")
	})

	t.Run("global config", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, global, nil, 0644))

		path, err := Find(fs, "")
		require.NoError(t, err)
		assert.Equal(t, global, path)
	})

	t.Run("nothing found", func(t *testing.T) {
		path, err := Find(afero.NewMemMapFs(), "")
		require.NoError(t, err)
		assert.Empty(t, path)
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("HOME", "/home/dev")

	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := LoadOrDefault(afero.NewMemMapFs(), "")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("validates what it loads", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/home/dev/.config/appd/config.yaml", []byte("base_dir: opt\n"), 0644))

		_, err := LoadOrDefault(fs, "")
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
		assert.Contains(t, err.Error(), "base_dir")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"future version", func(c *Config) { c.Version = CurrentConfigVersion + 1 }, "from the future"},
		{"zero timeout", func(c *Config) { c.ConnectTimeout = 0 }, "connect_timeout must be positive"},
		{"negative timeout", func(c *Config) { c.ConnectTimeout = -time.Second }, "connect_timeout must be positive"},
		{"relative base dir", func(c *Config) { c.BaseDir = "srv" }, "base_dir must be an absolute"},
		{"empty base dir", func(c *Config) { c.BaseDir = "" }, "base_dir must be an absolute"},
		{"empty remote name", func(c *Config) { c.RemoteName = "" }, "remote_name can't be empty"},
		{"remote name with space", func(c *Config) { c.RemoteName = "my remote" }, "isn't a usable git remote name"},
		{"remote name dot dot", func(c *Config) { c.RemoteName = ".." }, "isn't a usable git remote name"},
		{"remote name with dash", func(c *Config) { c.RemoteName = "prod-eu.1" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandTilde(t *testing.T) {
	t.Setenv("HOME", "/home/dev")

	assert.Equal(t, "", ExpandTilde(""))
	assert.Equal(t, "/home/dev", ExpandTilde("~"))
	assert.Equal(t, "/home/dev/.ssh/config", ExpandTilde("~/.ssh/config"))
	assert.Equal(t, "/etc/ssh/config", ExpandTilde("/etc/ssh/config"))
	assert.Equal(t, "~other/x", ExpandTilde("~other/x"))
}
