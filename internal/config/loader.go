package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/appd/internal/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// GlobalConfigDir is the directory for the user config, relative to home.
	GlobalConfigDir = ".config/appd"
	// GlobalConfigFile is the user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix is prepended to every environment override (APPD_BASE_DIR).
	EnvPrefix = "APPD"
)

// GlobalConfigPath returns ~/.config/appd/config.yaml, or "" if the home
// directory is unknown.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// Find locates the config file:
// 1. Explicit path (from --config flag), which must exist
// 2. ~/.config/appd/config.yaml
//
// Returns "" when there is no config file. That is not an error.
func Find(fs afero.Fs, explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := fs.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	global := GlobalConfigPath()
	if global == "" {
		return "", nil
	}
	if ok, _ := afero.Exists(fs, global); ok {
		return global, nil
	}
	return "", nil
}

// Load reads config from path, or only defaults and environment when path
// is empty.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := newViper(fs)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found: "+path,
					"Create it, or drop the --config flag to use defaults")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file is valid YAML: "+path)
		}
	}

	return parseConfig(v, path)
}

// LoadOrDefault finds and loads the config, falling back to defaults plus
// environment overrides when there is no file.
func LoadOrDefault(fs afero.Fs, explicit string) (*Config, error) {
	path, err := Find(fs, explicit)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("ssh_config", d.SSHConfig)
	v.SetDefault("known_hosts", d.KnownHosts)
	v.SetDefault("insecure_ignore_host_key", d.InsecureIgnoreHostKey)
	v.SetDefault("connect_timeout", d.ConnectTimeout.String())
	v.SetDefault("base_dir", d.BaseDir)
	v.SetDefault("remote_name", d.RemoteName)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		source := "APPD_* environment variables"
		if path != "" {
			source = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+source)
	}

	cfg.SSHConfig = ExpandTilde(cfg.SSHConfig)
	cfg.KnownHosts = ExpandTilde(cfg.KnownHosts)

	return cfg, nil
}
