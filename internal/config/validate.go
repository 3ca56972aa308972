package config

import (
	"fmt"
	"path"
	"regexp"

	"github.com/rileyhilliard/appd/internal/errors"
)

// remoteNamePattern is a conservative subset of what git accepts as a
// remote name.
var remoteNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validate checks the config for errors and returns a structured error
// for the first problem found.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but appd only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest appd release")
	}

	if cfg.ConnectTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("connect_timeout must be positive, got %s", cfg.ConnectTimeout),
			"Use a duration like '10s' or '1m'")
	}

	if !path.IsAbs(cfg.BaseDir) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("base_dir must be an absolute remote path, got %q", cfg.BaseDir),
			"Something like '/opt' or '/srv'")
	}

	if err := validateRemoteName(cfg.RemoteName); err != nil {
		return err
	}

	return nil
}

func validateRemoteName(name string) error {
	if name == "" {
		return errors.New(errors.ErrConfig,
			"remote_name can't be empty",
			"Remove the setting to use 'public', or pick another name")
	}
	if !remoteNamePattern.MatchString(name) || name == "." || name == ".." {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("remote_name %q isn't a usable git remote name", name),
			"Stick to letters, digits, '.', '_' and '-'")
	}
	return nil
}
