// Package config resolves gitlet settings from the environment and an
// optional YAML file. The command line carries only operands.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	envPrefix = "GITLET"

	keyDir       = "dir"
	keyLogLevel  = "log_level"
	keyLogFormat = "log_format"
)

// Settings are the resolved configuration values.
type Settings struct {
	// Dir is the working directory the repository lives in.
	Dir       string
	LogLevel  string
	LogFormat string
}

// Load reads $HOME/.config/gitlet/config.yaml when present and overlays
// GITLET_DIR, GITLET_LOG_LEVEL and GITLET_LOG_FORMAT. An unset Dir resolves
// to the process working directory.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyLogFormat, "console")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(home, ".config", "gitlet"))
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	s := &Settings{
		Dir:       v.GetString(keyDir),
		LogLevel:  v.GetString(keyLogLevel),
		LogFormat: v.GetString(keyLogFormat),
	}
	if s.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "working directory")
		}
		s.Dir = wd
	}
	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", s.Dir)
	}
	s.Dir = dir
	return s, nil
}
