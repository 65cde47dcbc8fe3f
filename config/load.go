package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/nodetool-ai/nodetool-sdk/errors"
)

// FileName is the project config file searched for
const FileName = "typegen.toml"

// EnvPrefix prefixes environment overrides, e.g. NODETOOL_TYPEGEN_CORE_PATH
const EnvPrefix = "NODETOOL_TYPEGEN"

// NewViper builds a viper instance with defaults, the config file and the
// environment. configFile selects the file explicitly; empty searches upward
// from the working directory and tolerates finding nothing.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	explicit := configFile != ""
	if !explicit {
		wd, err := os.Getwd()
		if err == nil {
			configFile = FindProjectConfig(wd)
		}
	}
	if configFile == "" {
		return v, nil
	}

	v.SetConfigFile(configFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		err = errors.Wrapf(err, "failed to read config file %s", configFile)
		if explicit {
			return nil, errors.WithHint(err, "check the --config path")
		}
		return nil, errors.WithHintf(err, "fix or remove %s", configFile)
	}
	return v, nil
}

// Load unmarshals the effective configuration from v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path, without
// environment overrides
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}
	return &cfg, nil
}

// FindProjectConfig searches for typegen.toml from dir up to the
// filesystem root. Returns "" when none is found.
func FindProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, FileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
