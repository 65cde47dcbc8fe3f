// Package config loads typegen settings with viper.
//
// Sources, lowest to highest precedence: defaults, typegen.toml (found by
// walking up from the working directory, or given explicitly), then
// NODETOOL_TYPEGEN_* environment variables. The CLI binds its flags on top.
package config

// Config is the effective typegen configuration
type Config struct {
	Output     string          `mapstructure:"output" toml:"output" comment:"Directory receiving Types/, Nodes/ and NodeToolTypes.cs"`
	Namespace  string          `mapstructure:"namespace" toml:"namespace" comment:"Root C# namespace"`
	SDKVersion string          `mapstructure:"sdk_version" toml:"sdk_version" comment:"SDK version checked against package requires constraints"`
	Core       CoreConfig      `mapstructure:"core" toml:"core"`
	Packages   PackagesConfig  `mapstructure:"packages" toml:"packages"`
	Workspace  WorkspaceConfig `mapstructure:"workspace" toml:"workspace"`
	Fetch      FetchConfig     `mapstructure:"fetch" toml:"fetch"`
	Log        LogConfig       `mapstructure:"log" toml:"log"`
}

// CoreConfig locates the core package
type CoreConfig struct {
	Path string `mapstructure:"path" toml:"path" comment:"Source tree of nodetool-core (the directory holding nodetool/)"`
}

// PackagesConfig locates the package registry
type PackagesConfig struct {
	Registry string `mapstructure:"registry" toml:"registry" comment:"Package registry file (.toml, .yaml or .json); empty skips the registry"`
}

// WorkspaceConfig controls scanning of sibling package checkouts
type WorkspaceConfig struct {
	Root    string `mapstructure:"root" toml:"root" comment:"Directory holding nodetool-* checkouts"`
	Prefix  string `mapstructure:"prefix" toml:"prefix"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// FetchConfig controls remote registry sources
type FetchConfig struct {
	CacheDir       string `mapstructure:"cache_dir" toml:"cache_dir" comment:"Where registry records with a source are downloaded"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds" comment:"Bound on one http(s) download"`
	BlockPrivate   bool   `mapstructure:"block_private" toml:"block_private" comment:"Refuse http(s) sources on loopback and private networks"`
}

// LogConfig controls logging
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" comment:"0 summary only, 1 stages, 2 discovery, 3 every file"`
}
