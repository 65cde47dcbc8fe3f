package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/nodetool-ai/nodetool-sdk/internal/httpclient"
	"github.com/nodetool-ai/nodetool-sdk/version"
)

// Default values
const (
	DefaultOutput          = "."
	DefaultNamespace       = "Nodetool"
	DefaultCorePath        = "../nodetool-core/src"
	DefaultWorkspaceRoot   = ".."
	DefaultWorkspacePrefix = "nodetool-"
	DefaultCacheDir        = ".typegen/cache"
)

// DefaultFetchTimeoutSeconds bounds one http(s) download
const DefaultFetchTimeoutSeconds = int(httpclient.DefaultTimeout / time.Second)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("namespace", DefaultNamespace)
	v.SetDefault("sdk_version", version.SDKVersion())

	v.SetDefault("core.path", DefaultCorePath)
	v.SetDefault("packages.registry", "")

	v.SetDefault("workspace.root", DefaultWorkspaceRoot)
	v.SetDefault("workspace.prefix", DefaultWorkspacePrefix)
	v.SetDefault("workspace.enabled", true)

	v.SetDefault("fetch.cache_dir", DefaultCacheDir)
	v.SetDefault("fetch.timeout_seconds", DefaultFetchTimeoutSeconds)
	v.SetDefault("fetch.block_private", false)

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// Default returns the configuration produced by defaults alone
func Default() Config {
	return Config{
		Output:     DefaultOutput,
		Namespace:  DefaultNamespace,
		SDKVersion: version.SDKVersion(),
		Core:       CoreConfig{Path: DefaultCorePath},
		Workspace: WorkspaceConfig{
			Root:    DefaultWorkspaceRoot,
			Prefix:  DefaultWorkspacePrefix,
			Enabled: true,
		},
		Fetch: FetchConfig{
			CacheDir:       DefaultCacheDir,
			TimeoutSeconds: DefaultFetchTimeoutSeconds,
		},
	}
}
