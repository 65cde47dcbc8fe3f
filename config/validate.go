package config

import (
	"github.com/Masterminds/semver/v3"

	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/typegen/csharp"
	"github.com/nodetool-ai/nodetool-sdk/version"
)

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Output == "" {
		return errors.New("output cannot be empty")
	}
	if !csharp.ValidNamespace(c.Namespace) {
		return errors.Newf("namespace %q is not a valid C# namespace", c.Namespace)
	}
	if c.Core.Path == "" {
		return errors.New("core.path cannot be empty")
	}

	// Workspace root only matters when scanning
	if c.Workspace.Enabled && c.Workspace.Root == "" {
		return errors.New("workspace.root cannot be empty when workspace.enabled")
	}

	if c.SDKVersion == "" {
		c.SDKVersion = version.SDKVersion()
	} else if _, err := semver.NewVersion(c.SDKVersion); err != nil {
		return errors.Wrapf(err, "sdk_version %q", c.SDKVersion)
	}

	// 0 falls back to the client default
	if c.Fetch.TimeoutSeconds < 0 {
		return errors.Newf("fetch.timeout_seconds must be >= 0, got %d", c.Fetch.TimeoutSeconds)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}
	return nil
}
