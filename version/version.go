package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the semantic version (if tagged)
	Version = "dev"
)

// DefaultSDKVersion is the nodetool SDK version assumed by untagged builds
// when checking package compatibility constraints.
const DefaultSDKVersion = "0.6.0"

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	SDKVersion string `json:"sdk_version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		SDKVersion: SDKVersion(),
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// SDKVersion returns the build version when it is a valid semantic version,
// DefaultSDKVersion otherwise.
func SDKVersion() string {
	if v, err := semver.NewVersion(Version); err == nil {
		return v.String()
	}
	return DefaultSDKVersion
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("typegen %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("typegen dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}
