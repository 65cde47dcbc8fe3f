package discovery

import (
	"io/fs"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/typegen/util"
)

// ProviderRegistry holds manifest trees compiled into the binary, typically
// through embed.FS. A provider stands in for a package that is installed but
// has no source checkout.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]fs.FS
}

// NewProviderRegistry creates an empty provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]fs.FS)}
}

// Register adds a manifest tree under a package name.
// Names are compared in normalized form, so "nodetool-fal" and "Fal" collide.
func (r *ProviderRegistry) Register(name string, fsys fs.FS) error {
	key := util.NormalizePackageName(name)
	if key == "" {
		return errors.Newf("invalid provider name %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[key]; exists {
		return errors.Newf("manifest provider already registered: %s", key)
	}
	r.providers[key] = fsys
	return nil
}

// Get retrieves a provider by package name in any spelling
func (r *ProviderRegistry) Get(name string) (fs.FS, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fsys, ok := r.providers[util.NormalizePackageName(name)]
	return fsys, ok
}

// List returns all registered provider names in sorted order
func (r *ProviderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultProviders     *ProviderRegistry
	defaultProvidersOnce sync.Once
)

// DefaultProviders returns the process-wide provider registry
func DefaultProviders() *ProviderRegistry {
	defaultProvidersOnce.Do(func() {
		defaultProviders = NewProviderRegistry()
	})
	return defaultProviders
}

// RegisterProvider adds a manifest tree to the process-wide registry.
// Call it from an init function next to the embed directive.
func RegisterProvider(name string, fsys fs.FS) error {
	return DefaultProviders().Register(name, fsys)
}

// checkCompatibility verifies a package's SDK constraint against sdkVersion
func checkCompatibility(requires, sdkVersion string) error {
	if requires == "" {
		// No version constraint specified
		return nil
	}

	sdkVer, err := semver.NewVersion(sdkVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid SDK version %s", sdkVersion)
	}

	constraint, err := semver.NewConstraint(requires)
	if err != nil {
		return errors.Wrapf(errors.Mark(err, errors.ErrIncompatiblePackage), "invalid version constraint %s", requires)
	}

	if !constraint.Check(sdkVer) {
		return errors.Wrapf(errors.ErrIncompatiblePackage, "package requires SDK %s, but generating for %s", requires, sdkVersion)
	}

	return nil
}
