// Package discovery finds the data types and nodes every nodetool package
// declares. Packages are the core tree, the records of the package registry,
// manifest providers compiled into the binary, and nodetool-* checkouts in
// the workspace. Nothing is imported or executed: each package self-describes
// its modules in static manifests (see package manifest).
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/logger"
	"github.com/nodetool-ai/nodetool-sdk/manifest"
	"github.com/nodetool-ai/nodetool-sdk/typegen/util"
)

// Package origins
const (
	OriginCore      = "core"
	OriginRegistry  = "registry"
	OriginProvider  = "provider"
	OriginWorkspace = "workspace"
)

// Options configures where packages are looked for
type Options struct {
	// CorePath is the core package's source tree
	CorePath string

	// CoreFS replaces CorePath when set
	CoreFS fs.FS

	// RegistryPath is the package registry file; empty skips the registry
	RegistryPath string

	// WorkspaceRoot is scanned for <WorkspacePrefix>* checkouts with a src directory
	WorkspaceRoot   string
	WorkspacePrefix string
	ScanWorkspace   bool

	// SDKVersion is checked against package "requires" constraints
	SDKVersion string

	// Providers supplies compiled-in manifest trees; nil uses DefaultProviders
	Providers *ProviderRegistry

	// Fetcher materializes remote registry sources; nil skips them
	Fetcher *manifest.Fetcher
}

// Root is one package's manifest tree
type Root struct {
	// Name is the identifier the package was found under
	Name string

	// Package is the normalized group name
	Package string

	Origin string

	// Dir is the scanned directory, empty for providers
	Dir string

	FS fs.FS

	// Requires is the SDK constraint declared by the registry record
	Requires string

	// infoFS holds typegen.package.<ext>; the package root, above src
	infoFS fs.FS
}

// PackageFS is the package root, above src, where package-level files such
// as typegen.package.<ext> live
func (r Root) PackageFS() fs.FS {
	if r.infoFS != nil {
		return r.infoFS
	}
	return r.FS
}

// Discoverer walks package roots and collects candidates
type Discoverer struct {
	opts   Options
	logger *zap.SugaredLogger
	search searchPath
}

// New creates a discoverer
func New(opts Options, logger *zap.SugaredLogger) *Discoverer {
	if opts.Providers == nil {
		opts.Providers = DefaultProviders()
	}
	if opts.WorkspacePrefix == "" {
		opts.WorkspacePrefix = "nodetool-"
	}
	return &Discoverer{opts: opts, logger: logger}
}

// DiscoverPackages lists the package roots to scan. The core root is always
// first. A registry that cannot be read degrades the run to the core package
// alone; any other per-package problem skips just that package.
func (d *Discoverer) DiscoverPackages(ctx context.Context) ([]Root, []PackageReport, error) {
	core, err := d.coreRoot()
	if err != nil {
		return nil, nil, err
	}
	roots := []Root{core}
	seen := map[string]bool{CorePackage: true}
	var skipped []PackageReport

	var records []manifest.PackageRecord
	if d.opts.RegistryPath != "" {
		reg, err := manifest.LoadRegistry(d.opts.RegistryPath)
		if err != nil {
			err = errors.Mark(err, errors.ErrRegistryUnavailable)
			d.logger.Warnw("Package registry unavailable, generating core only",
				logger.FieldPath, d.opts.RegistryPath,
				logger.FieldError, err,
			)
			return roots, []PackageReport{{
				Package:  filepath.Base(d.opts.RegistryPath),
				Name:     d.opts.RegistryPath,
				Origin:   OriginRegistry,
				Location: d.opts.RegistryPath,
				Skipped:  err.Error(),
				Err:      err,
			}}, nil
		}
		records = reg.Packages
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		pkg := util.NormalizePackageName(rec.Name)
		if seen[pkg] {
			d.logger.Debugw("Package already discovered", logger.FieldPackage, pkg)
			continue
		}
		seen[pkg] = true

		root, err := d.registryRoot(ctx, rec, pkg)
		if err != nil {
			d.logger.Warnw("Skipping unresolvable package",
				logger.FieldPackage, pkg,
				logger.FieldError, err,
			)
			skipped = append(skipped, PackageReport{
				Package: pkg, Name: rec.Name, Origin: OriginRegistry,
				Location: rec.SourceFolder, Skipped: err.Error(), Err: err,
			})
			continue
		}
		roots = append(roots, root)
	}

	for _, name := range d.opts.Providers.List() {
		if seen[name] {
			continue
		}
		seen[name] = true
		fsys, _ := d.opts.Providers.Get(name)
		roots = append(roots, Root{Name: name, Package: name, Origin: OriginProvider, FS: fsys, infoFS: fsys})
	}

	if d.opts.ScanWorkspace && d.opts.WorkspaceRoot != "" {
		for _, root := range d.workspaceRoots() {
			if seen[root.Package] {
				continue
			}
			seen[root.Package] = true
			roots = append(roots, root)
		}
	}

	return roots, skipped, nil
}

func (d *Discoverer) coreRoot() (Root, error) {
	if d.opts.CoreFS != nil {
		return Root{Name: CorePackage, Package: CorePackage, Origin: OriginCore, FS: d.opts.CoreFS, infoFS: d.opts.CoreFS}, nil
	}
	if d.opts.CorePath == "" {
		return Root{}, errors.WithHint(
			errors.Wrap(errors.ErrCoreNotFound, "no core path configured"),
			"pass --core or set core.path in typegen.toml",
		)
	}
	dir := d.opts.CorePath
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Root{}, errors.WithHintf(
			errors.Wrapf(errors.ErrCoreNotFound, "%s", dir),
			"check that nodetool-core is checked out at %s or pass --core", dir,
		)
	}
	src := sourceDir(dir)
	return Root{
		Name: CorePackage, Package: CorePackage, Origin: OriginCore,
		Dir: src, FS: os.DirFS(src), infoFS: os.DirFS(dir),
	}, nil
}

// registryRoot resolves a registry record: a local checkout first, then a
// compiled-in provider, then a remote source.
func (d *Discoverer) registryRoot(ctx context.Context, rec manifest.PackageRecord, pkg string) (Root, error) {
	root := Root{Name: rec.Name, Package: pkg, Origin: OriginRegistry, Requires: rec.Requires}

	if rec.SourceFolder != "" {
		if info, err := os.Stat(rec.SourceFolder); err == nil && info.IsDir() {
			root.Dir = sourceDir(rec.SourceFolder)
			root.FS = os.DirFS(root.Dir)
			root.infoFS = os.DirFS(rec.SourceFolder)
			return root, nil
		}
	}

	if fsys, ok := d.opts.Providers.Get(rec.Name); ok {
		root.Origin = OriginProvider
		root.FS = fsys
		root.infoFS = fsys
		return root, nil
	}

	if rec.Source != "" && d.opts.Fetcher != nil {
		dir, err := d.opts.Fetcher.Fetch(ctx, rec)
		if err != nil {
			return Root{}, err
		}
		root.Dir = sourceDir(dir)
		root.FS = os.DirFS(root.Dir)
		root.infoFS = os.DirFS(dir)
		return root, nil
	}

	return Root{}, errors.Newf("no source tree for %s", rec.Name)
}

// workspaceRoots lists sibling checkouts named <prefix>* that have a src directory
func (d *Discoverer) workspaceRoots() []Root {
	entries, err := os.ReadDir(d.opts.WorkspaceRoot)
	if err != nil {
		d.logger.Warnw("Workspace discovery skipped",
			logger.FieldPath, d.opts.WorkspaceRoot,
			logger.FieldError, err,
		)
		return nil
	}

	var roots []Root
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), d.opts.WorkspacePrefix) {
			continue
		}
		dir := filepath.Join(d.opts.WorkspaceRoot, entry.Name())
		src := filepath.Join(dir, "src")
		if info, err := os.Stat(src); err != nil || !info.IsDir() {
			continue
		}
		roots = append(roots, Root{
			Name:    entry.Name(),
			Package: util.NormalizePackageName(entry.Name()),
			Origin:  OriginWorkspace,
			Dir:     src,
			FS:      os.DirFS(src),
			infoFS:  os.DirFS(dir),
		})
	}
	return roots
}

// sourceDir prefers the src layout of a package checkout
func sourceDir(dir string) string {
	src := filepath.Join(dir, "src")
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		return src
	}
	return dir
}

// Discover scans every package and returns the grouped candidates.
// Only a missing core package is an error.
func (d *Discoverer) Discover(ctx context.Context) (*Catalog, error) {
	roots, skipped, err := d.DiscoverPackages(ctx)
	if err != nil {
		return nil, err
	}

	cat := newCatalog()
	core := roots[0]
	coreModules, coreReport := d.loadModules(core)
	coreLayer := newLayer(core.Package, coreModules)
	popCore := d.search.push(coreLayer)
	defer popCore()

	d.collect(cat, coreLayer, &coreReport)
	cat.Roots = append(cat.Roots, core)
	cat.Reports = append(cat.Reports, coreReport)

	for _, root := range roots[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cat.Roots = append(cat.Roots, root)
		cat.Reports = append(cat.Reports, d.scanPackage(cat, root))
	}
	cat.Reports = append(cat.Reports, skipped...)

	for _, pkg := range cat.TypePackages() {
		for _, dt := range cat.DataTypes[pkg] {
			cat.Index.Add(dt.Name, pkg)
		}
	}
	return cat, nil
}

// DiscoverDataTypes returns the data types of every package, grouped
func (d *Discoverer) DiscoverDataTypes(ctx context.Context) (map[string][]*DataType, error) {
	cat, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return cat.DataTypes, nil
}

// DiscoverNodes returns the visible nodes of every package, grouped
func (d *Discoverer) DiscoverNodes(ctx context.Context) (map[string][]*Node, error) {
	cat, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}
	return cat.Nodes, nil
}

// scanPackage scans one extension package with its layer in scope
func (d *Discoverer) scanPackage(cat *Catalog, root Root) PackageReport {
	if err := d.checkRequirements(root); err != nil {
		d.logger.Warnw("Skipping incompatible package",
			logger.FieldPackage, root.Package,
			logger.FieldError, err,
		)
		return PackageReport{
			Package: root.Package, Name: root.Name, Origin: root.Origin,
			Location: root.Dir, Skipped: err.Error(), Err: err,
		}
	}

	modules, report := d.loadModules(root)
	l := newLayer(root.Package, modules)

	pop := d.search.push(l)
	defer pop()

	d.collect(cat, l, &report)
	return report
}

func (d *Discoverer) checkRequirements(root Root) error {
	sdk := d.opts.SDKVersion
	if sdk == "" {
		return nil
	}
	if err := checkCompatibility(root.Requires, sdk); err != nil {
		return err
	}
	if root.infoFS == nil {
		return nil
	}
	info, err := manifest.LoadPackageInfo(root.infoFS)
	if err != nil {
		return err
	}
	if info == nil {
		return nil
	}
	return checkCompatibility(info.Requires, sdk)
}

// loadModules decodes every manifest under root. A manifest that cannot be
// read or decoded is logged and skipped.
func (d *Discoverer) loadModules(root Root) ([]*manifest.Module, PackageReport) {
	report := PackageReport{Package: root.Package, Name: root.Name, Origin: root.Origin, Location: root.Dir}
	var modules []*manifest.Module

	err := fs.WalkDir(root.FS, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			d.logger.Warnw("Skipping unreadable path", logger.FieldPackage, root.Package, logger.FieldPath, p, logger.FieldError, err)
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if p != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__")) {
				return fs.SkipDir
			}
			return nil
		}
		if !manifest.IsManifest(name) || skipFile(name) {
			return nil
		}

		report.Modules++
		data, err := fs.ReadFile(root.FS, p)
		if err == nil {
			var mod *manifest.Module
			if mod, err = manifest.Decode(p, data); err == nil {
				modules = append(modules, mod)
				return nil
			}
		}
		report.ModulesFailed++
		d.logger.Warnw("Skipping module",
			logger.FieldPackage, root.Package,
			logger.FieldModule, p,
			logger.FieldError, err,
		)
		return nil
	})
	if err != nil {
		report.Skipped = err.Error()
		report.Err = err
		d.logger.Warnw("Skipping package", logger.FieldPackage, root.Package, logger.FieldError, err)
	}

	sort.SliceStable(modules, func(i, j int) bool { return modules[i].Path < modules[j].Path })
	return modules, report
}

// skipFile drops dunder manifests other than __init__
func skipFile(name string) bool {
	stem := strings.TrimSuffix(name, path.Ext(name))
	stem = strings.TrimSuffix(stem, manifest.ManifestSuffix)
	return strings.HasPrefix(stem, "__") && stem != "__init__"
}

// collect tests every class of l against the capability sets and adds the
// candidates to cat, de-duplicated by name and sorted.
func (d *Discoverer) collect(cat *Catalog, l *layer, report *PackageReport) {
	seenTypes := make(map[string]bool)
	seenNodes := make(map[string]bool)
	var types []*DataType
	var nodes []*Node

	for _, entry := range l.ordered {
		name := entry.class.Name
		isType := name != manifest.DataTypeBase && d.search.extends(entry, manifest.DataTypeBase)
		isNode := name != manifest.NodeBase && d.search.extends(entry, manifest.NodeBase)

		if (isType || isNode) && !manifest.ValidClassName(name) {
			report.Rejected++
			d.logger.Warnw("Skipping class with invalid name",
				logger.FieldPackage, l.pkg,
				logger.FieldClass, name,
				logger.FieldModule, entry.module,
			)
			continue
		}

		if isType {
			if seenTypes[name] {
				d.logger.Warnw("Duplicate data type ignored",
					logger.FieldPackage, l.pkg,
					logger.FieldClass, name,
					logger.FieldModule, entry.module,
				)
			} else {
				seenTypes[name] = true
				types = append(types, &DataType{
					Name:    name,
					Module:  entry.module,
					Package: l.pkg,
					Fields:  d.search.fields(entry),
				})
			}
		}

		if isNode {
			if !entry.class.IsVisible() {
				d.logger.Debugw("Skipping hidden node", logger.FieldPackage, l.pkg, logger.FieldClass, name)
				continue
			}
			if seenNodes[name] {
				d.logger.Warnw("Duplicate node ignored",
					logger.FieldPackage, l.pkg,
					logger.FieldClass, name,
					logger.FieldModule, entry.module,
				)
				continue
			}
			seenNodes[name] = true
			nodes = append(nodes, &Node{
				Name:          name,
				Module:        entry.module,
				Package:       l.pkg,
				Fields:        d.search.fields(entry),
				Metadata:      entry.class.Metadata,
				MetadataError: entry.class.MetadataError,
			})
		}
	}

	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	if len(types) > 0 {
		cat.DataTypes[l.pkg] = append(cat.DataTypes[l.pkg], types...)
	}
	if len(nodes) > 0 {
		cat.Nodes[l.pkg] = append(cat.Nodes[l.pkg], nodes...)
	}
	report.DataTypes = len(types)
	report.Nodes = len(nodes)

	d.logger.Infow("Discovered package",
		logger.FieldPackage, l.pkg,
		"data_types", len(types),
		"nodes", len(nodes),
		"modules_failed", report.ModulesFailed,
		"rejected", report.Rejected,
	)
}
