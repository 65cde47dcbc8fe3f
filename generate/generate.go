// Package generate runs a full generation: discovery, cleanup of the previous
// output, per-class files and package summaries for data types and nodes, and
// the global registry file.
//
// Output layout under the output directory:
//
//	Types/<Pkg segments>/<Name>.cs   one data type
//	Types/<Pkg segments>.cs          package summary
//	Nodes/<Pkg segments>/<Name>.cs   one node
//	Nodes/<Pkg segments>.cs          package summary
//	NodeToolTypes.cs                 registry (full mode only)
//
// Only a missing core package aborts a run. Every other failure is logged,
// counted in the Summary and skipped.
package generate

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/logger"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
	"github.com/nodetool-ai/nodetool-sdk/typegen/csharp"
	"github.com/nodetool-ai/nodetool-sdk/typegen/util"
)

// Mode selects which stages run
type Mode string

const (
	// ModeFull cleans the output, generates both trees and the registry
	ModeFull Mode = "full"
	// ModeTypes only generates data types, leaving other output in place
	ModeTypes Mode = "types"
	// ModeNodes only generates nodes, leaving other output in place
	ModeNodes Mode = "nodes"
)

// ParseMode validates a mode name; empty means full
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeTypes, ModeNodes:
		return Mode(s), nil
	}
	return "", errors.Newf("unknown mode %q (want full, types or nodes)", s)
}

// Output file permissions
const (
	dirPerm  = 0755
	filePerm = 0644
)

// Discoverer produces the catalog a run generates from
type Discoverer interface {
	Discover(ctx context.Context) (*discovery.Catalog, error)
}

// Options configures a run
type Options struct {
	// OutputDir receives Types/, Nodes/ and NodeToolTypes.cs
	OutputDir string

	// Namespace is the root C# namespace
	Namespace string

	Mode Mode
}

// Runner executes generation runs
type Runner struct {
	opts       Options
	discoverer Discoverer
	emitter    ProgressEmitter
	logger     *zap.SugaredLogger
}

// New creates a runner. A nil emitter discards progress.
func New(opts Options, d Discoverer, emitter ProgressEmitter, logger *zap.SugaredLogger) *Runner {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	if opts.Namespace == "" {
		opts.Namespace = csharp.DefaultNamespace
	}
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Runner{opts: opts, discoverer: d, emitter: emitter, logger: logger}
}

// Run performs one generation. The returned error is non-nil only for
// fatal conditions; recoverable failures are counted in the Summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx, r.logger)

	summary := &Summary{RunID: runID, Mode: r.opts.Mode, OutputDir: r.opts.OutputDir}

	r.emitter.EmitStage("discover", "scanning packages")
	cat, err := r.discoverer.Discover(ctx)
	if err != nil {
		r.emitter.EmitError("discover", err)
		return nil, errors.Wrap(err, "discovery failed")
	}
	summary.Packages = cat.Reports
	r.emitter.EmitDiscovery(cat.Reports)
	for _, rep := range cat.Reports {
		if rep.Err != nil {
			r.emitter.EmitError("discover", rep.Err)
		}
	}
	log.Infow("Discovery complete",
		logger.FieldCount, len(cat.Reports),
		"type_packages", len(cat.TypePackages()),
		"node_packages", len(cat.NodePackages()),
	)

	if err := os.MkdirAll(r.opts.OutputDir, dirPerm); err != nil {
		r.emitter.EmitError("output", err)
		return nil, errors.WithHint(
			errors.Wrapf(err, "create output directory %s", r.opts.OutputDir),
			"check --output and its permissions",
		)
	}

	if r.opts.Mode == ModeFull {
		r.emitter.EmitStage("cleanup", "removing previous output")
		summary.OutputErrors = r.Cleanup(ctx)
	}

	gen := csharp.NewGenerator(r.opts.Namespace, cat.Index)

	if r.opts.Mode != ModeNodes {
		r.emitter.EmitStage("types", "generating data types")
		summary.Types = r.GenerateTypes(ctx, gen, cat)
	}
	if r.opts.Mode != ModeTypes {
		r.emitter.EmitStage("nodes", "generating nodes")
		summary.Nodes = r.GenerateNodes(ctx, gen, cat)
	}

	if r.opts.Mode == ModeFull {
		r.emitter.EmitStage("registry", "writing "+csharp.RegistryFile)
		path, err := r.GenerateRegistry(ctx, gen, summary.results())
		if err != nil {
			summary.OutputErrors++
			r.emitter.EmitError("registry", err)
			log.Errorw("Failed to write registry", logger.FieldPath, path, logger.FieldError, err)
		} else {
			summary.Registry = path
			r.emitter.EmitFile(path)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary.Duration = time.Since(start)
	log.Infow("Generation complete",
		logger.FieldGenerated, summary.Generated(),
		logger.FieldErrors, summary.Errors(),
		logger.FieldDurationMS, summary.Duration.Milliseconds(),
	)
	r.emitter.EmitComplete(summary)
	return summary, nil
}

// Cleanup removes the previous Types/, Nodes/ and registry file. It
// returns the number of entries that could not be removed.
func (r *Runner) Cleanup(ctx context.Context) int {
	log := logger.FromContext(ctx, r.logger)
	failed := 0
	for _, name := range []string{string(typegen.KindTypes), string(typegen.KindNodes), csharp.RegistryFile} {
		path := filepath.Join(r.opts.OutputDir, name)
		if err := os.RemoveAll(path); err != nil {
			failed++
			r.emitter.EmitError("cleanup", err)
			log.Warnw("Failed to remove previous output", logger.FieldPath, path, logger.FieldError, err)
		}
	}
	return failed
}

// GenerateTypes writes the data types of every package, one result per package
func (r *Runner) GenerateTypes(ctx context.Context, gen typegen.Generator, cat *discovery.Catalog) []typegen.PackageResult {
	var results []typegen.PackageResult
	for _, pkg := range cat.TypePackages() {
		if ctx.Err() != nil {
			break
		}
		types := cat.DataTypes[pkg]
		classes := make([]class, 0, len(types))
		for _, dt := range types {
			classes = append(classes, class{name: dt.Name, render: func() string { return gen.GenerateType(dt) }})
		}
		results = append(results, r.generatePackage(ctx, gen, typegen.KindTypes, pkg, classes))
	}
	return results
}

// GenerateNodes writes the nodes of every package, one result per package
func (r *Runner) GenerateNodes(ctx context.Context, gen typegen.Generator, cat *discovery.Catalog) []typegen.PackageResult {
	log := logger.FromContext(ctx, r.logger)
	var results []typegen.PackageResult
	for _, pkg := range cat.NodePackages() {
		if ctx.Err() != nil {
			break
		}
		nodes := cat.Nodes[pkg]
		classes := make([]class, 0, len(nodes))
		for _, n := range nodes {
			if !csharp.HasMetadata(n) {
				log.Warnw("Node metadata unavailable, rendering declared fields",
					logger.FieldPackage, pkg,
					logger.FieldClass, n.Name,
					logger.FieldError, metadataProblem(n),
				)
			}
			classes = append(classes, class{name: n.Name, render: func() string { return gen.GenerateNode(n) }})
		}
		results = append(results, r.generatePackage(ctx, gen, typegen.KindNodes, pkg, classes))
	}
	return results
}

func metadataProblem(n *discovery.Node) error {
	if n.MetadataError != "" {
		return errors.Wrap(errors.ErrMetadataUnavailable, n.MetadataError)
	}
	if err := n.Metadata.Validate(); err != nil {
		return errors.Mark(err, errors.ErrMetadataUnavailable)
	}
	return nil
}

// class is one per-class file to render
type class struct {
	name   string
	render func() string
}

// generatePackage writes the per-class files of one package and, when at
// least one succeeded, its summary listing exactly those classes
func (r *Runner) generatePackage(ctx context.Context, gen typegen.Generator, kind typegen.Kind, pkg string, classes []class) typegen.PackageResult {
	log := logger.FromContext(ctx, r.logger).With(logger.FieldStage, string(kind), logger.FieldPackage, pkg)
	result := typegen.PackageResult{Kind: kind, Package: pkg}

	segs := util.SplitSegments(pkg)
	dir := filepath.Join(append([]string{r.opts.OutputDir, string(kind)}, segs...)...)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		result.Errors = len(classes)
		r.emitter.EmitError(string(kind), err)
		log.Errorw("Failed to create package directory", logger.FieldPath, dir, logger.FieldError, err)
		r.emitter.EmitPackage(result)
		return result
	}

	var written []string
	for _, c := range classes {
		if !gen.ValidName(c.name) {
			result.Errors++
			log.Errorw("Class name cannot be declared", logger.FieldClass, c.name)
			continue
		}
		path := filepath.Join(dir, c.name+"."+gen.FileExtension())
		if err := os.WriteFile(path, []byte(c.render()), filePerm); err != nil {
			result.Errors++
			log.Errorw("Failed to write class", logger.FieldClass, c.name, logger.FieldFile, path, logger.FieldError, err)
			continue
		}
		result.Generated++
		written = append(written, c.name)
		log.Debugw("Wrote class", logger.FieldFile, path)
		r.emitter.EmitFile(path)
	}

	if result.Generated > 0 {
		path := dir + "." + gen.FileExtension()
		if err := os.WriteFile(path, []byte(gen.GenerateSummary(kind, pkg, written)), filePerm); err != nil {
			result.Errors++
			log.Errorw("Failed to write package summary", logger.FieldFile, path, logger.FieldError, err)
		} else {
			result.Summary = path
			r.emitter.EmitFile(path)
		}
	}

	log.Infow("Generated package", logger.FieldGenerated, result.Generated, logger.FieldErrors, result.Errors)
	r.emitter.EmitPackage(result)
	return result
}

// GenerateRegistry writes the registry file for every package that has a
// summary and returns its path
func (r *Runner) GenerateRegistry(ctx context.Context, gen typegen.Generator, results []typegen.PackageResult) (string, error) {
	entries := typegen.RegistryEntries(results)
	path := filepath.Join(r.opts.OutputDir, csharp.RegistryFile)
	if err := os.WriteFile(path, []byte(gen.GenerateRegistry(entries)), filePerm); err != nil {
		return path, errors.Wrapf(err, "write %s", path)
	}
	logger.FromContext(ctx, r.logger).Infow("Wrote registry",
		logger.FieldFile, path,
		logger.FieldCount, len(entries),
	)
	return path, nil
}
