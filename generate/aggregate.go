package generate

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/logger"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
	"github.com/nodetool-ai/nodetool-sdk/typegen/csharp"
	"github.com/nodetool-ai/nodetool-sdk/typegen/util"
)

// AggregateDir is the default directory, under the output directory, that
// receives hand-written package C#
const AggregateDir = "Aggregated"

// handWritten maps each output tree to the package directory holding its
// hand-written sources
var handWritten = []struct {
	kind typegen.Kind
	dir  string
}{
	{typegen.KindTypes, "csharp_types"},
	{typegen.KindNodes, "csharp_nodes"},
}

// PackageLister lists the package roots to aggregate from
type PackageLister interface {
	DiscoverPackages(ctx context.Context) ([]discovery.Root, []discovery.PackageReport, error)
}

// AggregateOptions configures an aggregation
type AggregateOptions struct {
	// OutputDir receives Types/<Pkg>/ and Nodes/<Pkg>/; it is replaced wholesale
	OutputDir string

	// Namespace is the root C# namespace
	Namespace string
}

// AggregateSummary counts what an aggregation copied
type AggregateSummary struct {
	OutputDir string                  `json:"output_dir"`
	Packages  int                     `json:"packages"`
	Types     int                     `json:"types"`
	Nodes     int                     `json:"nodes"`
	Errors    int                     `json:"errors"`
	Results   []typegen.PackageResult `json:"-"`
}

// Aggregator copies the hand-written csharp_types/ and csharp_nodes/ files
// of every discovered package into one tree, moving each file from the
// shared <ns>.Types or <ns>.Nodes namespace into its package's namespace.
type Aggregator struct {
	opts    AggregateOptions
	lister  PackageLister
	emitter ProgressEmitter
	logger  *zap.SugaredLogger
}

// NewAggregator creates an aggregator. A nil emitter discards progress.
func NewAggregator(opts AggregateOptions, lister PackageLister, emitter ProgressEmitter, logger *zap.SugaredLogger) *Aggregator {
	if opts.Namespace == "" {
		opts.Namespace = csharp.DefaultNamespace
	}
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Aggregator{opts: opts, lister: lister, emitter: emitter, logger: logger}
}

// Run aggregates every package. Only discovery and output directory
// failures are returned; a file that cannot be copied is logged and counted.
func (a *Aggregator) Run(ctx context.Context) (*AggregateSummary, error) {
	a.emitter.EmitStage("discover", "scanning packages")
	roots, reports, err := a.lister.DiscoverPackages(ctx)
	if err != nil {
		a.emitter.EmitError("discover", err)
		return nil, errors.Wrap(err, "discovery failed")
	}
	a.emitter.EmitDiscovery(reports)

	if err := os.RemoveAll(a.opts.OutputDir); err != nil {
		return nil, errors.Wrapf(err, "remove previous %s", a.opts.OutputDir)
	}

	summary := &AggregateSummary{OutputDir: a.opts.OutputDir}
	a.emitter.EmitStage("aggregate", "copying hand-written C#")
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		copied := 0
		for _, hw := range handWritten {
			res := a.aggregatePackage(root, hw.kind, hw.dir)
			if res.Generated == 0 && res.Errors == 0 {
				continue
			}
			copied += res.Generated
			summary.Errors += res.Errors
			if hw.kind == typegen.KindTypes {
				summary.Types += res.Generated
			} else {
				summary.Nodes += res.Generated
			}
			summary.Results = append(summary.Results, res)
			a.emitter.EmitPackage(res)
		}
		if copied > 0 {
			summary.Packages++
		}
	}

	a.logger.Infow("Aggregation complete",
		logger.FieldCount, summary.Packages,
		logger.FieldGenerated, summary.Types+summary.Nodes,
		logger.FieldErrors, summary.Errors,
	)
	return summary, nil
}

func (a *Aggregator) aggregatePackage(root discovery.Root, kind typegen.Kind, dir string) typegen.PackageResult {
	log := a.logger.With(logger.FieldPackage, root.Package, logger.FieldStage, string(kind))
	result := typegen.PackageResult{Kind: kind, Package: root.Package}

	fsys := root.PackageFS()
	files, err := fs.Glob(fsys, dir+"/*.cs")
	if err != nil || len(files) == 0 {
		return result
	}
	sort.Strings(files)

	target := filepath.Join(append([]string{a.opts.OutputDir, string(kind)}, util.SplitSegments(root.Package)...)...)
	if err := os.MkdirAll(target, dirPerm); err != nil {
		result.Errors = len(files)
		log.Errorw("Failed to create package directory", logger.FieldPath, target, logger.FieldError, err)
		return result
	}

	rewrite := namespaceRewriter(a.opts.Namespace+"."+string(kind), csharp.Namespace(a.opts.Namespace, kind, root.Package))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err == nil {
			out := filepath.Join(target, path.Base(file))
			if err = os.WriteFile(out, rewrite(data), filePerm); err == nil {
				result.Generated++
				log.Debugw("Copied hand-written file", logger.FieldFile, out)
				a.emitter.EmitFile(out)
				continue
			}
		}
		result.Errors++
		log.Errorw("Failed to copy hand-written file", logger.FieldFile, file, logger.FieldError, err)
	}
	return result
}

// namespaceRewriter replaces namespace declarations of exactly from, in
// file-scoped or block form, with to. Other namespaces are left alone.
func namespaceRewriter(from, to string) func([]byte) []byte {
	re := regexp.MustCompile(`(?m)^(\s*namespace\s+)` + regexp.QuoteMeta(from) + `(\s*(?:;|\{|$))`)
	repl := []byte("${1}" + to + "${2}")
	return func(src []byte) []byte {
		return re.ReplaceAll(src, repl)
	}
}
