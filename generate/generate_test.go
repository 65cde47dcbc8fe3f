package generate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/errors"
	testutil "github.com/nodetool-ai/nodetool-sdk/internal/testing"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

const scenarioCore = `
-- nodetool-core/src/nodetool/metadata/types.typegen.toml --
[[classes]]
name = "Thing"
bases = ["BaseType"]

[[classes.fields]]
name = "name"
type = "str"
default = "x"

[[classes.fields]]
name = "count"
type = "int"
`

const extensions = `
-- nodetool-broken/src/nodetool/nodes/broken.typegen.toml --
classes = [ this is not toml
-- nodetool-good/src/nodetool/nodes/good.typegen.yaml --
classes:
  - name: Alpha
    bases: [BaseType]
    fields:
      - {name: thing, type: Thing, default: {$type: Thing}}
  - name: Beta
    bases: [Alpha]
  - name: Gamma
    bases: [BaseNode]
    metadata:
      properties:
        - {name: input, type: Alpha}
      outputs:
        - {name: output, type: str}
`

func newRunner(t *testing.T, root string, mode Mode, scanWorkspace bool) (*Runner, string) {
	t.Helper()
	out := filepath.Join(root, "out")
	d := discovery.New(discovery.Options{
		CorePath:      filepath.Join(root, "nodetool-core"),
		WorkspaceRoot: root,
		ScanWorkspace: scanWorkspace,
		Providers:     discovery.NewProviderRegistry(),
	}, zap.NewNop().Sugar())
	return New(Options{OutputDir: out, Mode: mode}, d, nil, zap.NewNop().Sugar()), out
}

// snapshot reads every file under dir keyed by slash-separated relative path
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		data, err := os.ReadFile(path)
		files[filepath.ToSlash(rel)] = string(data)
		return err
	})
	require.NoError(t, err)
	return files
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ============================================================================
// End-to-end scenarios
// ============================================================================

func TestRunSingleDataType(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	r, out := newRunner(t, root, ModeFull, false)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	files := snapshot(t, out)
	assert.ElementsMatch(t, []string{"Types/Core/Thing.cs", "Types/Core.cs", "NodeToolTypes.cs"}, keys(files))

	thing := files["Types/Core/Thing.cs"]
	assert.Equal(t, 2, strings.Count(thing, "[Key("))
	assert.Contains(t, thing, "    [Key(0)]\n    public int count { get; set; }\n")
	assert.Contains(t, thing, "    [Key(1)]\n    public string name { get; set; } = @\"x\";\n")

	pkgSummary := files["Types/Core.cs"]
	assert.Equal(t, 1, strings.Count(pkgSummary, "known.Add(typeof("))
	assert.Contains(t, pkgSummary, "known.Add(typeof(Thing));")

	assert.Contains(t, files["NodeToolTypes.cs"], "global::Nodetool.Types.Core.Registry.Register(known);")
	assert.NotContains(t, files["NodeToolTypes.cs"], "Nodes.Core")

	assert.Equal(t, 3, summary.Generated())
	assert.Equal(t, 0, summary.Errors())
	assert.NotEmpty(t, summary.RunID)
}

func TestRunFailingPackage(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	testutil.WriteTreeAt(t, root, extensions)
	r, out := newRunner(t, root, ModeFull, true)

	summary, err := r.Run(context.Background())
	require.NoError(t, err, "a failing package is not fatal")

	broken, ok := summary.Row("Broken")
	require.True(t, ok)
	assert.Equal(t, 0, broken.Types+broken.Nodes)
	assert.Equal(t, 1, broken.Errors)
	assert.NotEmpty(t, broken.Note)

	good, ok := summary.Row("Good")
	require.True(t, ok)
	assert.Equal(t, 2, good.Types)
	assert.Equal(t, 1, good.Nodes)
	assert.Equal(t, 0, good.Errors)

	alpha := testutil.ReadFile(t, out, "Types/Good/Alpha.cs")
	assert.Contains(t, alpha, "public global::Nodetool.Types.Core.Thing thing { get; set; } = new global::Nodetool.Types.Core.Thing();")
	beta := testutil.ReadFile(t, out, "Types/Good/Beta.cs")
	assert.Contains(t, beta, "public global::Nodetool.Types.Core.Thing thing", "inherited field")

	gamma := testutil.ReadFile(t, out, "Nodes/Good/Gamma.cs")
	assert.Contains(t, gamma, "public global::Nodetool.Types.Good.Alpha input { get; set; }")
	assert.Contains(t, gamma, "public string Process()")

	registry := testutil.ReadFile(t, out, "NodeToolTypes.cs")
	order := []string{
		"global::Nodetool.Types.Core.Registry",
		"global::Nodetool.Types.Good.Registry",
		"global::Nodetool.Nodes.Good.Registry",
	}
	last := -1
	for _, call := range order {
		i := strings.Index(registry, call)
		require.GreaterOrEqual(t, i, 0, call)
		assert.Greater(t, i, last, call)
		last = i
	}
	assert.NotContains(t, registry, "Broken")
}

func TestRunIsDeterministic(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	testutil.WriteTreeAt(t, root, extensions)
	r, out := newRunner(t, root, ModeFull, true)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	first := snapshot(t, out)

	_, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, snapshot(t, out), "regeneration is byte-identical")

	other := filepath.Join(root, "other")
	r2 := New(Options{OutputDir: other}, r.discoverer, nil, zap.NewNop().Sugar())
	_, err = r2.Run(context.Background())
	require.NoError(t, err)

	check, err := typegen.CompareDirectories(other, out)
	require.NoError(t, err)
	assert.True(t, check.UpToDate, "%+v", check)
}

// ============================================================================
// Modes and failures
// ============================================================================

func TestRunFullModeCleansPreviousOutput(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	testutil.WriteTreeAt(t, root, `
-- out/Types/Core/Stale.cs --
stale
-- out/Nodes/Old/Gone.cs --
stale
-- out/Nodetool.csproj --
<Project />
`)
	r, out := newRunner(t, root, ModeFull, false)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	files := snapshot(t, out)
	assert.NotContains(t, files, "Types/Core/Stale.cs")
	assert.NotContains(t, files, "Nodes/Old/Gone.cs")
	assert.Contains(t, files, "Nodetool.csproj", "unrelated files survive")
}

func TestRunTypesOnly(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	testutil.WriteTreeAt(t, root, `
-- out/Nodes/Core/Kept.cs --
kept
`)
	r, out := newRunner(t, root, ModeTypes, false)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	files := snapshot(t, out)
	assert.Contains(t, files, "Nodes/Core/Kept.cs", "no cleanup outside full mode")
	assert.Contains(t, files, "Types/Core/Thing.cs")
	assert.NotContains(t, files, "NodeToolTypes.cs")
	assert.Empty(t, summary.Nodes)
	assert.Empty(t, summary.Registry)
}

func TestRunWriteFailureIsCounted(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	testutil.WriteTreeAt(t, root, `
-- nodetool-core/src/nodetool/metadata/more.typegen.toml --
[[classes]]
name = "Other"
bases = ["BaseType"]
-- out/Types/Core/Thing.cs/blocker --
a directory where the class file should go
`)
	r, out := newRunner(t, root, ModeTypes, false)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Types, 1)
	res := summary.Types[0]
	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, summary.Errors())

	pkgSummary := testutil.ReadFile(t, out, "Types/Core.cs")
	assert.Contains(t, pkgSummary, "typeof(Other)")
	assert.NotContains(t, pkgSummary, "typeof(Thing)", "summary lists only written classes")
}

func TestRunSkipsUndeclarableClassNames(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	testutil.WriteTreeAt(t, root, `
-- nodetool-core/src/nodetool/metadata/bad.typegen.toml --
[[classes]]
name = "../../../Escaped"
bases = ["BaseType"]

[[classes]]
name = "Has Space"
bases = ["BaseType"]

[[classes]]
name = "event"
bases = ["BaseType"]
`)
	r, out := newRunner(t, root, ModeFull, false)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	files := snapshot(t, out)
	assert.ElementsMatch(t, []string{"Types/Core/Thing.cs", "Types/Core.cs", "NodeToolTypes.cs"}, keys(files))
	_, err = os.Stat(filepath.Join(root, "Escaped.cs"))
	assert.True(t, os.IsNotExist(err), "nothing is written outside the output directory")

	assert.NotContains(t, files["Types/Core.cs"], "Has Space")
	assert.NotContains(t, files["Types/Core.cs"], "typeof(event)")

	require.Len(t, summary.Types, 1)
	assert.Equal(t, 1, summary.Types[0].Generated)
	assert.Equal(t, 1, summary.Types[0].Errors, "the reserved word reaches generation and is counted there")
	assert.Equal(t, 2, summary.Packages[0].Rejected, "path and space names are rejected by discovery")
	assert.Equal(t, 3, summary.Errors())

	row, ok := summary.Row("Core")
	require.True(t, ok)
	assert.Equal(t, 3, row.Errors)
}

func TestRunMissingCoreIsFatal(t *testing.T) {
	root := t.TempDir()
	r, _ := newRunner(t, root, ModeFull, false)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestRunJSONProgress(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	var buf bytes.Buffer
	d := discovery.New(discovery.Options{
		CorePath:  filepath.Join(root, "nodetool-core"),
		Providers: discovery.NewProviderRegistry(),
	}, zap.NewNop().Sugar())
	r := New(Options{OutputDir: filepath.Join(root, "out")}, d, NewJSONEmitter(&buf), nil)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	var types []string
	var files []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var event ProgressEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		types = append(types, event.Type)
		if event.Type == "file" {
			files = append(files, filepath.Base(event.Data["path"].(string)))
		}
	}
	require.NotEmpty(t, types)
	assert.Equal(t, "stage", types[0])
	assert.Equal(t, "discovery", types[1])
	assert.Equal(t, "complete", types[len(types)-1])
	assert.Contains(t, types, "package")
	assert.NotContains(t, types, "error")
	assert.Equal(t, []string{"Thing.cs", "Core.cs", "NodeToolTypes.cs"}, files)
}

func TestRunReportsRecoverableDiscoveryErrors(t *testing.T) {
	root := testutil.WriteTree(t, scenarioCore)
	var buf bytes.Buffer
	d := discovery.New(discovery.Options{
		CorePath:     filepath.Join(root, "nodetool-core"),
		RegistryPath: filepath.Join(root, "absent.toml"),
		Providers:    discovery.NewProviderRegistry(),
	}, zap.NewNop().Sugar())
	r := New(Options{OutputDir: filepath.Join(root, "out")}, d, NewJSONEmitter(&buf), nil)

	summary, err := r.Run(context.Background())
	require.NoError(t, err, "an unreadable registry does not abort the run")
	assert.Equal(t, 0, summary.Errors())

	var errs []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var event ProgressEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		if event.Type == "error" {
			errs = append(errs, event.Data["error"].(string))
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "absent.toml")

	row, ok := summary.Row("absent.toml")
	require.True(t, ok)
	assert.Equal(t, "registry", row.Origin)
	assert.NotEmpty(t, row.Note)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeFull, false},
		{"full", ModeFull, false},
		{"types", ModeTypes, false},
		{"nodes", ModeNodes, false},
		{"everything", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSummaryRows(t *testing.T) {
	s := &Summary{
		Packages: []discovery.PackageReport{
			{Package: "Core", Origin: discovery.OriginCore},
			{Package: "Skipped", Origin: discovery.OriginRegistry, Skipped: "no source tree"},
		},
		Types: []typegen.PackageResult{{Kind: typegen.KindTypes, Package: "Core", Generated: 4, Summary: "Types/Core.cs"}},
		Nodes: []typegen.PackageResult{{Kind: typegen.KindNodes, Package: "Core", Generated: 2, Errors: 1, Summary: "Nodes/Core.cs"}},
	}

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Package: "Core", Origin: "core", Types: 4, Nodes: 2, Errors: 1}, rows[0])
	assert.Equal(t, "no source tree", rows[1].Note)
	assert.Equal(t, 8, s.Generated())
	assert.Equal(t, 1, s.Errors())
}
