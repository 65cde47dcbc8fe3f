package csharp

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/manifest"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

// =============================================================================
// Test helpers
// =============================================================================

func testIndex() *discovery.TypeIndex {
	idx := discovery.NewTypeIndex()
	idx.Add("ImageRef", "Core")
	idx.Add("AudioRef", "Core")
	idx.Add("FalImage", "Fal")
	return idx
}

func str(s string) manifest.Value {
	return manifest.Value{Set: true, Kind: manifest.KindString, String: s}
}

func lines(s ...string) string {
	return strings.Join(s, "\n") + "\n"
}

// =============================================================================
// Identifiers
// =============================================================================

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "_"},
		{"name", "name"},
		{"class", "@class"},
		{"default", "@default"},
		{"Class", "Class"},
		{"3d_mode", "_3d_mode"},
		{"sample_rate", "sample_rate"},
		{"größe", "größe"},
		{"名前", "名前"},
		{"café_au_lait", "café_au_lait"},
		{"_private", "_private"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identifier(tt.name)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Identifier(got), "idempotent")
		})
	}
	assert.True(t, IsKeyword("volatile"))
	assert.False(t, IsKeyword("record"))
}

// =============================================================================
// Type mapping
// =============================================================================

func TestMapType(t *testing.T) {
	types := NewMapper(DefaultNamespace, testIndex(), typegen.KindTypes, "Fal")

	tests := []struct {
		annotation string
		want       string
	}{
		// Primitives
		{"str", "string"},
		{"int", "int"},
		{"float", "double"},
		{"bool", "bool"},
		{"bytes", "byte[]"},
		{"None", "object"},
		{"object", "object"},
		{"Any", "object"},

		// Data types
		{"FalImage", "FalImage"},
		{"ImageRef", "global::Nodetool.Types.Core.ImageRef"},
		{"nodetool.metadata.types.ImageRef", "global::Nodetool.Types.Core.ImageRef"},
		{"'ImageRef'", "global::Nodetool.Types.Core.ImageRef"},

		// Containers
		{"list[ImageRef]", "List<global::Nodetool.Types.Core.ImageRef>"},
		{"List[str]", "List<string>"},
		{"typing.List[int]", "List<int>"},
		{"list", "List<object>"},
		{"dict[str, Any]", "Dictionary<string, object>"},
		{"Dict[str, list[FalImage]]", "Dictionary<string, List<FalImage>>"},
		{"dict", "Dictionary<object, object>"},
		{"set[int]", "HashSet<int>"},
		{"Set", "HashSet<object>"},
		{"tuple[int, ...]", "List<int>"},
		{"tuple[str, int]", "List<string>"},
		{"tuple", "List<object>"},

		// Literals collapse to the first value's type
		{"Literal['a', 'b']", "string"},
		{"Literal[1, 2]", "int"},
		{"Literal[-1.5]", "double"},
		{"Literal[True]", "bool"},

		// Unions
		{"Optional[int]", "int?"},
		{"Optional[Optional[int]]", "int?"},
		{"int | None", "int?"},
		{"None | ImageRef", "global::Nodetool.Types.Core.ImageRef?"},
		{"Union[str, None]", "string?"},
		{"Union[int, str]", "object"},
		{"int | str | None", "object"},
		{"Optional[list[str]]", "List<string>?"},

		// Unknown or unparsable
		{"SomethingElse", "object"},
		{"list[", "object"},
		{"Callable[[int], str]", "object"},
		{"", "object"},
	}

	for _, tt := range tests {
		t.Run(tt.annotation, func(t *testing.T) {
			assert.Equal(t, tt.want, types.MapType(tt.annotation))
		})
	}
}

func TestMapTypeQualification(t *testing.T) {
	idx := testIndex()

	coreTypes := NewMapper(DefaultNamespace, idx, typegen.KindTypes, "Core")
	assert.Equal(t, "ImageRef", coreTypes.MapType("ImageRef"), "same package stays unqualified")
	assert.Equal(t, "global::Nodetool.Types.Fal.FalImage", coreTypes.MapType("FalImage"))

	coreNodes := NewMapper(DefaultNamespace, idx, typegen.KindNodes, "Core")
	assert.Equal(t, "global::Nodetool.Types.Core.ImageRef", coreNodes.MapType("ImageRef"), "nodes always qualify")

	custom := NewMapper("Acme.Sdk", idx, typegen.KindNodes, "Fal")
	assert.Equal(t, "List<global::Acme.Sdk.Types.Fal.FalImage>", custom.MapType("list[FalImage]"))

	// A package named like the root namespace must not shadow other references
	shadow := discovery.NewTypeIndex()
	shadow.Add("Widget", "Nodetool")
	shadow.Add("ImageRef", "Core")
	inShadow := NewMapper(DefaultNamespace, shadow, typegen.KindTypes, "Nodetool")
	assert.Equal(t, "global::Nodetool.Types.Core.ImageRef", inShadow.MapType("ImageRef"))
	fromCore := NewMapper(DefaultNamespace, shadow, typegen.KindNodes, "Core")
	assert.Equal(t, "global::Nodetool.Types.Nodetool.Widget", fromCore.MapType("Widget"))

	var noIndex *discovery.TypeIndex
	bare := NewMapper(DefaultNamespace, noIndex, typegen.KindTypes, "Core")
	assert.Equal(t, "object", bare.MapType("ImageRef"))
}

// =============================================================================
// Defaults
// =============================================================================

func TestMapDefault(t *testing.T) {
	m := NewMapper(DefaultNamespace, testIndex(), typegen.KindTypes, "Fal")

	tests := []struct {
		name   string
		value  manifest.Value
		want   string
		wantOK bool
	}{
		{"unset", manifest.Value{}, "", false},
		{"none", manifest.None(), "null", true},
		{"true", manifest.ValueOf(true), "true", true},
		{"false", manifest.ValueOf(false), "false", true},
		{"int", manifest.ValueOf(int64(42)), "42", true},
		{"negative int", manifest.ValueOf(int64(-7)), "-7", true},
		{"float", manifest.ValueOf(2.5), "2.5", true},
		{"integral float", manifest.ValueOf(1.0), "1.0", true},
		{"zero float", manifest.ValueOf(0.0), "0.0", true},
		{"large float", manifest.ValueOf(1e6), "1000000.0", true},
		{"tiny float", manifest.ValueOf(1e-7), "1e-07", true},
		{"huge float", manifest.ValueOf(1e21), "1e+21", true},
		{"nan", manifest.ValueOf(math.NaN()), "double.NaN", true},
		{"inf", manifest.ValueOf(math.Inf(1)), "double.PositiveInfinity", true},
		{"-inf", manifest.ValueOf(math.Inf(-1)), "double.NegativeInfinity", true},
		{"string", str("x"), `@"x"`, true},
		{"empty string", str(""), `@""`, true},
		{"quoted string", str(`say "hi"`), `@"say ""hi"""`, true},
		{"backslash", str(`C:\tmp`), `@"C:\tmp"`, true},
		{"list", manifest.ValueOf([]any{1, 2}), "new()", true},
		{"map", manifest.ValueOf(map[string]any{"a": 1}), "new()", true},
		{"instance", manifest.ValueOf(map[string]any{"$type": "ImageRef"}), "new global::Nodetool.Types.Core.ImageRef()", true},
		{"qualified instance", manifest.ValueOf(map[string]any{"$type": "nodetool.metadata.types.ImageRef"}), "new global::Nodetool.Types.Core.ImageRef()", true},
		{"sibling instance", manifest.ValueOf(map[string]any{"$type": "FalImage"}), "new FalImage()", true},
		{"unknown instance", manifest.ValueOf(map[string]any{"$type": "Mystery"}), "", false},
		{"other", manifest.Value{Set: true, Kind: manifest.KindOther}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.MapDefault(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Data types
// =============================================================================

func TestGenerateTypeScenario(t *testing.T) {
	g := NewGenerator("", discovery.NewTypeIndex())
	dt := &discovery.DataType{
		Name:    "Thing",
		Package: "Core",
		Fields: []manifest.Field{
			{Name: "name", Type: "str", Default: str("x")},
			{Name: "count", Type: "int"},
		},
	}

	want := Header + lines(
		"",
		"using MessagePack;",
		"using System.Collections.Generic;",
		"",
		"namespace Nodetool.Types.Core;",
		"",
		"[MessagePackObject]",
		"public partial class Thing",
		"{",
		"    [Key(0)]",
		"    public int count { get; set; }",
		"    [Key(1)]",
		`    public string name { get; set; } = @"x";`,
		"}",
	)
	assert.Equal(t, want, g.GenerateType(dt))
}

func TestGenerateTypeIndices(t *testing.T) {
	g := NewGenerator("Nodetool", testIndex())
	dt := &discovery.DataType{Name: "Wide", Package: "Lib.Audio"}
	for _, name := range []string{"e", "class", "a", "d", "c", "b"} {
		dt.Fields = append(dt.Fields, manifest.Field{Name: name, Type: "int"})
	}

	out := g.GenerateType(dt)
	assert.Contains(t, out, "namespace Nodetool.Types.Lib.Audio;")
	for i := 0; i < len(dt.Fields); i++ {
		assert.Equal(t, 1, strings.Count(out, "[Key("+strconv.Itoa(i)+")]"), "index %d", i)
	}
	assert.NotContains(t, out, "[Key(6)]")
	assert.Less(t, strings.Index(out, " a {"), strings.Index(out, " b {"))
	assert.Contains(t, out, "public int @class { get; set; }")
	assert.Equal(t, out, g.GenerateType(dt), "rendering is deterministic")
}

func TestGenerateTypeEmpty(t *testing.T) {
	g := NewGenerator("", nil)
	out := g.GenerateType(&discovery.DataType{Name: "Marker", Package: "Core"})
	assert.True(t, strings.HasSuffix(out, "public partial class Marker\n{\n}\n"))
}

// =============================================================================
// Nodes
// =============================================================================

func TestGenerateNodeOutputs(t *testing.T) {
	g := NewGenerator("", testIndex())
	props := []manifest.Field{
		{Name: "image", Type: "ImageRef", Default: manifest.ValueOf(map[string]any{"$type": "ImageRef"})},
		{Name: "radius", Type: "float", Default: manifest.ValueOf(2.0)},
	}

	tests := []struct {
		name    string
		outputs []manifest.Output
		want    []string
	}{
		{
			name: "no outputs",
			want: []string{"    public void Process()\n    {\n    }\n}"},
		},
		{
			name:    "one output",
			outputs: []manifest.Output{{Name: "output", Type: "ImageRef"}},
			want: []string{
				"    public global::Nodetool.Types.Core.ImageRef Process()\n    {\n" +
					"        return default(global::Nodetool.Types.Core.ImageRef);\n    }\n}",
			},
		},
		{
			name:    "several outputs",
			outputs: []manifest.Output{{Name: "width", Type: "int"}, {Name: "audio", Type: "AudioRef"}},
			want: []string{
				lines(
					"    [MessagePackObject]",
					"    public class BlurOutput",
					"    {",
					"        [Key(0)]",
					"        public global::Nodetool.Types.Core.AudioRef audio { get; set; }",
					"        [Key(1)]",
					"        public int width { get; set; }",
					"    }",
					"",
					"    public BlurOutput Process()",
					"    {",
					"        return new BlurOutput();",
					"    }",
					"}",
				),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &discovery.Node{
				Name:     "Blur",
				Package:  "Core",
				Metadata: &manifest.NodeMetadata{Properties: props, Outputs: tt.outputs},
			}
			out := g.GenerateNode(node)

			assert.Contains(t, out, "namespace Nodetool.Nodes.Core;")
			assert.Contains(t, out, "public partial class Blur\n{\n")
			assert.Contains(t, out, "    [Key(0)]\n    public global::Nodetool.Types.Core.ImageRef image { get; set; } = new global::Nodetool.Types.Core.ImageRef();\n")
			assert.Contains(t, out, "    [Key(1)]\n    public double radius { get; set; } = 2.0;\n")
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestGenerateNodeFallback(t *testing.T) {
	g := NewGenerator("", testIndex())
	fields := []manifest.Field{
		{Name: "_internal", Type: "str"},
		{Name: "text", Type: "str", Default: str("")},
		{Name: "count", Type: "int", Default: manifest.ValueOf(int64(1))},
	}

	tests := []struct {
		name string
		node *discovery.Node
	}{
		{"missing metadata", &discovery.Node{Name: "Echo", Package: "Core", Fields: fields}},
		{"exporter error", &discovery.Node{
			Name: "Echo", Package: "Core", Fields: fields,
			Metadata:      &manifest.NodeMetadata{Outputs: []manifest.Output{{Name: "x", Type: "int"}}},
			MetadataError: "boom",
		}},
		{"invalid metadata", &discovery.Node{
			Name: "Echo", Package: "Core", Fields: fields,
			Metadata: &manifest.NodeMetadata{Properties: []manifest.Field{{Name: "a"}, {Name: "a"}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, HasMetadata(tt.node))
			out := g.GenerateNode(tt.node)
			assert.Contains(t, out, "    [Key(0)]\n    public int count { get; set; } = 1;\n")
			assert.Contains(t, out, "    [Key(1)]\n    public string text { get; set; } = @\"\";\n")
			assert.NotContains(t, out, "_internal")
			assert.NotContains(t, out, "Process")
		})
	}
}

// =============================================================================
// Summaries and registry
// =============================================================================

func TestGenerateSummary(t *testing.T) {
	g := NewGenerator("", nil)
	out := g.GenerateSummary(typegen.KindTypes, "Lib.Audio", []string{"Wave", "Clip", "Wave"})

	want := Header + lines(
		"",
		"using System;",
		"using System.Collections.Generic;",
		"",
		"namespace Nodetool.Types.Lib.Audio;",
		"",
		"public partial class Clip { }",
		"public partial class Wave { }",
		"",
		"public static class Registry",
		"{",
		"    internal static void Register(ICollection<Type> known)",
		"    {",
		"        known.Add(typeof(Clip));",
		"        known.Add(typeof(Wave));",
		"    }",
		"}",
	)
	assert.Equal(t, want, out)
}

func TestGenerateRegistry(t *testing.T) {
	g := NewGenerator("Acme", nil)
	out := g.GenerateRegistry([]typegen.RegistryEntry{
		{Kind: typegen.KindTypes, Package: "Core"},
		{Kind: typegen.KindTypes, Package: "Lib.Audio"},
		{Kind: typegen.KindNodes, Package: "Core"},
	})

	require.True(t, strings.HasPrefix(out, Header))
	assert.Contains(t, out, "namespace Acme;\n")
	assert.Contains(t, out, "new Lazy<Registration>(Build, LazyThreadSafetyMode.ExecutionAndPublication)")
	assert.Contains(t, out, "public static void Initialize()")
	assert.Contains(t, out, "public static IReadOnlyList<Type> KnownTypes")
	assert.Contains(t, out, "MessagePackSerializer.DefaultOptions = options;")
	assert.Contains(t, out, "options.Resolver.GetFormatterDynamic(type);")

	calls := []string{
		"global::Acme.Types.Core.Registry.Register(known);",
		"global::Acme.Types.Lib.Audio.Registry.Register(known);",
		"global::Acme.Nodes.Core.Registry.Register(known);",
	}
	last := -1
	for _, call := range calls {
		i := strings.Index(out, call)
		require.GreaterOrEqual(t, i, 0, call)
		assert.Greater(t, i, last, "registration order preserved: %s", call)
		last = i
	}

	empty := g.GenerateRegistry(nil)
	assert.NotContains(t, empty, ".Register(known);")
	assert.Contains(t, empty, "var known = new List<Type>();")
}

func TestGeneratorInfo(t *testing.T) {
	var g typegen.Generator = NewGenerator("", nil)
	assert.Equal(t, "csharp", g.Language())
	assert.Equal(t, "cs", g.FileExtension())
	assert.True(t, g.ValidName("ImageRef"))
	assert.True(t, g.ValidName("名前"))
	assert.False(t, g.ValidName("event"), "reserved words cannot name a class")
	assert.False(t, g.ValidName("Has Space"))
	assert.False(t, g.ValidName("../Escaped"))
	assert.False(t, g.ValidName("Types.Image"))
	assert.Equal(t, DefaultNamespace, NewGenerator("", nil).Namespace())
}

func TestValidNamespace(t *testing.T) {
	tests := []struct {
		ns   string
		want bool
	}{
		{"Nodetool", true},
		{"Acme.Nodetool_2", true},
		{"", false},
		{"Acme..Types", false},
		{"2fast", false},
		{"Acme.class", false},
		{"Acme-Types", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidNamespace(tt.ns), tt.ns)
	}
}
