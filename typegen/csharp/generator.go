// Package csharp renders discovered data types and nodes as MessagePack
// annotated C# classes.
//
// Every class is a partial class with integer-keyed properties. Keys are
// assigned 0..N-1 over the name-sorted properties on every run, so they are
// stable only as long as the property set is.
package csharp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/manifest"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

// DefaultNamespace is the root namespace of generated code
const DefaultNamespace = "Nodetool"

// Header opens every generated file
const Header = `//------------------------------------------------------------------------------
// <auto-generated>
//     This code was generated by the NodeTool SDK Type Generator.
// </auto-generated>
//------------------------------------------------------------------------------
`

// Generator implements typegen.Generator for C#
type Generator struct {
	namespace string
	index     *discovery.TypeIndex
}

// NewGenerator creates a C# generator. index resolves data-type references
// across packages; namespace defaults to DefaultNamespace.
func NewGenerator(namespace string, index *discovery.TypeIndex) *Generator {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Generator{namespace: namespace, index: index}
}

// Language returns "csharp"
func (g *Generator) Language() string {
	return "csharp"
}

// FileExtension returns "cs"
func (g *Generator) FileExtension() string {
	return "cs"
}

// ValidName reports whether a class can be declared under its own name
// (implements typegen.Generator)
func (g *Generator) ValidName(name string) bool {
	return ValidIdentifier(name)
}

// Namespace returns the root namespace
func (g *Generator) Namespace() string {
	return g.namespace
}

// property is one rendered member of a generated class
type property struct {
	name    string
	typ     string
	initial string
}

// GenerateType renders a data type (implements typegen.Generator)
func (g *Generator) GenerateType(dt *discovery.DataType) string {
	m := NewMapper(g.namespace, g.index, typegen.KindTypes, dt.Package)

	var sb strings.Builder
	writePreamble(&sb, Namespace(g.namespace, typegen.KindTypes, dt.Package))
	sb.WriteString("[MessagePackObject]\n")
	sb.WriteString(fmt.Sprintf("public partial class %s\n{\n", dt.Name))
	writeProperties(&sb, "    ", fieldProperties(m, dt.Fields, false))
	sb.WriteString("}\n")
	return sb.String()
}

// GenerateNode renders a node (implements typegen.Generator). Nodes whose
// metadata is missing or invalid are rendered from their declared fields,
// without a Process method.
func (g *Generator) GenerateNode(node *discovery.Node) string {
	m := NewMapper(g.namespace, g.index, typegen.KindNodes, node.Package)

	var sb strings.Builder
	writePreamble(&sb, Namespace(g.namespace, typegen.KindNodes, node.Package))
	sb.WriteString("[MessagePackObject]\n")
	sb.WriteString(fmt.Sprintf("public partial class %s\n{\n", node.Name))

	if !HasMetadata(node) {
		writeProperties(&sb, "    ", fieldProperties(m, node.Fields, true))
		sb.WriteString("}\n")
		return sb.String()
	}

	writeProperties(&sb, "    ", fieldProperties(m, node.Metadata.Properties, false))
	writeProcess(&sb, m, node.Name, node.Metadata.Outputs)
	sb.WriteString("}\n")
	return sb.String()
}

// HasMetadata reports whether node can be rendered from its processing
// metadata rather than its declared fields
func HasMetadata(node *discovery.Node) bool {
	return node.MetadataError == "" && node.Metadata.Validate() == nil
}

func writePreamble(sb *strings.Builder, namespace string) {
	sb.WriteString(Header)
	sb.WriteString("\n")
	sb.WriteString("using MessagePack;\n")
	sb.WriteString("using System.Collections.Generic;\n")
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("namespace %s;\n\n", namespace))
}

// fieldProperties maps fields to properties sorted by name.
// skipPrivate drops underscore-prefixed names.
func fieldProperties(m *Mapper, fields []manifest.Field, skipPrivate bool) []property {
	sorted := make([]manifest.Field, 0, len(fields))
	for _, f := range fields {
		if skipPrivate && strings.HasPrefix(f.Name, "_") {
			continue
		}
		sorted = append(sorted, f)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	props := make([]property, 0, len(sorted))
	for _, f := range sorted {
		p := property{name: Identifier(f.Name), typ: m.MapType(f.Type)}
		if initial, ok := m.MapDefault(f.Default); ok {
			p.initial = initial
		}
		props = append(props, p)
	}
	return props
}

// writeProperties writes Key-indexed auto-properties, indices from 0
func writeProperties(sb *strings.Builder, indent string, props []property) {
	for i, p := range props {
		sb.WriteString(fmt.Sprintf("%s[Key(%d)]\n", indent, i))
		if p.initial != "" {
			sb.WriteString(fmt.Sprintf("%spublic %s %s { get; set; } = %s;\n", indent, p.typ, p.name, p.initial))
		} else {
			sb.WriteString(fmt.Sprintf("%spublic %s %s { get; set; }\n", indent, p.typ, p.name))
		}
	}
}

// writeProcess writes the Process stub whose return type mirrors the
// node's outputs: void, the single output's type, or a nested record
func writeProcess(sb *strings.Builder, m *Mapper, nodeName string, outputs []manifest.Output) {
	switch len(outputs) {
	case 0:
		sb.WriteString("\n    public void Process()\n    {\n    }\n")

	case 1:
		typ := m.MapType(outputs[0].Type)
		sb.WriteString(fmt.Sprintf("\n    public %s Process()\n    {\n", typ))
		sb.WriteString(fmt.Sprintf("        return default(%s);\n    }\n", typ))

	default:
		outputName := nodeName + "Output"
		sorted := append([]manifest.Output(nil), outputs...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

		props := make([]property, 0, len(sorted))
		for _, o := range sorted {
			props = append(props, property{name: Identifier(o.Name), typ: m.MapType(o.Type)})
		}

		sb.WriteString("\n    [MessagePackObject]\n")
		sb.WriteString(fmt.Sprintf("    public class %s\n    {\n", outputName))
		writeProperties(sb, "        ", props)
		sb.WriteString("    }\n")
		sb.WriteString(fmt.Sprintf("\n    public %s Process()\n    {\n", outputName))
		sb.WriteString(fmt.Sprintf("        return new %s();\n    }\n", outputName))
	}
}
