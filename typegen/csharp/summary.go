package csharp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

// RegistryClass is the per-package static class that lists its classes
const RegistryClass = "Registry"

// GenerateSummary renders the package summary (implements typegen.Generator).
// It declares every class of the package and a Register routine that adds
// them, in name order, to the caller's known-types list.
func (g *Generator) GenerateSummary(kind typegen.Kind, pkg string, names []string) string {
	sorted := uniqueSorted(names)

	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteString("\n")
	sb.WriteString("using System;\n")
	sb.WriteString("using System.Collections.Generic;\n")
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("namespace %s;\n\n", Namespace(g.namespace, kind, pkg)))

	for _, name := range sorted {
		sb.WriteString(fmt.Sprintf("public partial class %s { }\n", name))
	}
	if len(sorted) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("public static class %s\n{\n", RegistryClass))
	sb.WriteString("    internal static void Register(ICollection<Type> known)\n    {\n")
	for _, name := range sorted {
		sb.WriteString(fmt.Sprintf("        known.Add(typeof(%s));\n", name))
	}
	sb.WriteString("    }\n}\n")
	return sb.String()
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
