package csharp

import (
	"fmt"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/discovery"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
	"github.com/nodetool-ai/nodetool-sdk/typegen/util"
)

// TypeMapping defines how Python primitives map to C# types
var TypeMapping = map[string]string{
	"str":      "string",
	"int":      "int",
	"float":    "double",
	"bool":     "bool",
	"bytes":    "byte[]",
	"None":     "object",
	"NoneType": "object",
	"object":   "object",
}

// unknownType stands in for Any and for annotations with no C# counterpart
const unknownType = "object"

// Mapper converts Python annotations for classes of one package and kind.
// Data types in the same package are referenced by simple name; everything
// else is qualified with its full namespace.
type Mapper struct {
	namespace string
	index     *discovery.TypeIndex
	kind      typegen.Kind
	pkg       string
	config    *util.TypeConverterConfig
}

// NewMapper creates a mapper for classes of kind in pkg
func NewMapper(namespace string, index *discovery.TypeIndex, kind typegen.Kind, pkg string) *Mapper {
	m := &Mapper{namespace: namespace, index: index, kind: kind, pkg: pkg}
	m.config = &util.TypeConverterConfig{
		TypeMapping:    TypeMapping,
		ResolveType:    m.ResolveType,
		ArrayFormat:    func(elem string) string { return "List<" + elem + ">" },
		MapFormat:      func(key, val string) string { return fmt.Sprintf("Dictionary<%s, %s>", key, val) },
		SetFormat:      func(elem string) string { return "HashSet<" + elem + ">" },
		NullableFormat: func(t string) string { return t + "?" },
		UnknownType:    unknownType,
	}
	return m
}

// MapType converts a Python annotation to a C# type. It never fails:
// anything it cannot express becomes object.
func (m *Mapper) MapType(annotation string) string {
	if strings.TrimSpace(annotation) == "" {
		return unknownType
	}
	return util.ConvertAnnotationString(annotation, m.config)
}

// ResolveType spells a known data type, qualified unless it is a sibling
// in the package being generated. ok is false for unknown names.
func (m *Mapper) ResolveType(name string) (string, bool) {
	pkg, ok := m.index.Lookup(name, m.pkg)
	if !ok {
		return "", false
	}
	if m.kind == typegen.KindTypes && pkg == m.pkg {
		return name, true
	}
	return TypeName(m.namespace, pkg, name), true
}

// TypeName is the fully qualified name of a data type. It is rooted at
// global:: so a package namespace that repeats the root name cannot capture it.
func TypeName(namespace, pkg, name string) string {
	return "global::" + Namespace(namespace, typegen.KindTypes, pkg) + "." + name
}

// Namespace is the C# namespace of a package's types or nodes
func Namespace(namespace string, kind typegen.Kind, pkg string) string {
	return namespace + "." + string(kind) + "." + pkg
}

// simpleName strips a module qualification from a class name
func simpleName(name string) string {
	return util.LastSegment(name)
}
