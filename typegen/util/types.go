package util

import (
	"go/ast"

	"github.com/nodetool-ai/nodetool-sdk/typegen/annotation"
)

// TypeConverterConfig configures how Python annotations are converted to
// target language types. Generators fill in the formats; the rule order in
// ConvertAnnotation is shared by every target.
type TypeConverterConfig struct {
	// TypeMapping maps Python primitive names to target language types
	// e.g., C#: "str" -> "string", "float" -> "double"
	TypeMapping map[string]string

	// ResolveType resolves a data-type name to its target spelling.
	// ok is false for names that are not known data types.
	ResolveType func(name string) (resolved string, ok bool)

	// ArrayFormat formats a list (and variadic tuple) type given the element type
	// e.g., C#: "List<%s>"
	ArrayFormat func(elemType string) string

	// MapFormat formats a mapping type given key and value types
	// e.g., C#: "Dictionary<%s, %s>"
	MapFormat func(keyType, valType string) string

	// SetFormat formats a set type given the element type
	// e.g., C#: "HashSet<%s>"
	SetFormat func(elemType string) string

	// NullableFormat marks a type as nullable
	// e.g., C#: "%s?"
	NullableFormat func(t string) string

	// UnknownType is returned for Any and unrecognized annotations
	// e.g., C#: "object"
	UnknownType string
}

// Generic origins, by unqualified name
var (
	listOrigins  = map[string]bool{"list": true, "List": true}
	dictOrigins  = map[string]bool{"dict": true, "Dict": true}
	setOrigins   = map[string]bool{"set": true, "Set": true}
	tupleOrigins = map[string]bool{"tuple": true, "Tuple": true}
)

// ConvertAnnotationString parses and converts an annotation. Unparsable text
// maps to config.UnknownType.
func ConvertAnnotationString(text string, config *TypeConverterConfig) string {
	expr, err := annotation.Parse(text)
	if err != nil {
		return config.UnknownType
	}
	return ConvertAnnotation(expr, config)
}

// ConvertAnnotation converts a parsed annotation. Rules, first match wins:
// primitives, known data types, Any, Literal, list, dict, set, tuple,
// Optional/Union, and finally the unknown type.
func ConvertAnnotation(expr ast.Expr, config *TypeConverterConfig) string {
	if members, ok := annotation.UnionMembers(expr); ok {
		return convertUnion(members, config)
	}

	if origin, args, ok := annotation.Subscript(expr); ok {
		return convertGeneric(origin, args, config)
	}

	if ref, ok := annotation.ForwardRef(expr); ok {
		return ConvertAnnotationString(ref, config)
	}

	name, ok := annotation.Name(expr)
	if !ok {
		return config.UnknownType
	}
	return convertName(name, config)
}

// convertName handles annotations with no generic origin
func convertName(name string, config *TypeConverterConfig) string {
	if mapped, ok := config.TypeMapping[name]; ok {
		return mapped
	}
	if config.ResolveType != nil {
		if resolved, ok := config.ResolveType(name); ok {
			return resolved
		}
	}
	if name == "Any" {
		return config.UnknownType
	}

	// Unparameterized containers
	switch {
	case listOrigins[name], tupleOrigins[name]:
		return config.ArrayFormat(config.UnknownType)
	case dictOrigins[name]:
		return config.MapFormat(config.UnknownType, config.UnknownType)
	case setOrigins[name]:
		return config.SetFormat(config.UnknownType)
	}
	return config.UnknownType
}

func convertGeneric(origin string, args []ast.Expr, config *TypeConverterConfig) string {
	arg := func(i int) string {
		if i >= len(args) || annotation.IsEllipsis(args[i]) {
			return config.UnknownType
		}
		return ConvertAnnotation(args[i], config)
	}

	switch {
	case origin == "Literal":
		if len(args) == 0 {
			return config.UnknownType
		}
		if pyType, ok := annotation.LiteralType(args[0]); ok {
			return convertName(pyType, config)
		}
		return config.UnknownType

	case listOrigins[origin]:
		return config.ArrayFormat(arg(0))

	case dictOrigins[origin]:
		return config.MapFormat(arg(0), arg(1))

	case setOrigins[origin]:
		return config.SetFormat(arg(0))

	case tupleOrigins[origin]:
		// Variadic and heterogeneous tuples both collapse to a list of the
		// first element type
		return config.ArrayFormat(arg(0))
	}

	return config.UnknownType
}

func convertUnion(members []ast.Expr, config *TypeConverterConfig) string {
	var concrete []ast.Expr
	hasNone := false
	for _, m := range members {
		if annotation.IsNone(m) {
			hasNone = true
			continue
		}
		concrete = append(concrete, m)
	}

	if len(concrete) != 1 {
		return config.UnknownType
	}
	inner := ConvertAnnotation(concrete[0], config)
	if !hasNone {
		return inner
	}
	return config.NullableFormat(inner)
}
