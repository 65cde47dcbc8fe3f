package csharp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// keywords are the reserved C# words that must be escaped with @
var keywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

// Identifier returns a C# identifier for a Python field name.
// The snake_case spelling is kept so keyed formats stay wire compatible.
func Identifier(name string) string {
	if name == "" {
		return "_"
	}
	if keywords[name] {
		return "@" + name
	}
	if r, _ := utf8.DecodeRuneInString(name); unicode.IsDigit(r) {
		return "_" + name
	}
	return name
}

// IsKeyword reports whether name is a reserved C# word
func IsKeyword(name string) bool {
	return keywords[name]
}

// ValidIdentifier reports whether name can be declared verbatim: a plain
// identifier that is not a reserved word
func ValidIdentifier(name string) bool {
	return !strings.Contains(name, ".") && ValidNamespace(name)
}

// ValidNamespace reports whether ns is a dotted C# namespace whose segments
// are plain identifiers
func ValidNamespace(ns string) bool {
	if ns == "" {
		return false
	}
	for _, seg := range strings.Split(ns, ".") {
		if seg == "" || keywords[seg] {
			return false
		}
		for i, r := range seg {
			switch {
			case r == '_' || unicode.IsLetter(r):
			case i > 0 && unicode.IsDigit(r):
			default:
				return false
			}
		}
	}
	return true
}
