package util

import (
	"strings"
	"unicode"
)

const (
	// packagePrefix is the distribution prefix shared by every nodetool package
	packagePrefix = "nodetool"
	// libPrefix marks the lib-* family, which nests under a two-level namespace
	libPrefix = "lib"
	// LibNamespace is the first namespace segment of the lib-* family
	LibNamespace = "Lib"
)

// ToPascalCase converts snake_case or kebab-case to PascalCase
func ToPascalCase(s string) string {
	return joinPascal(strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-'
	}))
}

func joinPascal(parts []string) string {
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			// Capitalize first letter, keep rest as-is
			runes := []rune(part)
			result.WriteRune(unicode.ToUpper(runes[0]))
			result.WriteString(string(runes[1:]))
		}
	}
	return result.String()
}

// words splits s on every rune that cannot appear in an identifier
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// namespaceSegment makes a PascalCase segment safe to open a namespace component
func namespaceSegment(parts []string) string {
	seg := joinPascal(parts)
	if seg != "" && unicode.IsDigit([]rune(seg)[0]) {
		return "_" + seg
	}
	return seg
}

// NormalizePackageName maps a package identifier to its namespace form.
//
//	nodetool-huggingface   -> Huggingface
//	nodetool-HuggingFace   -> Huggingface
//	nodetool_lib_audio     -> Lib.Audio
//	lib-audio              -> Lib.Audio
//	libimage               -> Lib.Image
//	nodetool.nodes.openai  -> NodesOpenai
//
// Hyphens, underscores and dots are interchangeable and case is folded, so
// equivalent spellings land in one group. A name already in namespace form
// is returned unchanged.
func NormalizePackageName(raw string) string {
	if isNamespaceForm(raw) {
		return raw
	}

	parts := words(strings.ToLower(raw))
	if len(parts) > 1 && parts[0] == packagePrefix {
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return ""
	}

	head := parts[0]
	if strings.HasPrefix(head, libPrefix) {
		rest := parts[1:]
		if len(head) > len(libPrefix) {
			rest = append([]string{head[len(libPrefix):]}, rest...)
		}
		if len(rest) > 0 {
			return LibNamespace + "." + namespaceSegment(rest)
		}
	}

	return namespaceSegment(parts)
}

// isNamespaceForm reports whether name is already a NormalizePackageName
// result: one PascalCase segment, or Lib.<Segment>
func isNamespaceForm(name string) bool {
	segs := strings.Split(name, ".")
	switch len(segs) {
	case 1:
		lower := strings.ToLower(segs[0])
		if strings.HasPrefix(lower, libPrefix) && lower != libPrefix {
			return false
		}
	case 2:
		if segs[0] != LibNamespace {
			return false
		}
	default:
		return false
	}
	for _, seg := range segs {
		if !isPascalSegment(seg) {
			return false
		}
	}
	return true
}

// isPascalSegment accepts Upper[alnum]* and the digit-escaped _<digit>[alnum]*
func isPascalSegment(seg string) bool {
	runes := []rune(seg)
	if len(runes) == 0 {
		return false
	}
	start := 1
	switch {
	case unicode.IsUpper(runes[0]):
	case runes[0] == '_' && len(runes) > 1 && unicode.IsDigit(runes[1]):
		start = 2
	default:
		return false
	}
	for _, r := range runes[start:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// SplitSegments splits a normalized package name into its namespace
// components, which double as output directory components.
func SplitSegments(pkg string) []string {
	if pkg == "" {
		return nil
	}
	return strings.Split(pkg, ".")
}

// LastSegment returns the innermost namespace component of pkg
func LastSegment(pkg string) string {
	segs := SplitSegments(pkg)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
