package csharp

import (
	"math"
	"strconv"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/manifest"
)

// MapDefault renders a field default as a C# initializer expression.
// ok is false when the property should have no initializer.
func (m *Mapper) MapDefault(v manifest.Value) (expr string, ok bool) {
	if !v.Set {
		return "", false
	}

	switch v.Kind {
	case manifest.KindNone:
		return "null", true
	case manifest.KindBool:
		return strconv.FormatBool(v.Bool), true
	case manifest.KindInt:
		return strconv.FormatInt(v.Int, 10), true
	case manifest.KindFloat:
		return FloatLiteral(v.Float), true
	case manifest.KindString:
		return StringLiteral(v.String), true
	case manifest.KindList, manifest.KindMap:
		return "new()", true
	case manifest.KindInstance:
		typ, ok := m.ResolveType(simpleName(v.Type))
		if !ok {
			return "", false
		}
		return "new " + typ + "()", true
	}
	return "", false
}

// FloatLiteral renders f as a C# double literal that reads back to f
func FloatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return "double.NaN"
	case math.IsInf(f, 1):
		return "double.PositiveInfinity"
	case math.IsInf(f, -1):
		return "double.NegativeInfinity"
	}

	var s string
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-4 && abs < 1e21) {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// StringLiteral renders s as a C# verbatim string
func StringLiteral(s string) string {
	return `@"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
