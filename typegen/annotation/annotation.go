// Package annotation parses Python type annotation strings, as written in
// package manifests, into Go expression trees.
//
// Python's subscript syntax is close enough to Go's index and generic
// instantiation syntax that go/parser can read it after two rewrites:
// single-quoted strings become Go strings and "..." becomes the Ellipsis
// identifier.
//
//	list[ImageRef]         -> *ast.IndexExpr
//	dict[str, Any]         -> *ast.IndexListExpr
//	str | None             -> *ast.BinaryExpr (token.OR)
//	typing.Optional[int]   -> *ast.IndexExpr over *ast.SelectorExpr
//	Literal['a', 'b']      -> *ast.IndexListExpr of *ast.BasicLit
package annotation

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strconv"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/errors"
)

// EllipsisName replaces Python's "..." so variadic tuples stay parseable
const EllipsisName = "Ellipsis"

// Parse converts a Python annotation into a Go expression tree.
// A quoted forward reference ("ImageRef") is unwrapped once.
func Parse(text string) (ast.Expr, error) {
	src, err := rewrite(text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(src) == "" {
		return nil, errors.New("empty annotation")
	}
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, errors.Wrapf(err, "parse annotation %q", text)
	}
	if inner, ok := ForwardRef(expr); ok {
		return Parse(inner)
	}
	return expr, nil
}

// rewrite turns Python-only lexical forms into Go ones outside of strings
func rewrite(text string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(text); {
		switch c := text[i]; {
		case c == '\'' || c == '"':
			end := closingQuote(text, i)
			if end < 0 {
				return "", errors.Newf("unterminated string in annotation %q", text)
			}
			b.WriteString(strconv.Quote(unescape(text[i+1 : end])))
			i = end + 1
		case strings.HasPrefix(text[i:], "..."):
			b.WriteString(EllipsisName)
			i += 3
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String(), nil
}

func closingQuote(text string, start int) int {
	quote := text[start]
	for j := start + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j
		}
	}
	return -1
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ForwardRef reports whether expr is a quoted annotation and returns its text
func ForwardRef(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}

// Name returns the unqualified name of an identifier or dotted selector.
// typing.List and List both yield "List".
func Name(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name, true
	case *ast.SelectorExpr:
		return e.Sel.Name, true
	case *ast.ParenExpr:
		return Name(e.X)
	}
	return "", false
}

// Subscript splits a subscripted annotation into its origin and arguments.
// ok is false for anything that is not subscripted.
func Subscript(expr ast.Expr) (origin string, args []ast.Expr, ok bool) {
	switch e := expr.(type) {
	case *ast.IndexExpr:
		origin, ok = Name(e.X)
		return origin, []ast.Expr{e.Index}, ok
	case *ast.IndexListExpr:
		origin, ok = Name(e.X)
		return origin, e.Indices, ok
	case *ast.ParenExpr:
		return Subscript(e.X)
	}
	return "", nil, false
}

// IsEllipsis reports whether expr stands for Python's "..."
func IsEllipsis(expr ast.Expr) bool {
	id, ok := expr.(*ast.Ident)
	return ok && id.Name == EllipsisName
}

// IsNone reports whether expr is the None type
func IsNone(expr ast.Expr) bool {
	name, ok := Name(expr)
	return ok && (name == "None" || name == "NoneType")
}

// LiteralType returns the Python type name of a Literal[...] member:
// "str", "int", "float", "bool" or "None". ok is false for anything else.
func LiteralType(expr ast.Expr) (string, bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		switch e.Kind {
		case token.STRING, token.CHAR:
			return "str", true
		case token.INT:
			return "int", true
		case token.FLOAT:
			return "float", true
		}
	case *ast.UnaryExpr:
		if e.Op == token.SUB || e.Op == token.ADD {
			return LiteralType(e.X)
		}
	case *ast.Ident:
		switch e.Name {
		case "True", "False":
			return "bool", true
		case "None":
			return "None", true
		}
	case *ast.ParenExpr:
		return LiteralType(e.X)
	}
	return "", false
}

// UnionMembers flattens Optional[X], Union[...] and X | Y into their
// members, including None. Nested unions are flattened and members are
// de-duplicated by their source text. ok is false when expr is not a union.
func UnionMembers(expr ast.Expr) (members []ast.Expr, ok bool) {
	if !isUnion(expr) {
		return nil, false
	}
	seen := make(map[string]bool)
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if p, isParen := e.(*ast.ParenExpr); isParen {
			walk(p.X)
			return
		}
		if b, isBin := e.(*ast.BinaryExpr); isBin && b.Op == token.OR {
			walk(b.X)
			walk(b.Y)
			return
		}
		if origin, args, sub := Subscript(e); sub {
			switch origin {
			case "Optional":
				for _, a := range args {
					walk(a)
				}
				walk(ast.NewIdent("None"))
				return
			case "Union":
				for _, a := range args {
					walk(a)
				}
				return
			}
		}
		key := String(e)
		if IsNone(e) {
			key = "None"
		}
		if !seen[key] {
			seen[key] = true
			members = append(members, e)
		}
	}
	walk(expr)
	return members, true
}

func isUnion(expr ast.Expr) bool {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return isUnion(e.X)
	case *ast.BinaryExpr:
		return e.Op == token.OR
	}
	origin, _, ok := Subscript(expr)
	return ok && (origin == "Optional" || origin == "Union")
}

// String renders expr back to annotation text
func String(expr ast.Expr) string {
	return types.ExprString(expr)
}
