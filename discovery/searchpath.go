package discovery

import (
	"sort"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/manifest"
)

// classEntry is a class defined (not re-exported) in a scanned module
type classEntry struct {
	class  manifest.Class
	module string
	pkg    string
}

// layer is the class namespace contributed by one package root
type layer struct {
	pkg string
	// classes maps simple names to the first definition in module path order
	classes map[string]*classEntry
	// ordered lists every definition, shadowed duplicates included
	ordered []*classEntry
}

func newLayer(pkg string, modules []*manifest.Module) *layer {
	l := &layer{pkg: pkg, classes: make(map[string]*classEntry)}
	for _, mod := range modules {
		for _, class := range mod.Classes {
			if !class.DefinedIn(mod.Name) {
				continue
			}
			entry := &classEntry{class: class, module: mod.Name, pkg: pkg}
			l.ordered = append(l.ordered, entry)
			if _, exists := l.classes[class.Name]; !exists {
				l.classes[class.Name] = entry
			}
		}
	}
	return l
}

// searchPath resolves base class names against the layers currently in
// scope. The core layer stays pushed for the whole run; each extension
// package is pushed while it is scanned and popped afterwards, so one
// package's classes never resolve bases for another.
type searchPath struct {
	layers []*layer
}

// push brings l into scope and returns the function that takes it out
func (s *searchPath) push(l *layer) (pop func()) {
	s.layers = append(s.layers, l)
	depth := len(s.layers)
	return func() {
		s.layers = s.layers[:depth-1]
	}
}

// depth returns the number of layers in scope
func (s *searchPath) depth() int {
	return len(s.layers)
}

// lookup finds a class by name, innermost layer first
func (s *searchPath) lookup(name string) *classEntry {
	simple := simpleName(name)
	for i := len(s.layers) - 1; i >= 0; i-- {
		if e, ok := s.layers[i].classes[simple]; ok {
			return e
		}
	}
	return nil
}

// extends reports whether e's base chain reaches base
func (s *searchPath) extends(e *classEntry, base string) bool {
	visited := make(map[*classEntry]bool)
	var walk func(*classEntry) bool
	walk = func(cur *classEntry) bool {
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for _, b := range cur.class.Bases {
			if simpleName(b) == base {
				return true
			}
			if parent := s.lookup(b); parent != nil && walk(parent) {
				return true
			}
		}
		return false
	}
	return walk(e)
}

// fields resolves e's fields with inherited ones, sorted by name.
// Earlier bases take precedence over later ones and the class's own
// declarations take precedence over all bases.
func (s *searchPath) fields(e *classEntry) []manifest.Field {
	merged := make(map[string]manifest.Field)
	s.collectFields(e, merged, make(map[*classEntry]bool))

	out := make([]manifest.Field, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *searchPath) collectFields(e *classEntry, into map[string]manifest.Field, visiting map[*classEntry]bool) {
	if visiting[e] {
		return
	}
	visiting[e] = true
	defer delete(visiting, e)

	for i := len(e.class.Bases) - 1; i >= 0; i-- {
		if parent := s.lookup(e.class.Bases[i]); parent != nil {
			s.collectFields(parent, into, visiting)
		}
	}
	for _, f := range e.class.Fields {
		into[f.Name] = f
	}
}

// simpleName strips a module qualification: nodetool.metadata.types.BaseType -> BaseType
func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
