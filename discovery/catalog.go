package discovery

import (
	"sort"

	"github.com/nodetool-ai/nodetool-sdk/manifest"
)

// CorePackage is the group name of the core package
const CorePackage = "Core"

// DataType is a discovered plain-data class
type DataType struct {
	Name string

	// Module is the dotted module that defines the class
	Module string

	// Package is the normalized package group, e.g. "Core" or "Lib.Audio"
	Package string

	// Fields are the resolved fields, inherited ones included, sorted by name
	Fields []manifest.Field
}

// Node is a discovered processing node
type Node struct {
	Name    string
	Module  string
	Package string

	// Fields are the declared fields, inherited ones included, sorted by name.
	// They back the degraded rendering path when metadata is unavailable.
	Fields []manifest.Field

	Metadata *manifest.NodeMetadata

	// MetadataError is set when the exporter could not produce metadata
	MetadataError string
}

// PackageReport summarizes discovery of one package
type PackageReport struct {
	// Package is the normalized group name
	Package string

	// Name is the identifier the package was found under
	Name string

	// Origin is one of "core", "registry", "provider", "workspace"
	Origin string

	// Location is the directory scanned, empty for providers
	Location string

	Modules       int
	ModulesFailed int
	DataTypes     int
	Nodes         int

	// Rejected counts candidate classes skipped because their names are not
	// identifiers
	Rejected int

	// Skipped explains why the package contributed nothing, if it was skipped whole
	Skipped string

	// Err is the error behind Skipped
	Err error
}

// Catalog is the result of one discovery pass
type Catalog struct {
	// DataTypes and Nodes map package groups to classes sorted by name
	DataTypes map[string][]*DataType
	Nodes     map[string][]*Node

	// Reports lists every package considered, in discovery order
	Reports []PackageReport

	// Roots lists every scanned root, in discovery order
	Roots []Root

	Index *TypeIndex
}

func newCatalog() *Catalog {
	return &Catalog{
		DataTypes: make(map[string][]*DataType),
		Nodes:     make(map[string][]*Node),
		Index:     NewTypeIndex(),
	}
}

// TypePackages returns the packages that have data types, sorted
func (c *Catalog) TypePackages() []string {
	return sortedKeys(c.DataTypes)
}

// NodePackages returns the packages that have nodes, sorted
func (c *Catalog) NodePackages() []string {
	return sortedKeys(c.Nodes)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TypeIndex maps data-type names to the packages that define them.
// It lets one package's declarations reference another package's types.
type TypeIndex struct {
	packages map[string][]string
}

// NewTypeIndex creates an empty index
func NewTypeIndex() *TypeIndex {
	return &TypeIndex{packages: make(map[string][]string)}
}

// Add records that pkg defines a data type called name
func (idx *TypeIndex) Add(name, pkg string) {
	for _, p := range idx.packages[name] {
		if p == pkg {
			return
		}
	}
	idx.packages[name] = append(idx.packages[name], pkg)
	sort.Strings(idx.packages[name])
}

// Lookup returns the package defining name. When several packages define
// it, prefer wins if it is one of them, then the core package, then the
// first in sorted order.
func (idx *TypeIndex) Lookup(name, prefer string) (string, bool) {
	if idx == nil {
		return "", false
	}
	pkgs := idx.packages[name]
	if len(pkgs) == 0 {
		return "", false
	}
	for _, candidate := range []string{prefer, CorePackage} {
		for _, p := range pkgs {
			if candidate != "" && p == candidate {
				return p, true
			}
		}
	}
	return pkgs[0], true
}

// Len returns the number of distinct type names
func (idx *TypeIndex) Len() int {
	return len(idx.packages)
}
