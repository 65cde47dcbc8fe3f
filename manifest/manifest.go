// Package manifest holds the static self-description every nodetool package
// ships: module manifests listing the classes a module defines, the package
// registry naming installed packages, and the optional package info file.
//
// A module manifest is a TOML, YAML or JSON file named <module>.typegen.<ext>
// somewhere under a package's source tree:
//
//	module = "nodetool.metadata.types"
//
//	[[classes]]
//	name  = "ImageRef"
//	bases = ["AssetRef"]
//
//	[[classes.fields]]
//	name    = "uri"
//	type    = "str"
//	default = ""
//
// Nodes carry their processing metadata:
//
//	[[classes]]
//	name  = "Blur"
//	bases = ["BaseNode"]
//
//	[classes.metadata]
//	properties = [{ name = "image", type = "ImageRef", default = { "$type" = "ImageRef" } }]
//	outputs    = [{ name = "output", type = "ImageRef" }]
package manifest

import (
	"strings"
	"unicode"

	"github.com/nodetool-ai/nodetool-sdk/errors"
)

// Base class names every candidate must descend from
const (
	DataTypeBase = "BaseType"
	NodeBase     = "BaseNode"
)

// Module is one decoded module manifest
type Module struct {
	// Name is the dotted module path, e.g. "nodetool.nodes.audio"
	Name string

	// Path is the manifest's slash-separated path relative to its root
	Path string

	// Classes lists the classes the manifest describes, in file order
	Classes []Class
}

// Class describes one class visible in a module
type Class struct {
	Name string

	// Module is where the class is defined. Empty means the enclosing
	// module; any other value marks a re-export.
	Module string

	// Bases names the direct base classes, qualified or not
	Bases []string

	// Visible is nil when the manifest does not say; nodes default to visible
	Visible *bool

	// Fields are the declared fields in declaration order
	Fields []Field

	// Metadata is the node processing metadata, if exported
	Metadata *NodeMetadata

	// MetadataError records why the exporter could not produce metadata
	MetadataError string
}

// DefinedIn reports whether the class is defined in module rather than re-exported
func (c Class) DefinedIn(module string) bool {
	return c.Module == "" || c.Module == module
}

// IsVisible reports whether the class takes part in node generation
func (c Class) IsVisible() bool {
	return c.Visible == nil || *c.Visible
}

// ValidClassName reports whether name is a plain identifier: a letter or
// underscore followed by letters, digits and underscores. Class names become
// file names and type names, so nothing else is accepted.
func ValidClassName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

// ValidTypeRef reports whether ref is a class name, optionally qualified
// with its dotted module
func ValidTypeRef(ref string) bool {
	if ref == "" {
		return false
	}
	for _, seg := range strings.Split(ref, ".") {
		if !ValidClassName(seg) {
			return false
		}
	}
	return true
}

// Field is a declared field or node property
type Field struct {
	Name string

	// Type is the Python annotation, e.g. "list[ImageRef]"
	Type string

	Default Value
}

// Output is one declared node output
type Output struct {
	Name string
	Type string
}

// NodeMetadata is a node's processing metadata
type NodeMetadata struct {
	Properties []Field
	Outputs    []Output
}

// Validate checks that every property and output is named exactly once
func (m *NodeMetadata) Validate() error {
	if m == nil {
		return errors.Wrap(ErrNoMetadata, "validate")
	}
	seen := make(map[string]bool, len(m.Properties))
	for i, p := range m.Properties {
		if p.Name == "" {
			return errors.Newf("property %d has no name", i)
		}
		if seen[p.Name] {
			return errors.Newf("duplicate property %q", p.Name)
		}
		seen[p.Name] = true
	}
	seen = make(map[string]bool, len(m.Outputs))
	for i, o := range m.Outputs {
		if o.Name == "" {
			return errors.Newf("output %d has no name", i)
		}
		if seen[o.Name] {
			return errors.Newf("duplicate output %q", o.Name)
		}
		seen[o.Name] = true
	}
	return nil
}

// ErrNoMetadata is returned when a node exported no metadata at all
var ErrNoMetadata = errors.New("no metadata")

// PackageRecord is one entry of the package registry
type PackageRecord struct {
	// Name is the distribution name, e.g. "nodetool-huggingface"
	Name string `toml:"name" yaml:"name" json:"name"`

	// SourceFolder is a local checkout of the package
	SourceFolder string `toml:"source_folder" yaml:"source_folder" json:"source_folder"`

	// Source is a go-getter URL fetched into the cache when SourceFolder is empty
	Source string `toml:"source" yaml:"source" json:"source"`

	// Requires is a semantic version constraint on the SDK
	Requires string `toml:"requires" yaml:"requires" json:"requires"`
}

// PackageInfo is the optional typegen.package.<ext> file at a package root
type PackageInfo struct {
	Name     string `toml:"name" yaml:"name" json:"name"`
	Version  string `toml:"version" yaml:"version" json:"version"`
	Requires string `toml:"requires" yaml:"requires" json:"requires"`
}
