// Package typegen generates target-language bindings for the nodetool object model.
//
// # Architecture
//
// The package uses a two-layer design:
//  1. Language-agnostic discovery (package discovery) collects data types and
//     nodes from package manifests into a Catalog
//  2. Language-specific generators (csharp/) format each class, package
//     summary and the global registry
//
// The generate package drives both layers and owns the output layout.
//
// # Design Decisions
//
//   - Deterministic output (sorted fields, sorted packages, no timestamps)
//     enables CI validation via `typegen check`
//   - Serialization indices are positional and recomputed on every run
//   - Summaries and the registry reference classes by name only, so a
//     package can be regenerated without touching another
package typegen

import (
	"github.com/nodetool-ai/nodetool-sdk/discovery"
)

// Kind separates the two output trees
type Kind string

const (
	KindTypes Kind = "Types"
	KindNodes Kind = "Nodes"
)

// Generator defines the interface for language-specific generators
type Generator interface {
	// Language returns the language name (e.g., "csharp")
	Language() string

	// FileExtension returns the file extension for this language (e.g., "cs")
	FileExtension() string

	// ValidName reports whether a class name can be declared as-is
	ValidName(name string) bool

	// GenerateType renders one data type as a serializable record
	GenerateType(dt *discovery.DataType) string

	// GenerateNode renders one node with its properties and output shape
	GenerateNode(node *discovery.Node) string

	// GenerateSummary renders the per-package file that registers every class
	GenerateSummary(kind Kind, pkg string, names []string) string

	// GenerateRegistry renders the global serializer registration
	GenerateRegistry(entries []RegistryEntry) string
}
