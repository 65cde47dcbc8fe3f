package typegen

import "sort"

// PackageResult holds what one generation stage produced for one package
type PackageResult struct {
	Kind Kind

	// Package is the normalized package name, e.g. "Lib.Audio"
	Package string

	// Generated counts per-class files written
	Generated int

	// Errors counts per-class failures
	Errors int

	// Summary is the path of the package summary file, empty when none was written
	Summary string
}

// RegistryEntry names a package summary the global registry must call
type RegistryEntry struct {
	Kind    Kind
	Package string
}

// RegistryEntries lists the packages that produced a summary, types before
// nodes, each group sorted by package name.
func RegistryEntries(results []PackageResult) []RegistryEntry {
	var entries []RegistryEntry
	for _, r := range results {
		if r.Summary == "" {
			continue
		}
		entries = append(entries, RegistryEntry{Kind: r.Kind, Package: r.Package})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind == KindTypes
		}
		return entries[i].Package < entries[j].Package
	})
	return entries
}
