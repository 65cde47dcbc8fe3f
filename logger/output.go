package logger

// OutputCategory defines a category of console output that can be enabled/disabled.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information the CLI prints.
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputSummary OutputCategory = iota // Run-end summary table
	OutputErrors                        // Fatal errors with hints

	// Level 1 (-v)
	OutputStages   // Stage banners (discovery, types, nodes, registry)
	OutputPackages // Per-package generated/error counts

	// Level 2 (-vv)
	OutputDiscovery // Roots, registry records, skipped modules
	OutputConfig    // Effective configuration

	// Level 3 (-vvv)
	OutputFiles // Every file written
)

var categoryLevels = map[OutputCategory]int{
	OutputSummary:   VerbosityUser,
	OutputErrors:    VerbosityUser,
	OutputStages:    VerbosityInfo,
	OutputPackages:  VerbosityInfo,
	OutputDiscovery: VerbosityDebug,
	OutputConfig:    VerbosityDebug,
	OutputFiles:     VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
