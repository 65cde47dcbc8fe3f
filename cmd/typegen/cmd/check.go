package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/generate"
	"github.com/nodetool-ai/nodetool-sdk/logger"
	"github.com/nodetool-ai/nodetool-sdk/typegen"
)

// ErrStale is returned by check when the committed output differs
var ErrStale = errors.New("generated types are out of date")

// TypegenCheckCmd checks if generated types are up to date
var TypegenCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check if generated types are up to date",
	Long: `Check if the generated C# in the output directory matches the current
package manifests.

This command generates into a temporary directory and compares the result
with the output directory. Only Types/, Nodes/ and top-level generated files
are compared; project files next to them are ignored.

Exit codes:
  0 - Types are up to date
  1 - Types are out of date (files listed)
  2 - Error during check
  3 - Core package not found

Examples:
  typegen check                      # Check the configured output
  typegen check -o sdk/csharp/Types  # Check another directory`,
	RunE: runTypegenCheck,
}

func runTypegenCheck(cmd *cobra.Command, args []string) error {
	defer logger.Cleanup()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "typegen-check-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	runner := generate.New(generate.Options{
		OutputDir: tempDir,
		Namespace: cfg.Namespace,
		Mode:      generate.ModeFull,
	}, newDiscoverer(cfg), nil, logger.Logger.Named("check"))

	summary, err := runner.Run(contextOf(cmd))
	if err != nil {
		return err
	}
	if summary.Errors() > 0 {
		pterm.Warning.Printf("Generation reported %d errors; the comparison may be incomplete\n", summary.Errors())
	}

	result, err := typegen.CompareDirectories(tempDir, cfg.Output)
	if err != nil {
		return errors.Wrap(err, "failed to compare directories")
	}

	if result.UpToDate {
		pterm.Success.Println("Types are up to date")
		return nil
	}

	pterm.Error.Println("Types are out of date")
	printFiles("differ", result.Differing)
	printFiles("missing", result.Missing)
	printFiles("no longer generated", result.Extra)

	return errors.WithHint(ErrStale, "run typegen to regenerate")
}

func printFiles(label string, files []string) {
	if len(files) == 0 {
		return
	}
	pterm.Printf("\n%s:\n", label)
	for _, f := range files {
		pterm.Printf("  - %s\n", f)
	}
}
