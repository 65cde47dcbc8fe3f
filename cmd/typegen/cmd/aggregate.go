package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nodetool-ai/nodetool-sdk/generate"
	"github.com/nodetool-ai/nodetool-sdk/logger"
)

var aggregateDir string

// TypegenAggregateCmd collects hand-written package C# into one tree
var TypegenAggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Collect hand-written C# from every package",
	Long: `Copy the csharp_types/ and csharp_nodes/ files of every discovered package
into one tree under the output directory.

Files declaring the shared Nodetool.Types or Nodetool.Nodes namespace are
moved into their package's namespace, e.g. Nodetool.Types.Fal. The target
directory is replaced on every run and is never compared by check.

Examples:
  typegen aggregate                   # Write <output>/Aggregated
  typegen aggregate --dir Extra       # Write <output>/Extra
  typegen aggregate --dir /tmp/hand   # Absolute target`,
	RunE: runTypegenAggregate,
}

func init() {
	TypegenAggregateCmd.Flags().StringVar(&aggregateDir, "dir", generate.AggregateDir, "Target directory, relative to the output directory")
}

func runTypegenAggregate(cmd *cobra.Command, args []string) error {
	defer logger.Cleanup()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	target := aggregateDir
	if !filepath.IsAbs(target) {
		target = filepath.Join(cfg.Output, target)
	}

	agg := generate.NewAggregator(generate.AggregateOptions{
		OutputDir: target,
		Namespace: cfg.Namespace,
	}, newDiscoverer(cfg), newEmitter(cfg), logger.Logger.Named("aggregate"))

	summary, err := agg.Run(contextOf(cmd))
	if err != nil {
		return err
	}

	if cfg.Log.JSON {
		out, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	msg := fmt.Sprintf("Aggregated %d types and %d nodes from %d packages into %s",
		summary.Types, summary.Nodes, summary.Packages, summary.OutputDir)
	if summary.Errors > 0 {
		pterm.Warning.Printf("%s (%d errors)\n", msg, summary.Errors)
	} else {
		pterm.Success.Println(msg)
	}
	return nil
}
