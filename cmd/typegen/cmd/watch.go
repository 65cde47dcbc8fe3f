package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/generate"
	"github.com/nodetool-ai/nodetool-sdk/logger"
)

var watchDebounce = generate.DefaultDebounce

// TypegenWatchCmd regenerates whenever a manifest changes
var TypegenWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate when package manifests change",
	Long: `Generate once, then watch every discovered package tree and the registry
file, regenerating after each burst of changes.

Packages added to the workspace and edits to typegen.toml are picked up on
restart.`,
	RunE: runTypegenWatch,
}

func init() {
	TypegenWatchCmd.Flags().DurationVar(&watchDebounce, "debounce", generate.DefaultDebounce, "Quiet period before regenerating")
}

func runTypegenWatch(cmd *cobra.Command, args []string) error {
	defer logger.Cleanup()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d := newDiscoverer(cfg)
	runner := generate.New(generate.Options{
		OutputDir: cfg.Output,
		Namespace: cfg.Namespace,
		Mode:      selectedMode(),
	}, d, newEmitter(cfg), logger.Logger.Named("generate"))

	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	w, err := generate.NewWatcher(watchDebounce, logger.Logger.Named("watch"))
	if err != nil {
		return err
	}
	defer w.Close()

	roots, _, err := d.DiscoverPackages(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list package trees")
	}
	watched := 0
	for _, root := range roots {
		if root.Dir == "" {
			continue
		}
		if err := w.AddTree(root.Dir); err != nil {
			logger.Warnw("Not watching package", logger.FieldPackage, root.Package, logger.FieldError, err)
			continue
		}
		watched++
	}
	if cfg.Packages.Registry != "" {
		if err := w.AddFile(cfg.Packages.Registry); err != nil {
			logger.Warnw("Not watching registry", logger.FieldFile, cfg.Packages.Registry, logger.FieldError, err)
		}
	}

	pterm.Info.Printf("Watching %d package trees (Ctrl+C to stop)\n", watched)
	err = w.Run(ctx, func(ctx context.Context) {
		if _, err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			pterm.Error.Printf("Regeneration failed: %v\n", err)
		}
	})
	pterm.Info.Println("Stopped watching")
	return err
}
