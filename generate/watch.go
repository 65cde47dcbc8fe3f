package generate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nodetool-ai/nodetool-sdk/errors"
	"github.com/nodetool-ai/nodetool-sdk/logger"
	"github.com/nodetool-ai/nodetool-sdk/manifest"
)

// DefaultDebounce coalesces editor save bursts into one regeneration
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers a callback when manifests under the watched trees change
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.SugaredLogger

	// files are watched individually (config and registry files)
	files map[string]bool
}

// NewWatcher creates a watcher. A non-positive debounce uses DefaultDebounce.
func NewWatcher(debounce time.Duration, logger *zap.SugaredLogger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		files:    make(map[string]bool),
	}, nil
}

// AddTree watches root and every directory below it. fsnotify is not
// recursive, so directories created later are added as they appear.
func (w *Watcher) AddTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "failed to watch %s", path)
		}
		return nil
	})
}

// AddFile watches a single file through its directory
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", path)
	}
	w.files[abs] = true
	return nil
}

// skipDir matches directories never holding manifests
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__")
}

// relevant reports whether an event can change generated output
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if abs, err := filepath.Abs(event.Name); err == nil && w.files[abs] {
		return true
	}
	base := filepath.Base(event.Name)
	return manifest.IsManifest(base) || strings.HasPrefix(base, manifest.PackageInfoBase+".")
}

// Run watches until ctx is canceled, calling onChange once per debounced
// burst of relevant events. Calls are serial.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	log := logger.FromContext(ctx, w.logger)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					if err := w.AddTree(event.Name); err != nil {
						log.Warnw("Failed to watch new directory", logger.FieldPath, event.Name, logger.FieldError, err)
					}
				}
			}
			if !w.relevant(event) {
				continue
			}
			log.Debugw("Watcher detected change", logger.FieldFile, event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("Watcher error", logger.FieldError, err)

		case <-fire:
			fire = nil
			onChange(ctx)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
