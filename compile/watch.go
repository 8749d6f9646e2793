package compile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay lets the burst of events an editor emits per save land
// before the file is recompiled.
const settleDelay = 100 * time.Millisecond

// Watch recompiles documents under paths as they change, invoking fn
// with each fresh report. Directories are watched recursively; for a
// plain file its parent directory is watched. Blocks until ctx is done.
func Watch(ctx context.Context, logger *zap.Logger, paths []string, cfg Config, fn func(*Report)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("accessing %s: %w", path, err)
		}

		if !info.IsDir() {
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			continue
		}

		err = filepath.Walk(path, func(dir string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fileInfo.IsDir() {
				if cfg.ignored(dir) {
					return filepath.SkipDir
				}
				return watcher.Add(dir)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(event, logger, cfg, fn)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if logger != nil {
				logger.Error("watch error", zap.Error(err))
			}
		}
	}
}

func handleEvent(event fsnotify.Event, logger *zap.Logger, cfg Config, fn func(*Report)) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !cfg.matchesExtension(event.Name) || cfg.ignored(event.Name) {
		return
	}

	// a save often arrives as several events
	time.Sleep(settleDelay)

	report, err := File(event.Name)
	if err != nil {
		if logger != nil {
			logger.Error("recompiling changed file", zap.String("file", event.Name), zap.Error(err))
		}
		return
	}
	fn(report)
}
