package xlsx

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watch calls onChange whenever the workbook file is written, replaced or
// removed, until ctx is done. The parent directory is watched because
// editors usually save through a rename.
func (g *Gateway) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	abs, err := filepath.Abs(g.path)
	if err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	base := filepath.Base(abs)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base || !ev.Has(changeOps) {
					continue
				}
				g.logger.Info("workbook changed", "path", ev.Name, "op", ev.Op.String())
				onChange()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				g.logger.Warn("workbook watcher error", "error", err)
			}
		}
	}()
	return nil
}
