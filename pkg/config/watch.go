package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events an editor produces on save.
const reloadDelay = 200 * time.Millisecond

// Watch calls onChange whenever filename is written, created or replaced,
// until ctx is cancelled. The parent directory is watched so that editors
// which save by rename are still observed. Errors reported by the watcher
// are passed to onError when it is non-nil.
func Watch(ctx context.Context, filename string, onChange func(), onError func(error)) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("resolve config path %s: %w", filename, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timerCh:
			timerCh = nil
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			timerCh = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(watchErr)
			}
		}
	}
}
