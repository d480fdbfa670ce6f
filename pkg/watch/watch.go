// Package watch recompiles a schema whenever one of its source files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// BuildFunc compiles the schema and returns every file it read, including
// when compilation fails after the files were read.
type BuildFunc func(ctx context.Context) (files []string, err error)

// Watcher reruns a BuildFunc when a tracked file is written, created,
// renamed or removed. Bursts of events within Debounce collapse into one
// build.
type Watcher struct {
	Debounce time.Duration
	// OnEvent, when set, is called for every event on a tracked file.
	OnEvent func(fsnotify.Event)

	build  BuildFunc
	roots  []string
	logger zerolog.Logger

	files map[string]bool
	dirs  map[string]bool
}

// New returns a watcher for roots, which are tracked even before the first
// build reports them.
func New(roots []string, build BuildFunc, logger zerolog.Logger) *Watcher {
	return &Watcher{
		Debounce: 200 * time.Millisecond,
		build:    build,
		roots:    roots,
		logger:   logger,
	}
}

// Run builds once and then on every change until ctx is cancelled. Build
// failures are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.track(fw, nil); err != nil {
		return err
	}
	if err := w.track(fw, w.rebuild(ctx)); err != nil {
		return err
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
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

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("schema file changed")
			if w.OnEvent != nil {
				w.OnEvent(event)
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.track(fw, w.rebuild(ctx)); err != nil {
				w.logger.Error().Err(err).Msg("watch update failed")
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) []string {
	files, err := w.build(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("build failed")
	}
	return files
}

// track watches the parent directory of every root and built file.
func (w *Watcher) track(fw *fsnotify.Watcher, files []string) error {
	nextFiles := make(map[string]bool)
	nextDirs := make(map[string]bool)
	for _, list := range [][]string{w.roots, files} {
		for _, f := range list {
			abs, err := filepath.Abs(f)
			if err != nil {
				return fmt.Errorf("absolute path: %w", err)
			}
			nextFiles[abs] = true
			nextDirs[filepath.Dir(abs)] = true
		}
	}

	for dir := range nextDirs {
		if w.dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch directory: %w", err)
		}
	}
	for dir := range w.dirs {
		if !nextDirs[dir] {
			_ = fw.Remove(dir)
		}
	}

	w.files, w.dirs = nextFiles, nextDirs
	return nil
}
