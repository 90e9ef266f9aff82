package monitor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"devboot/internal/app/bus"
	"devboot/internal/config"
	"devboot/internal/config/logger"
)

const manifestOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// manifestWatcher warns when the dependency manifest changes after a successful install.
// A burst of events on the manifest (an editor save is usually rename + create + write)
// is reported once, quiet seconds after the last event.
type manifestWatcher struct {
	path  string
	quiet time.Duration
	fsw   *fsnotify.Watcher
	bus   bus.Bus
	log   logger.Logger
	wg    sync.WaitGroup

	mu      sync.Mutex
	timer   *time.Timer
	ops     fsnotify.Op
	events  int
	stopped bool
}

func newManifestWatcher(path string, b bus.Bus, log logger.Logger) (*manifestWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// editors replace files on save, so the directory is watched instead of the file
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &manifestWatcher{
		path:  filepath.Clean(path),
		quiet: config.MonitorDebounce,
		fsw:   fsw,
		bus:   b,
		log:   log,
	}, nil
}

func (w *manifestWatcher) start(ctx context.Context) {
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) == w.path && event.Op&manifestOps != 0 {
					w.record(event.Op)
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}

				w.log.Warn().Err(err).Msg("Manifest watcher error")
			}
		}
	}()
}

// record accumulates an event and restarts the quiet period
func (w *manifestWatcher) record(op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	w.ops |= op
	w.events++

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.quiet, w.flush)
}

func (w *manifestWatcher) flush() {
	w.mu.Lock()

	if w.stopped || w.events == 0 {
		w.mu.Unlock()
		return
	}

	ops, events := w.ops, w.events
	w.ops, w.events, w.timer = 0, 0, nil

	w.mu.Unlock()

	_, err := os.Stat(w.path)
	removed := os.IsNotExist(err)

	if removed {
		w.log.Warn().Msgf("Dependency manifest '%s' was removed (%s)", w.path, ops)
	} else {
		w.log.Warn().Msgf("Dependency manifest '%s' changed (%s), dependencies may be out of date", w.path, ops)
	}

	w.bus.Publish(bus.Message{
		Type: bus.EventManifestChanged,
		Data: bus.ManifestChanged{Path: w.path, Removed: removed, Events: events},
	})
}

func (w *manifestWatcher) close() {
	w.mu.Lock()
	w.stopped = true

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	w.mu.Unlock()

	w.fsw.Close()
	w.wg.Wait()
}
