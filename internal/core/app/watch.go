package app

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"backrefs/internal/core/errors"
	"backrefs/internal/core/ports"
	"backrefs/internal/core/watcher"
)

// watchService rescans changed units as the filesystem watcher reports them
// and fans resulting updates out to subscribers.
type watchService struct {
	app *App

	mu       sync.Mutex
	started  bool
	fsw      *watcher.Watcher
	handlers map[int]func(ports.WatchUpdate)
	nextID   int
}

func newWatchService(a *App) *watchService {
	return &watchService{
		app:      a,
		handlers: make(map[int]func(ports.WatchUpdate)),
	}
}

func (w *watchService) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	fsw, err := watcher.NewWatcher(
		w.app.Config.Watch.Debounce,
		w.app.Config.Exclude.Dirs,
		w.app.Config.Exclude.Files,
		func(paths []string) {
			w.onChange(ctx, paths)
		},
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create watcher")
	}

	if err := fsw.Watch(w.app.scanRoots()); err != nil {
		_ = fsw.Close()
		return errors.Wrap(err, errors.CodeInternal, "watch source roots")
	}

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

func (w *watchService) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		_ = w.fsw.Close()
		w.fsw = nil
	}
	w.started = false
}

// Subscribe registers a handler for rescan updates and blocks until the
// context is cancelled.
func (w *watchService) Subscribe(ctx context.Context, handler func(ports.WatchUpdate)) error {
	if handler == nil {
		return errors.New(errors.CodeValidationError, "handler is required")
	}

	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = handler
	w.mu.Unlock()

	<-ctx.Done()

	w.mu.Lock()
	delete(w.handlers, id)
	w.mu.Unlock()
	return ctx.Err()
}

func (w *watchService) onChange(ctx context.Context, paths []string) {
	var changed, removed []string
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				removed = append(removed, path)
				continue
			}
			slog.Warn("stat changed path failed", "path", path, "error", err)
			continue
		}
		changed = append(changed, path)
	}

	update := ports.WatchUpdate{}
	if len(removed) > 0 {
		if err := w.app.removeUnits(ctx, removed); err != nil {
			slog.Warn("failed to queue removals", "error", err)
			update.Warnings = append(update.Warnings, err.Error())
		}
	}
	if len(changed) > 0 {
		result, err := w.app.rescanUnits(ctx, changed)
		if err != nil {
			slog.Warn("rescan of changed units failed", "error", err)
			update.Warnings = append(update.Warnings, err.Error())
		}
		update.UnitsScanned = result.UnitsScanned
		update.References = result.References
		update.Warnings = append(update.Warnings, result.Warnings...)
		update.LastUnit = lastOf(changed)
	} else if len(removed) > 0 {
		update.LastUnit = lastOf(removed)
	}

	w.mu.Lock()
	handlers := make([]func(ports.WatchUpdate), 0, len(w.handlers))
	for _, h := range w.handlers {
		handlers = append(handlers, h)
	}
	w.mu.Unlock()

	for _, h := range handlers {
		h(update)
	}
}

func lastOf(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[len(paths)-1]
}
