package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/inkwell/pkg/core"
)

// IndexSyncer receives document changes observed on the medium.
type IndexSyncer interface {
	Upsert(ctx context.Context, path string) (core.MetadataRecord, error)
	Delete(ctx context.Context, path string) error
}

// WatchWorker keeps the metadata index in step with documents changed behind
// the runtime's back, e.g. while the card is exported over USB.
type WatchWorker struct {
	*worker.BaseWorker
	storage   *Storage
	pattern   string
	syncer    IndexSyncer
	busy      func() bool
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

// NewWatchWorker creates a watcher for documents matching pattern.
// busy, when set, is consulted before touching storage; changes seen while it
// reports true are retried later.
func NewWatchWorker(s *Storage, pattern string, syncer IndexSyncer, busy func() bool) *WatchWorker {
	if pattern == "" {
		pattern = "**"
	}
	return &WatchWorker{
		BaseWorker: worker.NewBaseWorker("index-watcher"),
		storage:    s,
		pattern:    strings.TrimPrefix(pattern, "/"),
		syncer:     syncer,
		busy:       busy,
	}
}

func (w *WatchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.storage.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(50 * time.Millisecond)
	w.storage.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *WatchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *WatchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

func (w *WatchWorker) logger() *slog.Logger {
	return w.storage.config.Logger
}

// handleEvent filters a filesystem event and schedules an index update.
func (w *WatchWorker) handleEvent(ctx context.Context, event fsnotify.Event) bool {
	name, err := w.storage.name(event.Name)
	if err != nil {
		w.reportError(fmt.Errorf("failed to resolve %s: %w", event.Name, err))
		return false
	}
	rel := strings.TrimPrefix(name, "/")
	if w.storage.isInternal(rel) {
		return false
	}

	// New directories must be watched too.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.reportError(err)
			}
			return false
		}
	}

	if ok, _ := doublestar.Match(w.pattern, rel); !ok {
		return false
	}

	w.logger().Debug("document changed", "path", name, "op", event.Op.String())
	w.schedule(ctx, name)
	return true
}

func (w *WatchWorker) schedule(ctx context.Context, name string) {
	w.debouncer.add(name, func() {
		if ctx.Err() != nil {
			return
		}
		if w.busy != nil && w.busy() {
			w.schedule(ctx, name)
			return
		}
		w.apply(ctx, name)
	})
}

// apply brings one index record in line with the file on disk.
func (w *WatchWorker) apply(ctx context.Context, name string) {
	info, err := w.storage.Stat(ctx, name)
	switch {
	case errors.Is(err, core.ErrNotFound):
		if err := w.syncer.Delete(ctx, name); err != nil {
			w.reportError(fmt.Errorf("failed to drop %s from index: %w", name, err))
		}
	case err != nil:
		w.reportError(err)
	case info.IsDir:
	default:
		if _, err := w.syncer.Upsert(ctx, name); err != nil {
			w.reportError(fmt.Errorf("failed to index %s: %w", name, err))
		}
	}
	w.storage.recordSync()
}

func (w *WatchWorker) reportError(err error) {
	w.logger().Error("index watcher error", "error", err)
	if w.storage.config.ErrorHandler != nil {
		w.storage.config.ErrorHandler(err)
	}
}

// run is the main event loop for the watcher worker.
func (w *WatchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.logger().Enabled(ctx, slog.LevelDebug) {
				w.logger().Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.logger().Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.storage.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *WatchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.reportError(wErr)
		}
	}
}

// recursiveAdd registers every directory below the root except the system one.
func (s *Storage) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(s.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == s.config.SystemDir && path != s.Path {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Watch starts a watch worker bound to ctx.
func (s *Storage) Watch(ctx context.Context, pattern string, syncer IndexSyncer, busy func() bool) (*WatchWorker, error) {
	w := NewWatchWorker(s, pattern, syncer, busy)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
