package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/inkwell/pkg/adapters/fs"
	"github.com/aretw0/inkwell/pkg/adapters/host"
	"github.com/aretw0/inkwell/pkg/core"
	"github.com/aretw0/inkwell/pkg/index"
	"github.com/aretw0/inkwell/pkg/power"
	"github.com/aretw0/inkwell/pkg/textbuf"
)

// Runtime is the wired device: storage, session store, index, document
// service and power manager sharing one set of collaborators.
type Runtime struct {
	Root      string
	Sandboxed bool

	Storage core.Storage
	FS      *fs.Storage // nil when storage was injected
	Store   core.SessionStore
	Index   *index.FileIndex
	Codec   *textbuf.Model
	Service *core.Service
	Manager *power.Manager

	Display  core.Display
	Keyboard core.Keyboard
	Clock    core.Clock
	CPU      core.CPU

	Logger *slog.Logger
}

// New wires a runtime on the storage root.
//
//	rt, err := platform.New("/media/card", platform.WithLogger(logger))
func New(root string, opts ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.systemDir == "" {
		o.systemDir = fs.DefaultSystemDir
	}

	rt := &Runtime{Root: root, Logger: o.logger, Storage: o.storage}

	if rt.Storage == nil {
		s, abs, sandboxed, err := initStorage(root, o)
		if err != nil {
			return nil, err
		}
		rt.FS, rt.Storage, rt.Root, rt.Sandboxed = s, s, abs, sandboxed
	}

	path, err := sessionPath(rt.Root, o.systemDir, rt.Sandboxed, o)
	if err != nil && o.store == nil {
		return nil, err
	}
	rt.Store, err = openStore(path, o)
	if err != nil {
		return nil, err
	}

	rt.Display = o.display
	if rt.Display == nil {
		rt.Display = host.NewDisplay(io.Discard, 0)
	}
	rt.Keyboard = o.keyboard
	if rt.Keyboard == nil {
		rt.Keyboard = host.NewKeyboard(0)
	}
	rt.Clock = o.clock
	if rt.Clock == nil {
		rt.Clock = host.NewClock()
	}
	rt.CPU = o.cpu
	if rt.CPU == nil {
		rt.CPU = host.NewCPU(core.StorageFrequencyMHz)
	}

	guard := core.NewStorageGuard(rt.CPU, core.DefaultConfig().PowerSaveMode)
	indexPath := o.indexPath
	if indexPath == "" {
		indexPath = "/" + o.systemDir + "/metadata.txt"
	}
	rt.Index = index.New(index.Config{
		Storage: rt.Storage,
		Guard:   guard,
		Clock:   rt.Clock,
		Path:    indexPath,
		Logger:  o.logger,
	})
	rt.Codec = textbuf.New(rt.Display, o.displayWidth)
	rt.Service = core.NewService(core.ServiceConfig{
		Storage:  rt.Storage,
		Index:    rt.Index,
		Codec:    rt.Codec,
		Guard:    guard,
		Display:  rt.Display,
		Keyboard: rt.Keyboard,
		Clock:    rt.Clock,
		Logger:   o.logger,
	})

	powerOpts := append([]power.Option{power.WithLogger(o.logger)}, o.powerOptions...)
	rt.Manager = power.New(power.Deps{
		Service:  rt.Service,
		Storage:  rt.Storage,
		Store:    rt.Store,
		Display:  rt.Display,
		Keyboard: rt.Keyboard,
		Charger:  o.charger,
		Sensor:   o.sensor,
		CPU:      rt.CPU,
	}, powerOpts...)

	o.logger.Debug("runtime ready", "root", rt.Root, "session", path, "boot_id", rt.Manager.BootID())
	return rt, nil
}

// Watch starts the index watcher on the filesystem storage. The watcher
// backs off while the document service holds the storage.
func (rt *Runtime) Watch(ctx context.Context, pattern string) (*fs.WatchWorker, error) {
	if rt.FS == nil {
		return nil, fmt.Errorf("watching requires the filesystem storage")
	}
	return rt.FS.Watch(ctx, pattern, rt.Index, rt.Service.Guard().Busy)
}

// Close releases the session store.
func (rt *Runtime) Close() error {
	if rt.Store == nil {
		return nil
	}
	return rt.Store.Close()
}
