package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/inkwell/pkg/core"
)

// Worker ticks the manager on the poll interval until the device sleeps.
type Worker struct {
	*worker.BaseWorker
	m      *Manager
	cancel context.CancelFunc
	asleep chan struct{}
}

// NewWorker creates the poll worker of m.
func NewWorker(m *Manager) *Worker {
	return &Worker{
		BaseWorker: worker.NewBaseWorker("power-manager"),
		m:          m,
		asleep:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("power manager already started (status: %s)", status)
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *Worker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"boot_id":           w.m.bootID,
			"poll_interval":     w.m.opts.pollInterval.String(),
		}
	})
}

// Asleep is closed once the device has gone to sleep.
func (w *Worker) Asleep() <-chan struct{} {
	return w.asleep
}

func (w *Worker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("power manager panic: %v", recovered)
			w.m.logger.Error("power manager panic", "error", err, "stack", string(debug.Stack()))
		}
	}()

	err = w.m.loop(ctx)
	if errors.Is(err, core.ErrAsleep) {
		close(w.asleep)
		return nil
	}
	return err
}

func (m *Manager) loop(ctx context.Context) error {
	ticker := time.NewTicker(m.opts.pollInterval)
	defer ticker.Stop()

	for {
		if err := m.Tick(ctx, m.opts.now()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Run ticks the manager in the calling goroutine until ctx is cancelled or
// the device sleeps, in which case it returns core.ErrAsleep.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Log(ctx, slog.LevelDebug, "power manager running", "poll", m.opts.pollInterval)
	return m.loop(ctx)
}
