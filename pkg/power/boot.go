package power

import (
	"context"

	"github.com/aretw0/inkwell/pkg/core"
)

// Initializer prepares an application when it takes over the screen.
type Initializer func(ctx context.Context, s core.SessionState) error

// Registry maps app modes to their initializers. Unknown modes and USB mode
// boot into Home; a known mode without an entry is entered without one.
type Registry map[core.AppMode]Initializer

// Lookup returns the initializer for mode, possibly nil, and the mode actually used.
func (r Registry) Lookup(mode core.AppMode) (Initializer, core.AppMode) {
	if mode == core.ModeUSB || !mode.Valid() {
		mode = core.ModeHome
	}
	return r[mode], mode
}

// Boot restores the device after a cold start or a wake from deep sleep.
// Settings and the session snapshot are read in one read-only transaction;
// the last app is only restored when restoreAppOnBoot is set. A failed load
// is returned, but the device still boots with the defaults.
func (m *Manager) Boot(ctx context.Context) (core.SessionState, error) {
	cfg, sess, err := core.LoadState(ctx, m.deps.Store)
	if err != nil {
		m.logger.Error("failed to load state, using defaults", "error", err)
	}

	restored := core.SessionState{Mode: core.ModeHome, EditingPath: sess.EditingPath}
	if cfg.RestoreAppOnBoot {
		restored.Mode = sess.Mode
	}

	if bs, ok := m.deps.Display.(core.BrightnessSetter); ok {
		bs.SetBrightness(cfg.DisplayBrightness)
	}
	if m.deps.Service != nil {
		m.deps.Service.Guard().SetPowerSave(cfg.PowerSaveMode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = cfg
	m.session = restored
	m.doc = core.Document{}
	m.deferred = false
	m.timeoutDisabled = false
	m.lastInput = m.opts.now()
	m.state = core.StateActive

	m.deps.Keyboard.Flush()
	m.deps.Keyboard.Enable()

	m.logger.Info("booted", "mode", m.session.Mode, "path", m.session.EditingPath, "restore", cfg.RestoreAppOnBoot)
	m.initialize(ctx, m.session)
	return m.session, err
}

// initialize runs the registered initializer for s.Mode. Callers hold m.mu.
func (m *Manager) initialize(ctx context.Context, s core.SessionState) {
	init, mode := m.opts.registry.Lookup(s.Mode)
	if mode != s.Mode {
		m.logger.Warn("mode cannot be restored, falling back to home", "mode", s.Mode)
		m.session.Mode = mode
		s.Mode = mode
	}
	if init == nil {
		return
	}
	// Initializers may call back into the manager (OpenDocument, SetMode).
	m.mu.Unlock()
	defer m.mu.Lock()
	if err := init(ctx, s); err != nil {
		m.logger.Error("app initializer failed", "mode", mode, "error", err)
	}
}
