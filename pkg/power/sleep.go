package power

import (
	"context"
	"path"

	"github.com/aretw0/inkwell/pkg/core"
)

// ScreensaverPattern selects the user supplied sleep images.
const ScreensaverPattern = "/assets/backgrounds/*.bin"

// DefaultScreensaverLabel is shown when no sleep image is available.
const DefaultScreensaverLabel = "inkwell: sleeping"

// saveThenSleep saves the open document, then puts the device to sleep.
func (m *Manager) saveThenSleep(ctx context.Context, reason string) {
	m.setState(core.StateSaving)
	m.saveDocument(ctx)
	m.sleep(ctx, reason)
}

// saveDocument persists the open document when it is worth saving. Failures
// are logged and never hold up sleep.
func (m *Manager) saveDocument(ctx context.Context) {
	if !m.doc.Savable() || m.deps.Service == nil {
		return
	}
	doc, err := m.deps.Service.SaveDocument(ctx, m.doc)
	if err != nil {
		m.logger.Error("failed to save document before sleep", "path", m.doc.Path, "error", err)
		return
	}
	m.doc = doc
	m.session.EditingPath = doc.Path
}

// sleep puts the device into deep sleep. It always reaches ASLEEP.
func (m *Manager) sleep(ctx context.Context, reason string) {
	m.logger.Info("entering deep sleep", "reason", reason, "mode", m.session.Mode)

	if ps, ok := m.deps.Display.(core.PowerSaver); ok {
		ps.SetPowerSave(true)
	}
	m.screensaver(ctx)
	m.deps.Display.Hibernate()

	if err := core.SaveSession(ctx, m.deps.Store, m.session); err != nil {
		m.logger.Error("failed to save session", "error", err)
	}
	if m.deps.Charger != nil {
		if err := m.deps.Charger.SetBoost(false); err != nil {
			m.logger.Warn("failed to disable boost", "error", err)
		}
	}
	m.deps.Keyboard.Flush()
	m.deps.Keyboard.Disable()

	m.setState(core.StateAsleep)
}

func (m *Manager) screensaver(ctx context.Context) {
	if m.session.Mode == core.ModeTextEditor && m.session.EditingPath != "" {
		m.deps.Display.DrawStatus(m.session.EditingPath)
		return
	}

	if drawer, ok := m.deps.Display.(core.ImageDrawer); ok && m.deps.Storage != nil {
		if m.drawRandomImage(ctx, drawer) {
			return
		}
	}
	m.deps.Display.DrawStatus(DefaultScreensaverLabel)
}

func (m *Manager) drawRandomImage(ctx context.Context, drawer core.ImageDrawer) bool {
	if !m.deps.Storage.Available() {
		return false
	}
	var (
		name string
		data []byte
	)
	run := func() error {
		names, err := m.deps.Storage.Glob(ctx, ScreensaverPattern)
		if err != nil || len(names) == 0 {
			return err
		}
		name = names[m.opts.random(len(names))]
		data, err = m.deps.Storage.Read(ctx, name)
		return err
	}

	var err error
	if m.deps.Service != nil {
		err = m.deps.Service.Guard().Do(run)
	} else {
		err = run()
	}
	if err != nil {
		m.logger.Warn("failed to load screensaver", "error", err)
		return false
	}
	if data == nil {
		return false
	}
	drawer.DrawImage(path.Base(name), data)
	return true
}
