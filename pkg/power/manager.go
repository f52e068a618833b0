// Package power runs the device lifecycle: idle detection with a grace
// window, battery supervision, the power button, saving work before deep
// sleep and restoring the session at boot.
package power

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	mathrand "math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aretw0/inkwell/pkg/core"
)

// ErrInvalidFrequency is returned for CPU speeds the processor does not support.
var ErrInvalidFrequency = fmt.Errorf("unsupported cpu frequency")

// ValidFrequencies lists the accepted CPU speeds in MHz.
var ValidFrequencies = []int{240, 160, 80, 40, 20, 10}

// Deps are the collaborators of the manager. Service, Store and Display are
// required; the rest may be nil on hosts that lack the hardware.
type Deps struct {
	Service  *core.Service
	Storage  core.Storage
	Store    core.SessionStore
	Display  core.Display
	Keyboard core.Keyboard
	Charger  core.Charger
	Sensor   core.BatterySensor
	CPU      core.CPU
}

// Manager is the power lifecycle state machine. Interrupt producers call
// KeyPressed and PowerButton; everything else happens inside Tick.
type Manager struct {
	deps   Deps
	opts   *options
	logger *slog.Logger
	bootID string

	events  chan core.Event
	notices chan core.Event
	dropped atomic.Uint64

	mu              sync.Mutex
	state           core.LifecycleState
	config          core.Config
	session         core.SessionState
	doc             core.Document
	deferSleep      bool
	deferred        bool
	timeoutDisabled bool
	lastInput       time.Time
	graceDeadline   time.Time
	lastBattery     time.Time
	battery         core.BatteryState
	filter          Filter
}

// New creates a manager in the ACTIVE state with default settings. Call Boot
// to load the persisted settings and session.
func New(deps Deps, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.random == nil {
		o.random = mathrand.IntN
	}
	if deps.Keyboard == nil {
		deps.Keyboard = nopKeyboard{}
	}

	bootID := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	m := &Manager{
		deps:       deps,
		opts:       o,
		logger:     o.logger.With("boot_id", bootID),
		bootID:     bootID,
		events:     make(chan core.Event, o.eventBuffer),
		notices:    make(chan core.Event, o.eventBuffer),
		state:      core.StateActive,
		config:     core.DefaultConfig(),
		session:    core.SessionState{Mode: core.ModeHome},
		deferSleep: o.deferSleep,
		battery:    core.BatteryHigh,
		lastInput:  o.now(),
	}
	m.filter.Alpha = FilterAlpha
	return m
}

// BootID identifies this run of the device.
func (m *Manager) BootID() string {
	return m.bootID
}

// Notifications delivers state and battery changes. Slow readers miss events.
func (m *Manager) Notifications() <-chan core.Event {
	return m.notices
}

// KeyPressed records a key interrupt. It never blocks.
func (m *Manager) KeyPressed() {
	m.raise(core.EventKeyPressed, "")
}

// PowerButton records a power button interrupt. It never blocks.
func (m *Manager) PowerButton() {
	m.raise(core.EventPowerButton, "")
}

func (m *Manager) raise(t core.EventType, detail string) {
	ev := core.Event{Type: t, Detail: detail, Timestamp: m.opts.now().UnixMilli()}
	select {
	case m.events <- ev:
	default:
		m.dropped.Add(1)
	}
}

func (m *Manager) notify(t core.EventType, detail string) {
	ev := core.Event{Type: t, Detail: detail, Timestamp: m.opts.now().UnixMilli()}
	select {
	case m.notices <- ev:
	default:
	}
}

// SetDeferSleep sets whether the power button defers sleep while charging.
func (m *Manager) SetDeferSleep(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferSleep = on
}

// SetMode records the application that owns the screen.
func (m *Manager) SetMode(mode core.AppMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Mode = mode
}

// OpenDocument records the document being edited; it is saved before sleep.
func (m *Manager) OpenDocument(doc core.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = doc
	m.session.EditingPath = doc.Path
}

// Session returns the current session snapshot.
func (m *Manager) Session() core.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// LifecycleState returns the current power state.
func (m *Manager) LifecycleState() core.LifecycleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Deferred reports whether sleep is currently deferred.
func (m *Manager) Deferred() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deferred
}

// Battery returns the last confirmed battery level.
func (m *Manager) Battery() core.BatteryState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.battery
}

// SetCPUSpeed changes the CPU clock. Only ValidFrequencies are accepted.
func (m *Manager) SetCPUSpeed(mhz int) error {
	if m.deps.CPU == nil {
		return fmt.Errorf("no cpu control available")
	}
	if m.deps.CPU.FrequencyMHz() == mhz {
		return nil
	}
	for _, f := range ValidFrequencies {
		if f == mhz {
			m.deps.CPU.SetFrequencyMHz(mhz)
			m.logger.Info("cpu speed changed", "mhz", mhz)
			return nil
		}
	}
	return fmt.Errorf("%w: %d MHz", ErrInvalidFrequency, mhz)
}

// Tick drains pending events and advances the state machine to now. It
// returns core.ErrAsleep once the device has gone to sleep.
func (m *Manager) Tick(ctx context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == core.StateAsleep {
		return core.ErrAsleep
	}

	for m.state != core.StateAsleep {
		var ev core.Event
		select {
		case ev = <-m.events:
		default:
			return m.advance(ctx, now)
		}
		m.handle(ctx, ev, now)
	}
	return core.ErrAsleep
}

func (m *Manager) handle(ctx context.Context, ev core.Event, now time.Time) {
	m.logger.Debug("event", "event", ev.String())
	switch ev.Type {
	case core.EventKeyPressed:
		if m.state == core.StateIdleGrace {
			m.setState(core.StateActive)
			m.deps.Keyboard.Flush()
			m.deps.Display.DrawStatus("Good Save!")
			m.logger.Info("sleep cancelled by key press")
		}
		m.lastInput = now

	case core.EventPowerButton:
		m.powerButton(ctx, now)
	}
}

func (m *Manager) powerButton(ctx context.Context, now time.Time) {
	if m.deferred {
		m.resume(ctx, now)
		return
	}

	m.deps.Display.DrawStatus("Saving Work")
	if m.deferSleep && m.charging() {
		m.saveDocument(ctx)
		m.enterDeferred(ctx)
		return
	}
	m.saveThenSleep(ctx, "power button")
}

func (m *Manager) advance(ctx context.Context, now time.Time) error {
	if m.state == core.StateActive && !m.deferred && now.Sub(m.lastBattery) >= m.opts.batteryInterval {
		m.lastBattery = now
		if m.checkBattery() {
			m.deps.Display.DrawStatus("Battery Critical!")
			m.logger.Warn("battery critical, sleeping", "volts", m.filter.Value())
			m.saveThenSleep(context.WithoutCancel(ctx), "battery critical")
			return core.ErrAsleep
		}
	}

	switch m.state {
	case core.StateActive:
		if m.timeoutDisabled || m.config.IdleTimeoutSeconds <= 0 {
			m.lastInput = now
			return nil
		}
		idle := time.Duration(m.config.IdleTimeoutSeconds) * time.Second
		if now.Sub(m.lastInput) >= idle {
			m.setState(core.StateIdleGrace)
			m.graceDeadline = now.Add(m.opts.graceWindow)
			m.deps.Display.DrawStatus("Going to sleep!")
			m.logger.Info("device idle", "idle", now.Sub(m.lastInput))
		}

	case core.StateIdleGrace:
		if !now.Before(m.graceDeadline) {
			m.saveThenSleep(ctx, "idle timeout")
			return core.ErrAsleep
		}
	}
	return nil
}

func (m *Manager) setState(s core.LifecycleState) {
	if m.state == s {
		return
	}
	m.logger.Debug("state change", "from", m.state, "to", s)
	m.state = s
	m.notify(core.EventStateChange, string(s))
}

func (m *Manager) charging() bool {
	if m.deps.Charger == nil {
		return false
	}
	code, err := m.deps.Charger.ChargeStatus()
	if err != nil {
		m.logger.Warn("failed to read charge status", "error", err)
		return false
	}
	return IsCharging(code)
}

// checkBattery samples the battery and updates the confirmed level. It
// reports whether the device must shut down.
func (m *Manager) checkBattery() bool {
	if m.deps.Sensor == nil {
		return false
	}
	raw, err := m.deps.Sensor.ReadRaw()
	if err != nil {
		m.logger.Warn("failed to read battery", "error", err)
		return false
	}
	mv := Millivolts(m.filter.Add(m.opts.calibration.Volts(raw)))
	charging := m.charging()

	next := core.BatteryCharging
	if !charging {
		next = Classify(mv, m.battery)
	}
	if next != m.battery {
		m.logger.Info("battery level changed", "from", m.battery, "to", next, "mv", mv)
		m.battery = next
		m.notify(core.EventBattery, next.String())
	}

	if charging {
		return false
	}
	low := false
	if m.deps.Charger != nil {
		if low, err = m.deps.Charger.BatteryLow(); err != nil {
			m.logger.Warn("failed to read battery low flag", "error", err)
			low = false
		}
	}
	return low || mv <= CriticalMillivolts
}

func (m *Manager) enterDeferred(ctx context.Context) {
	if err := core.SaveSession(ctx, m.deps.Store, m.session); err != nil {
		m.logger.Error("failed to save session", "error", err)
	}
	m.session.Mode = core.ModeHome
	m.deferred = true
	m.timeoutDisabled = true
	if ps, ok := m.deps.Display.(core.PowerSaver); ok {
		ps.SetPowerSave(true)
	}
	m.deps.Display.Clear()
	m.logger.Info("sleep deferred while charging")
}

func (m *Manager) resume(ctx context.Context, now time.Time) {
	cfg, sess, err := core.LoadState(ctx, m.deps.Store)
	if err != nil {
		m.logger.Error("failed to reload state", "error", err)
	}
	m.config = cfg
	m.session = sess
	m.deferred = false
	m.timeoutDisabled = false
	m.lastInput = now
	m.deps.Keyboard.Flush()
	if ps, ok := m.deps.Display.(core.PowerSaver); ok {
		ps.SetPowerSave(false)
	}
	m.deps.Display.Clear()
	m.logger.Info("resumed from deferred sleep", "mode", sess.Mode)
	m.initialize(ctx, sess)
}

type nopKeyboard struct{}

func (nopKeyboard) Flush()   {}
func (nopKeyboard) Enable()  {}
func (nopKeyboard) Disable() {}
