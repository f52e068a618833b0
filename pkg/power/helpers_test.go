package power

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/inkwell/pkg/adapters/fs"
	"github.com/aretw0/inkwell/pkg/core"
	"github.com/aretw0/inkwell/pkg/index"
	"github.com/aretw0/inkwell/pkg/textbuf"
)

type fakeDisplay struct {
	mu         sync.Mutex
	statuses   []string
	images     []string
	cleared    int
	hibernated bool
	powerSave  bool
	brightness int
}

func (d *fakeDisplay) MeasureTextWidth(s string) int { return 10 * len([]rune(s)) }

func (d *fakeDisplay) DrawStatus(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, msg)
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared++
}

func (d *fakeDisplay) Hibernate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hibernated = true
}

func (d *fakeDisplay) SetPowerSave(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.powerSave = on
}

func (d *fakeDisplay) SetBrightness(level int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brightness = level
}

func (d *fakeDisplay) DrawImage(name string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images = append(d.images, name)
}

func (d *fakeDisplay) lastStatus() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.statuses) == 0 {
		return ""
	}
	return d.statuses[len(d.statuses)-1]
}

func (d *fakeDisplay) sawStatus(msg string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.statuses {
		if s == msg {
			return true
		}
	}
	return false
}

type fakeKeyboard struct {
	flushed  int
	enabled  bool
	disabled bool
}

func (k *fakeKeyboard) Flush()   { k.flushed++ }
func (k *fakeKeyboard) Enable()  { k.enabled, k.disabled = true, false }
func (k *fakeKeyboard) Disable() { k.enabled, k.disabled = false, true }

type fakeCharger struct {
	code  int
	low   bool
	boost bool
}

func (c *fakeCharger) ChargeStatus() (int, error) { return c.code, nil }
func (c *fakeCharger) BatteryLow() (bool, error)  { return c.low, nil }
func (c *fakeCharger) SetBoost(on bool) error     { c.boost = on; return nil }

type fakeSensor struct {
	mu  sync.Mutex
	raw int
}

func (s *fakeSensor) ReadRaw() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, nil
}

func (s *fakeSensor) set(raw int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}

type fakeCPU struct{ mhz int }

func (c *fakeCPU) FrequencyMHz() int       { return c.mhz }
func (c *fakeCPU) SetFrequencyMHz(mhz int) { c.mhz = mhz }

// memStore is an in-memory session store with copy-on-write transactions.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

type memTx struct{ data map[string]string }

func (tx *memTx) Int(key string, def int) int {
	if v, ok := tx.data[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (tx *memTx) Bool(key string, def bool) bool {
	if v, ok := tx.data[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (tx *memTx) String(key string, def string) string {
	if v, ok := tx.data[key]; ok {
		return v
	}
	return def
}

func (tx *memTx) PutInt(key string, v int) error       { tx.data[key] = strconv.Itoa(v); return nil }
func (tx *memTx) PutBool(key string, v bool) error     { tx.data[key] = strconv.FormatBool(v); return nil }
func (tx *memTx) PutString(key string, v string) error { tx.data[key] = v; return nil }

func (s *memStore) View(ctx context.Context, fn func(tx core.SessionReader) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{data: s.data})
}

func (s *memStore) Update(ctx context.Context, fn func(tx core.SessionWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]string, len(s.data))
	for k, v := range s.data {
		next[k] = v
	}
	if err := fn(&memTx{data: next}); err != nil {
		return err
	}
	s.data = next
	return nil
}

func (s *memStore) Close() error { return nil }

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) SetTime(hour, minute int) error { return nil }

func (c *manualClock) at(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Add(d)
}

type rig struct {
	m        *Manager
	storage  *fs.Storage
	store    *memStore
	display  *fakeDisplay
	keyboard *fakeKeyboard
	charger  *fakeCharger
	sensor   *fakeSensor
	cpu      *fakeCPU
	clock    *manualClock
}

type rigOption func(*rig, *Deps)

func withSensor(raw int) rigOption {
	return func(r *rig, d *Deps) {
		r.sensor.set(raw)
		d.Sensor = r.sensor
	}
}

func withStorage(s *fs.Storage) rigOption {
	return func(r *rig, d *Deps) {
		r.storage = s
	}
}

func newRig(t *testing.T, ropts []rigOption, opts ...Option) *rig {
	t.Helper()
	r := &rig{
		store:    newMemStore(),
		display:  &fakeDisplay{},
		keyboard: &fakeKeyboard{},
		charger:  &fakeCharger{},
		sensor:   &fakeSensor{},
		cpu:      &fakeCPU{mhz: 240},
		clock:    &manualClock{now: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
	}

	deps := Deps{
		Store:    r.store,
		Display:  r.display,
		Keyboard: r.keyboard,
		Charger:  r.charger,
		CPU:      r.cpu,
	}
	for _, o := range ropts {
		o(r, &deps)
	}
	if r.storage == nil {
		r.storage = fs.NewStorage(fs.Config{Path: t.TempDir()})
		require.NoError(t, r.storage.Initialize(context.Background()))
	}

	guard := core.NewStorageGuard(r.cpu, true)
	deps.Storage = r.storage
	deps.Service = core.NewService(core.ServiceConfig{
		Storage:  r.storage,
		Index:    index.New(index.Config{Storage: r.storage, Guard: guard, Clock: r.clock}),
		Codec:    textbuf.New(textbuf.MeasureFunc(r.display.MeasureTextWidth), 320),
		Guard:    guard,
		Display:  r.display,
		Keyboard: r.keyboard,
		Clock:    r.clock,
	})

	opts = append([]Option{WithNow(r.clock.Now)}, opts...)
	r.m = New(deps, opts...)
	return r
}

func (r *rig) setConfig(t *testing.T, fn func(tx core.SessionWriter) error) {
	t.Helper()
	require.NoError(t, r.store.Update(context.Background(), fn))
}

func (r *rig) boot(t *testing.T) core.SessionState {
	t.Helper()
	s, err := r.m.Boot(context.Background())
	require.NoError(t, err)
	return s
}
