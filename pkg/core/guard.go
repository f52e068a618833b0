package core

import (
	"sync"
	"sync/atomic"
)

// CPU frequencies used around storage operations.
const (
	StorageFrequencyMHz   = 240
	PowerSaveFrequencyMHz = 40
)

// StorageGuard is the shared "storage busy" indicator. It is advisory:
// subsystems that share the transport check Busy before touching it.
// While a guarded operation runs the CPU is raised to StorageFrequencyMHz and
// restored to PowerSaveFrequencyMHz afterwards when power saving is on.
type StorageGuard struct {
	cpu       CPU
	powerSave atomic.Bool

	mu    sync.Mutex
	depth int
	busy  atomic.Bool
}

// NewStorageGuard creates a guard. cpu may be nil.
func NewStorageGuard(cpu CPU, powerSave bool) *StorageGuard {
	g := &StorageGuard{cpu: cpu}
	g.powerSave.Store(powerSave)
	return g
}

// SetPowerSave toggles restoring the power-save frequency after storage work.
func (g *StorageGuard) SetPowerSave(on bool) {
	g.powerSave.Store(on)
}

// Busy reports whether a guarded operation is in flight.
func (g *StorageGuard) Busy() bool {
	return g.busy.Load()
}

// Do runs fn with the busy indicator set. Nested calls share one boost.
func (g *StorageGuard) Do(fn func() error) error {
	g.enter()
	defer g.leave()
	return fn()
}

func (g *StorageGuard) enter() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.depth++
	if g.depth == 1 {
		g.busy.Store(true)
		if g.cpu != nil {
			g.cpu.SetFrequencyMHz(StorageFrequencyMHz)
		}
	}
}

func (g *StorageGuard) leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.depth--
	if g.depth == 0 {
		if g.cpu != nil && g.powerSave.Load() {
			g.cpu.SetFrequencyMHz(PowerSaveFrequencyMHz)
		}
		g.busy.Store(false)
	}
}
