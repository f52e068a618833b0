package host

import (
	"sync"

	"github.com/aretw0/inkwell/pkg/core"
)

// Battery simulates the charge controller and the battery ADC.
type Battery struct {
	mu     sync.Mutex
	raw    int
	status int
	low    bool
	boost  bool
}

// NewBattery creates a battery reading raw with the given charge status code.
func NewBattery(raw, status int) *Battery {
	return &Battery{raw: raw, status: status, boost: true}
}

func (b *Battery) ReadRaw() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.raw, nil
}

func (b *Battery) ChargeStatus() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status, nil
}

func (b *Battery) BatteryLow() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.low, nil
}

func (b *Battery) SetBoost(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boost = on
	return nil
}

// Boost reports whether the boost converter is on.
func (b *Battery) Boost() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.boost
}

// Set changes the simulated reading.
func (b *Battery) Set(raw, status int, low bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raw, b.status, b.low = raw, status, low
}

// CPU records the requested processor clock.
type CPU struct {
	mu  sync.Mutex
	mhz int
}

// NewCPU creates a CPU running at mhz.
func NewCPU(mhz int) *CPU {
	return &CPU{mhz: mhz}
}

func (c *CPU) FrequencyMHz() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mhz
}

func (c *CPU) SetFrequencyMHz(mhz int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mhz = mhz
}

var (
	_ core.Charger       = (*Battery)(nil)
	_ core.BatterySensor = (*Battery)(nil)
	_ core.CPU           = (*CPU)(nil)
)
