package power

import (
	"math"
	"strconv"

	"github.com/aretw0/inkwell/pkg/core"
)

// Calibration converts a raw ADC reading of the battery divider into volts.
type Calibration struct {
	Scale  float64 `yaml:"scale"`
	Offset float64 `yaml:"offset"`
}

// DefaultCalibration matches a 12-bit ADC at 3.3 V behind a 1:2 divider.
func DefaultCalibration() Calibration {
	return Calibration{Scale: 3.3 / 4095 * 2, Offset: 0.2}
}

// Volts converts a raw reading.
func (c Calibration) Volts(raw int) float64 {
	return float64(raw)*c.Scale + c.Offset
}

// FilterAlpha is the weight of a new sample in the voltage filter.
const FilterAlpha = 0.1

// Filter is an exponential moving average seeded with its first sample.
type Filter struct {
	Alpha  float64
	value  float64
	seeded bool
}

// Add feeds a sample and returns the filtered value.
func (f *Filter) Add(v float64) float64 {
	if !f.seeded {
		f.value, f.seeded = v, true
		return v
	}
	alpha := f.Alpha
	if alpha == 0 {
		alpha = FilterAlpha
	}
	f.value += alpha * (v - f.value)
	return f.value
}

// Value returns the current filtered value, zero before the first sample.
func (f *Filter) Value() float64 {
	return f.value
}

// Battery thresholds in millivolts. A level is entered above its threshold
// and kept down to HysteresisMillivolts below it.
const (
	HighMillivolts       = 4100
	MediumMillivolts     = 3900
	MediumLowMillivolts  = 3800
	LowMillivolts        = 3700
	HysteresisMillivolts = 50

	// CriticalMillivolts is the cutoff below which the device must sleep.
	CriticalMillivolts = LowMillivolts
)

var levels = []struct {
	state     core.BatteryState
	threshold int
}{
	{core.BatteryHigh, HighMillivolts},
	{core.BatteryMedium, MediumMillivolts},
	{core.BatteryMediumLow, MediumLowMillivolts},
	{core.BatteryLow, LowMillivolts},
}

// Millivolts rounds volts to whole millivolts.
func Millivolts(v float64) int {
	return int(math.Round(v * 1000))
}

// Classify maps a filtered voltage to a level. prev is the last confirmed
// level and is kept while the voltage stays inside its hysteresis band.
func Classify(mv int, prev core.BatteryState) core.BatteryState {
	for _, l := range levels {
		if mv > l.threshold {
			return l.state
		}
		if prev == l.state && mv >= l.threshold-HysteresisMillivolts {
			return l.state
		}
	}
	return core.BatteryCritical
}

// IsCharging reports whether a charge controller status code means charging.
func IsCharging(code int) bool {
	return code >= 1 && code <= 5
}

func formatVolts(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + " V"
}
