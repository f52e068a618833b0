package power

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/inkwell/pkg/core"
)

func TestCalibration(t *testing.T) {
	c := DefaultCalibration()
	assert.InDelta(t, 0.2, c.Volts(0), 1e-9)
	assert.InDelta(t, 6.8, c.Volts(4095), 1e-9)
	assert.InDelta(t, 3.3/4095*2*2000+0.2, c.Volts(2000), 1e-9)
}

func TestFilterSeedsWithFirstSample(t *testing.T) {
	var f Filter
	assert.Equal(t, 4.0, f.Add(4.0))
	assert.InDelta(t, 3.9, f.Add(3.0), 1e-9)
	assert.InDelta(t, 3.9, f.Value(), 1e-9)
}

func TestClassifyThresholds(t *testing.T) {
	tests := []struct {
		mv   int
		want core.BatteryState
	}{
		{4200, core.BatteryHigh},
		{4101, core.BatteryHigh},
		{4100, core.BatteryMedium},
		{3901, core.BatteryMedium},
		{3850, core.BatteryMediumLow},
		{3750, core.BatteryLow},
		{3700, core.BatteryCritical},
		{3000, core.BatteryCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.mv, core.BatteryCritical), "mv=%d", tt.mv)
	}
}

func TestClassifyKeepsStateInsideBand(t *testing.T) {
	assert.Equal(t, core.BatteryMediumLow, Classify(3750, core.BatteryMediumLow))
	assert.Equal(t, core.BatteryLow, Classify(3749, core.BatteryMediumLow))
	assert.Equal(t, core.BatteryHigh, Classify(4050, core.BatteryHigh))
	assert.Equal(t, core.BatteryMedium, Classify(4050, core.BatteryMedium))
	assert.Equal(t, core.BatteryLow, Classify(3750, core.BatteryCharging))
}

func TestClassifyDoesNotChatter(t *testing.T) {
	state := core.BatteryMediumLow
	changes := 0
	for _, mv := range []int{3810, 3790, 3805, 3795, 3810, 3790, 3760, 3801} {
		next := Classify(mv, state)
		if next != state {
			changes++
		}
		state = next
	}
	assert.Zero(t, changes)
	assert.Equal(t, core.BatteryMediumLow, state)
}

func TestIsCharging(t *testing.T) {
	assert.False(t, IsCharging(0))
	for code := 1; code <= 5; code++ {
		assert.True(t, IsCharging(code))
	}
	assert.False(t, IsCharging(6))
}
