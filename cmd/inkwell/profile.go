package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/inkwell/pkg/power"
)

// Profile describes the device the CLI drives.
type Profile struct {
	Root        string `yaml:"root"`
	SystemDir   string `yaml:"systemDir"`
	SessionPath string `yaml:"session"`
	MustExist   bool   `yaml:"mustExist"`

	Display struct {
		Width     int `yaml:"width"`
		CellWidth int `yaml:"cellWidth"`
	} `yaml:"display"`

	Battery struct {
		Enabled     bool               `yaml:"enabled"`
		Raw         int                `yaml:"raw"`
		Status      int                `yaml:"status"`
		Calibration *power.Calibration `yaml:"calibration"`
	} `yaml:"battery"`

	PollInterval    time.Duration `yaml:"pollInterval"`
	BatteryInterval time.Duration `yaml:"batteryInterval"`
	GraceWindow     time.Duration `yaml:"graceWindow"`
	DeferSleep      bool          `yaml:"deferSleep"`
	Watch           string        `yaml:"watch"`
}

// LoadProfile reads a YAML profile. An empty path yields the zero profile.
func LoadProfile(path string) (Profile, error) {
	var p Profile
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}

// PowerOptions maps the profile onto power manager options.
func (p Profile) PowerOptions() []power.Option {
	opts := []power.Option{
		power.WithPollInterval(p.PollInterval),
		power.WithBatteryInterval(p.BatteryInterval),
		power.WithGraceWindow(p.GraceWindow),
		power.WithDeferSleep(p.DeferSleep),
	}
	if p.Battery.Calibration != nil {
		opts = append(opts, power.WithCalibration(*p.Battery.Calibration))
	}
	return opts
}
