// Package core holds the domain model of the device runtime and the ports
// through which it reaches storage, the display and the rest of the hardware.
package core

import (
	"fmt"
	"strings"
)

// AppMode identifies the application that owns the screen.
type AppMode int

const (
	ModeHome AppMode = iota
	ModeTextEditor
	ModeSettings
	ModeTasks
	ModeCalendar
	ModeLexicon
	ModeJournal
	ModeUSB
)

var modeNames = map[AppMode]string{
	ModeHome:       "Home",
	ModeTextEditor: "TextEditor",
	ModeSettings:   "Settings",
	ModeTasks:      "Tasks",
	ModeCalendar:   "Calendar",
	ModeLexicon:    "Lexicon",
	ModeJournal:    "Journal",
	ModeUSB:        "UsbMode",
}

func (m AppMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("AppMode(%d)", int(m))
}

// Valid reports whether m is one of the known modes.
func (m AppMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseAppMode resolves a mode by name (case-insensitive).
func ParseAppMode(s string) (AppMode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return ModeHome, fmt.Errorf("unknown app mode %q", s)
}

// SessionState is the part of the application state that survives a sleep cycle.
type SessionState struct {
	Mode        AppMode
	EditingPath string
}

// BatteryState is the classified charge level.
type BatteryState int

const (
	BatteryCritical BatteryState = iota
	BatteryLow
	BatteryMediumLow
	BatteryMedium
	BatteryHigh
	BatteryCharging
)

func (b BatteryState) String() string {
	switch b {
	case BatteryCritical:
		return "CRITICAL"
	case BatteryLow:
		return "LOW"
	case BatteryMediumLow:
		return "MEDIUM_LOW"
	case BatteryMedium:
		return "MEDIUM"
	case BatteryHigh:
		return "HIGH"
	case BatteryCharging:
		return "CHARGING"
	}
	return fmt.Sprintf("BatteryState(%d)", int(b))
}

// LifecycleState is the coarse power state of the device.
type LifecycleState string

const (
	StateActive    LifecycleState = "ACTIVE"
	StateIdleGrace LifecycleState = "IDLE_GRACE"
	StateSaving    LifecycleState = "SAVING"
	StateAsleep    LifecycleState = "ASLEEP"
)

// MetadataRecord is one line of the document index.
type MetadataRecord struct {
	Path             string `json:"path"`
	Timestamp        string `json:"timestamp"` // YYYYMMDD-HHMM
	SizeBytes        uint64 `json:"size_bytes"`
	VisibleCharCount uint64 `json:"visible_chars"`
}

// Document is the in-memory form of an open text document.
// Lines are in display order.
type Document struct {
	Path   string
	Lines  []string
	Loaded bool
}

// ScratchPath is the disposable document used when nothing else is open.
const ScratchPath = "/temp.txt"

// CanonicalPath makes sure p starts with a leading separator.
func CanonicalPath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

// Savable reports whether the document should be persisted before sleep.
func (d Document) Savable() bool {
	if !d.Loaded {
		return false
	}
	switch d.Path {
	case "", "-", ScratchPath, strings.TrimPrefix(ScratchPath, "/"):
		return false
	}
	return true
}

// EventType is the kind of asynchronous device signal.
type EventType string

const (
	EventKeyPressed  EventType = "KEY_PRESSED"
	EventPowerButton EventType = "POWER_BUTTON"
	EventStateChange EventType = "STATE_CHANGE"
	EventBattery     EventType = "BATTERY"
)

// Event is a signal raised by an interrupt producer or by the lifecycle manager.
type Event struct {
	Type      EventType
	Detail    string
	Timestamp int64 // Unix milliseconds
}

func (e Event) String() string {
	if e.Detail == "" {
		return string(e.Type)
	}
	return string(e.Type) + ":" + e.Detail
}
