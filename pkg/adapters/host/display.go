// Package host provides stand-ins for the device hardware so the runtime can
// run on a workstation: a terminal display, the system clock, a line based
// keyboard and a simulated battery.
package host

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/aretw0/inkwell/pkg/core"
)

// DefaultCellWidth is the pixel width of one terminal cell of the built-in font.
const DefaultCellWidth = 8

// Display renders status messages as lines on a writer.
type Display struct {
	w         io.Writer
	cellWidth int

	mu         sync.Mutex
	powerSave  bool
	brightness int
	hibernated bool
	last       string
}

// NewDisplay creates a display writing to w. cellWidth <= 0 uses DefaultCellWidth.
func NewDisplay(w io.Writer, cellWidth int) *Display {
	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}
	return &Display{w: w, cellWidth: cellWidth, brightness: 255}
}

// MeasureTextWidth returns the width of s in pixels; wide runes take two cells.
func (d *Display) MeasureTextWidth(s string) int {
	return runewidth.StringWidth(s) * d.cellWidth
}

func (d *Display) DrawStatus(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = msg
	d.hibernated = false
	fmt.Fprintf(d.w, "[status] %s\n", msg)
}

func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = ""
	fmt.Fprintln(d.w, "[clear]")
}

func (d *Display) Hibernate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hibernated = true
	fmt.Fprintln(d.w, "[hibernate]")
}

// SetPowerSave blanks or wakes the status line.
func (d *Display) SetPowerSave(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.powerSave = on
}

func (d *Display) SetBrightness(level int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brightness = level
}

// DrawImage shows a full-screen bitmap; the host only names it.
func (d *Display) DrawImage(name string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.w, "[image] %s (%s)\n", name, humanize.Bytes(uint64(len(data))))
}

// LastStatus returns the last status message drawn.
func (d *Display) LastStatus() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// DisplayState is the observable state of the display.
type DisplayState struct {
	PowerSave  bool   `json:"power_save"`
	Brightness int    `json:"brightness"`
	Hibernated bool   `json:"hibernated"`
	Status     string `json:"status"`
}

// State implements introspection.Introspectable.
func (d *Display) State() any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DisplayState{
		PowerSave:  d.powerSave,
		Brightness: d.brightness,
		Hibernated: d.hibernated,
		Status:     d.last,
	}
}

var (
	_ core.Display          = (*Display)(nil)
	_ core.PowerSaver       = (*Display)(nil)
	_ core.BrightnessSetter = (*Display)(nil)
	_ core.ImageDrawer      = (*Display)(nil)
)
