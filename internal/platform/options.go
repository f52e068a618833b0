package platform

import (
	"log/slog"

	"github.com/aretw0/inkwell/pkg/core"
	"github.com/aretw0/inkwell/pkg/power"
)

// options holds the internal configuration for the inkwell runtime.
type options struct {
	logger *slog.Logger

	storage core.Storage
	store   core.SessionStore

	display  core.Display
	keyboard core.Keyboard
	clock    core.Clock
	charger  core.Charger
	sensor   core.BatterySensor
	cpu      core.CPU

	displayWidth int
	systemDir    string
	sessionPath  string
	indexPath    string
	mustExist    bool
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)

	powerOptions []power.Option
}

// Option defines a functional option for configuring the runtime.
type Option func(*options)

// DefaultDisplayWidth is the width in pixels of the e-ink panel.
const DefaultDisplayWidth = 320

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		displayWidth: DefaultDisplayWidth,
		devSafety:    true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a storage transport. If provided, the default
// filesystem adapter is skipped.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithSessionStore injects the session store. If provided, no SQLite
// database is opened.
func WithSessionStore(s core.SessionStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithSessionPath sets the SQLite database file of the session store.
// Defaults to session.db inside the system directory of the storage root.
func WithSessionPath(path string) Option {
	return func(o *options) {
		o.sessionPath = path
	}
}

// WithIndexPath sets the storage name of the metadata index.
func WithIndexPath(name string) Option {
	return func(o *options) {
		o.indexPath = name
	}
}

// WithDisplay sets the display. Defaults to a host display that discards output.
func WithDisplay(d core.Display) Option {
	return func(o *options) {
		o.display = d
	}
}

// WithDisplayWidth sets the text area width in pixels used for wrapping.
func WithDisplayWidth(px int) Option {
	return func(o *options) {
		if px > 0 {
			o.displayWidth = px
		}
	}
}

// WithKeyboard sets the keyboard controller.
func WithKeyboard(k core.Keyboard) Option {
	return func(o *options) {
		o.keyboard = k
	}
}

// WithClock sets the real-time clock.
func WithClock(c core.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithBattery sets the charge controller and the battery sensor. Without
// them battery supervision is off.
func WithBattery(c core.Charger, s core.BatterySensor) Option {
	return func(o *options) {
		o.charger = c
		o.sensor = s
	}
}

// WithCPU sets the processor clock control.
func WithCPU(c core.CPU) Option {
	return func(o *options) {
		o.cpu = c
	}
}

// WithSystemDir sets the hidden directory name on the storage root.
// Defaults to ".inkwell".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithMustExist requires the storage root to exist, as a card that must be inserted.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithForceTemp re-roots the storage into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
// By default (true) storage is re-rooted into a temporary directory.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler registers a callback for errors of the index watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithPowerOptions passes options through to the power manager.
func WithPowerOptions(opts ...power.Option) Option {
	return func(o *options) {
		o.powerOptions = append(o.powerOptions, opts...)
	}
}
