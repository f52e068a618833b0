package power

import (
	"log/slog"
	"time"
)

// Defaults for the manager loop.
const (
	DefaultPollInterval    = 50 * time.Millisecond
	DefaultBatteryInterval = 10 * time.Second
	DefaultGraceWindow     = 4000 * time.Millisecond
	DefaultEventBuffer     = 32
)

type options struct {
	logger          *slog.Logger
	now             func() time.Time
	pollInterval    time.Duration
	batteryInterval time.Duration
	graceWindow     time.Duration
	eventBuffer     int
	calibration     Calibration
	deferSleep      bool
	registry        Registry
	random          func(n int) int
}

// Option configures a Manager.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		now:             time.Now,
		pollInterval:    DefaultPollInterval,
		batteryInterval: DefaultBatteryInterval,
		graceWindow:     DefaultGraceWindow,
		eventBuffer:     DefaultEventBuffer,
		calibration:     DefaultCalibration(),
	}
}

// WithLogger sets the logger for the manager.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithNow replaces the monotonic time source.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithPollInterval sets how often the worker ticks the manager.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithBatteryInterval sets how often the battery is sampled while active.
func WithBatteryInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.batteryInterval = d
		}
	}
}

// WithGraceWindow sets how long a key press can still cancel an idle sleep.
func WithGraceWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.graceWindow = d
		}
	}
}

// WithEventBuffer sets the capacity of the interrupt event queue.
func WithEventBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithCalibration sets the battery ADC calibration.
func WithCalibration(c Calibration) Option {
	return func(o *options) {
		o.calibration = c
	}
}

// WithDeferSleep sets the initial value of the defer flag.
func WithDeferSleep(on bool) Option {
	return func(o *options) {
		o.deferSleep = on
	}
}

// WithRegistry sets the app-mode initializers run at boot and on resume.
func WithRegistry(r Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithRandom replaces the screensaver picker; it returns a value in [0, n).
func WithRandom(fn func(n int) int) Option {
	return func(o *options) {
		o.random = fn
	}
}
