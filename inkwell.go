package inkwell

import (
	"log/slog"

	"github.com/aretw0/inkwell/internal/platform"
	"github.com/aretw0/inkwell/pkg/core"
	"github.com/aretw0/inkwell/pkg/power"
)

// --- Types ---

// Runtime is the wired device runtime.
type Runtime = platform.Runtime

// Document is an open text document.
type Document = core.Document

// SessionState is the part of the state that survives sleep.
type SessionState = core.SessionState

// Registry maps app modes to their initializers.
type Registry = power.Registry

// LogConfig describes where log records go.
type LogConfig = platform.LogConfig

// --- Configuration ---

// Option defines a functional option for configuring the runtime.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a storage transport instead of the filesystem adapter.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithSessionStore injects the session store.
func WithSessionStore(s core.SessionStore) Option {
	return platform.WithSessionStore(s)
}

// WithSessionPath sets the SQLite file of the session store.
func WithSessionPath(path string) Option {
	return platform.WithSessionPath(path)
}

// WithDisplay sets the display.
func WithDisplay(d core.Display) Option {
	return platform.WithDisplay(d)
}

// WithDisplayWidth sets the text area width in pixels.
func WithDisplayWidth(px int) Option {
	return platform.WithDisplayWidth(px)
}

// WithKeyboard sets the keyboard controller.
func WithKeyboard(k core.Keyboard) Option {
	return platform.WithKeyboard(k)
}

// WithClock sets the real-time clock.
func WithClock(c core.Clock) Option {
	return platform.WithClock(c)
}

// WithBattery sets the charge controller and battery sensor.
func WithBattery(c core.Charger, s core.BatterySensor) Option {
	return platform.WithBattery(c, s)
}

// WithCPU sets the processor clock control.
func WithCPU(c core.CPU) Option {
	return platform.WithCPU(c)
}

// WithSystemDir sets the hidden directory name on the storage root.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithMustExist requires the storage root to exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithForceTemp re-roots the storage into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the sandbox used under `go run` and `go test`.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithPowerOptions passes options to the power manager.
func WithPowerOptions(opts ...power.Option) Option {
	return platform.WithPowerOptions(opts...)
}

// --- Factory ---

// New wires a runtime on the storage root.
func New(root string, opts ...Option) (*Runtime, error) {
	return platform.New(root, opts...)
}

// NewLogger builds a logger fanning out to the configured handlers.
func NewLogger(cfg LogConfig) *slog.Logger {
	return platform.NewLogger(cfg)
}

// --- Safety & Utils ---

// FindRoot looks upwards for a storage root.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// ResolveRoot determines the actual storage root based on safety rules.
func ResolveRoot(userPath string, forceTemp bool) string {
	return platform.ResolveRoot(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
