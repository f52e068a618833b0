package core

import (
	"context"
	"time"
)

// FileInfo describes a stored byte stream.
type FileInfo struct {
	Name    string
	Size    int64
	IsDir   bool
	ModTime time.Time
}

// Storage is the transport for named byte streams on removable storage.
// Names are slash separated and rooted at the storage root ("/notes.txt").
type Storage interface {
	// Available reports whether the medium is present.
	Available() bool

	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces the whole stream. Implementations must make the
	// replacement atomic (write-replace-rename).
	Write(ctx context.Context, name string, data []byte) error

	Append(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	Rename(ctx context.Context, oldName, newName string) error
	Stat(ctx context.Context, name string) (FileInfo, error)

	// Glob returns the names matching a doublestar pattern, sorted.
	Glob(ctx context.Context, pattern string) ([]string, error)
}

// MetadataIndex keeps the per-document metadata records.
type MetadataIndex interface {
	Upsert(ctx context.Context, path string) (MetadataRecord, error)
	Delete(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
}

// TextCodec converts between display lines and the stored text.
type TextCodec interface {
	Serialize(lines []string) string
	Deserialize(text string) []string
}

// Display is the narrow renderer capability the core needs.
type Display interface {
	MeasureTextWidth(s string) int
	DrawStatus(msg string)
	Clear()
	Hibernate()
}

// PowerSaver is implemented by displays that can blank themselves (the status OLED).
type PowerSaver interface {
	SetPowerSave(on bool)
}

// BrightnessSetter is implemented by displays with adjustable contrast.
type BrightnessSetter interface {
	SetBrightness(level int)
}

// ImageDrawer is implemented by displays able to show a full-screen bitmap.
type ImageDrawer interface {
	DrawImage(name string, data []byte)
}

// Clock is the real-time clock.
type Clock interface {
	Now() time.Time
	SetTime(hour, minute int) error
}

// Keyboard is the key matrix controller. Key interrupts are delivered as events.
type Keyboard interface {
	Flush()
	Enable()
	Disable()
}

// Charger is the charge controller / battery IC.
type Charger interface {
	ChargeStatus() (int, error)
	BatteryLow() (bool, error)
	SetBoost(on bool) error
}

// BatterySensor reads the raw ADC value of the battery divider.
type BatterySensor interface {
	ReadRaw() (int, error)
}

// CPU controls the processor clock.
type CPU interface {
	FrequencyMHz() int
	SetFrequencyMHz(mhz int)
}

// SessionReader reads typed values, falling back to the given default when absent.
type SessionReader interface {
	Int(key string, def int) int
	Bool(key string, def bool) bool
	String(key string, def string) string
}

// SessionWriter extends SessionReader with typed writes.
type SessionWriter interface {
	SessionReader
	PutInt(key string, v int) error
	PutBool(key string, v bool) error
	PutString(key string, v string) error
}

// SessionStore is the durable key/value store for settings and the session snapshot.
// Write transactions must be short: compute values before calling Update.
type SessionStore interface {
	View(ctx context.Context, fn func(tx SessionReader) error) error
	Update(ctx context.Context, fn func(tx SessionWriter) error) error
	Close() error
}
