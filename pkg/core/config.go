package core

import (
	"context"
	"fmt"
)

// Session store keys.
const (
	KeyIdleTimeoutSeconds  = "idleTimeoutSeconds"
	KeyVerboseLogging      = "verboseLogging"
	KeyClockEnabled        = "clockEnabled"
	KeyShowYearInClock     = "showYearInClock"
	KeyPowerSaveMode       = "powerSaveMode"
	KeyAllowMissingStorage = "allowMissingStorage"
	KeyRestoreAppOnBoot    = "restoreAppOnBoot"
	KeyLastApplicationMode = "lastApplicationMode"
	KeyLastEditingPath     = "lastEditingPath"
	KeyDisplayBrightness   = "displayBrightness"
	KeyMaxRefreshFps       = "maxRefreshFps"
)

// Config is the set of user settings read at boot.
type Config struct {
	IdleTimeoutSeconds  int  `json:"idle_timeout_seconds" yaml:"idleTimeoutSeconds"`
	VerboseLogging      bool `json:"verbose_logging" yaml:"verboseLogging"`
	ClockEnabled        bool `json:"clock_enabled" yaml:"clockEnabled"`
	ShowYearInClock     bool `json:"show_year_in_clock" yaml:"showYearInClock"`
	PowerSaveMode       bool `json:"power_save_mode" yaml:"powerSaveMode"`
	AllowMissingStorage bool `json:"allow_missing_storage" yaml:"allowMissingStorage"`
	RestoreAppOnBoot    bool `json:"restore_app_on_boot" yaml:"restoreAppOnBoot"`
	DisplayBrightness   int  `json:"display_brightness" yaml:"displayBrightness"`
	MaxRefreshFps       int  `json:"max_refresh_fps" yaml:"maxRefreshFps"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeoutSeconds:  120,
		VerboseLogging:      true,
		ClockEnabled:        true,
		ShowYearInClock:     true,
		PowerSaveMode:       true,
		AllowMissingStorage: false,
		RestoreAppOnBoot:    false,
		DisplayBrightness:   255,
		MaxRefreshFps:       30,
	}
}

// KeyKind is the value type stored under a key.
type KeyKind string

const (
	KindInt    KeyKind = "int"
	KindBool   KeyKind = "bool"
	KindString KeyKind = "string"
)

// KeySpec documents a known key.
type KeySpec struct {
	Key     string
	Kind    KeyKind
	Default string
}

// KnownKeys lists every key with its type and default, in documentation order.
func KnownKeys() []KeySpec {
	d := DefaultConfig()
	return []KeySpec{
		{KeyIdleTimeoutSeconds, KindInt, fmt.Sprint(d.IdleTimeoutSeconds)},
		{KeyVerboseLogging, KindBool, fmt.Sprint(d.VerboseLogging)},
		{KeyClockEnabled, KindBool, fmt.Sprint(d.ClockEnabled)},
		{KeyShowYearInClock, KindBool, fmt.Sprint(d.ShowYearInClock)},
		{KeyPowerSaveMode, KindBool, fmt.Sprint(d.PowerSaveMode)},
		{KeyAllowMissingStorage, KindBool, fmt.Sprint(d.AllowMissingStorage)},
		{KeyRestoreAppOnBoot, KindBool, fmt.Sprint(d.RestoreAppOnBoot)},
		{KeyLastApplicationMode, KindInt, fmt.Sprint(int(ModeHome))},
		{KeyLastEditingPath, KindString, ""},
		{KeyDisplayBrightness, KindInt, fmt.Sprint(d.DisplayBrightness)},
		{KeyMaxRefreshFps, KindInt, fmt.Sprint(d.MaxRefreshFps)},
	}
}

// LookupKey returns the description of a known key.
func LookupKey(key string) (KeySpec, bool) {
	for _, k := range KnownKeys() {
		if k.Key == key {
			return k, true
		}
	}
	return KeySpec{}, false
}

func readConfig(tx SessionReader) Config {
	d := DefaultConfig()
	return Config{
		IdleTimeoutSeconds:  tx.Int(KeyIdleTimeoutSeconds, d.IdleTimeoutSeconds),
		VerboseLogging:      tx.Bool(KeyVerboseLogging, d.VerboseLogging),
		ClockEnabled:        tx.Bool(KeyClockEnabled, d.ClockEnabled),
		ShowYearInClock:     tx.Bool(KeyShowYearInClock, d.ShowYearInClock),
		PowerSaveMode:       tx.Bool(KeyPowerSaveMode, d.PowerSaveMode),
		AllowMissingStorage: tx.Bool(KeyAllowMissingStorage, d.AllowMissingStorage),
		RestoreAppOnBoot:    tx.Bool(KeyRestoreAppOnBoot, d.RestoreAppOnBoot),
		DisplayBrightness:   tx.Int(KeyDisplayBrightness, d.DisplayBrightness),
		MaxRefreshFps:       tx.Int(KeyMaxRefreshFps, d.MaxRefreshFps),
	}
}

func readSession(tx SessionReader) SessionState {
	mode := AppMode(tx.Int(KeyLastApplicationMode, int(ModeHome)))
	if !mode.Valid() {
		mode = ModeHome
	}
	return SessionState{
		Mode:        mode,
		EditingPath: tx.String(KeyLastEditingPath, ""),
	}
}

// LoadState reads the settings and the last session snapshot in one read-only transaction.
func LoadState(ctx context.Context, store SessionStore) (Config, SessionState, error) {
	var (
		cfg  Config
		sess SessionState
	)
	err := store.View(ctx, func(tx SessionReader) error {
		cfg = readConfig(tx)
		sess = readSession(tx)
		return nil
	})
	if err != nil {
		return DefaultConfig(), SessionState{Mode: ModeHome}, fmt.Errorf("failed to load state: %w", err)
	}
	return cfg, sess, nil
}

// SaveConfig persists every setting in one short write transaction.
func SaveConfig(ctx context.Context, store SessionStore, cfg Config) error {
	return store.Update(ctx, func(tx SessionWriter) error {
		ints := map[string]int{
			KeyIdleTimeoutSeconds: cfg.IdleTimeoutSeconds,
			KeyDisplayBrightness:  cfg.DisplayBrightness,
			KeyMaxRefreshFps:      cfg.MaxRefreshFps,
		}
		for k, v := range ints {
			if err := tx.PutInt(k, v); err != nil {
				return err
			}
		}
		bools := map[string]bool{
			KeyVerboseLogging:      cfg.VerboseLogging,
			KeyClockEnabled:        cfg.ClockEnabled,
			KeyShowYearInClock:     cfg.ShowYearInClock,
			KeyPowerSaveMode:       cfg.PowerSaveMode,
			KeyAllowMissingStorage: cfg.AllowMissingStorage,
			KeyRestoreAppOnBoot:    cfg.RestoreAppOnBoot,
		}
		for k, v := range bools {
			if err := tx.PutBool(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSession persists the session snapshot.
func SaveSession(ctx context.Context, store SessionStore, s SessionState) error {
	return store.Update(ctx, func(tx SessionWriter) error {
		if err := tx.PutInt(KeyLastApplicationMode, int(s.Mode)); err != nil {
			return err
		}
		return tx.PutString(KeyLastEditingPath, s.EditingPath)
	})
}
