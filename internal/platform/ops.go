package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/inkwell/pkg/adapters/fs"
	"github.com/aretw0/inkwell/pkg/adapters/sqlite"
	"github.com/aretw0/inkwell/pkg/core"
)

// SessionFile is the name of the session database.
const SessionFile = "session.db"

// initStorage resolves the storage root and prepares the filesystem adapter.
// A missing medium is not an error: the runtime comes up without storage and
// every document operation reports it.
func initStorage(root string, o *options) (*fs.Storage, string, bool, error) {
	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	resolved := ResolveRoot(root, useTemp)
	if useTemp && o.logger != nil {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", root, "resolved_path", resolved)
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, "", useTemp, err
	}

	systemDir := o.systemDir
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	s := fs.NewStorage(fs.Config{
		Path:         abs,
		SystemDir:    systemDir,
		MustExist:    o.mustExist && !useTemp,
		Logger:       o.logger,
		ErrorHandler: o.errorHandler,
	})
	if err := s.Initialize(context.Background()); err != nil {
		if !o.mustExist || useTemp {
			return nil, "", useTemp, err
		}
		if o.logger != nil {
			o.logger.Warn("storage not available", "path", abs, "error", err)
		}
	}
	return s, abs, useTemp, nil
}

// sessionPath picks the database file: inside the sandbox when sandboxed,
// otherwise in the user configuration directory, apart from the medium.
func sessionPath(root, systemDir string, useTemp bool, o *options) (string, error) {
	if o.sessionPath != "" {
		return o.sessionPath, nil
	}
	if useTemp {
		return filepath.Join(root, systemDir, SessionFile), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no session path: %w", err)
	}
	return filepath.Join(dir, "inkwell", SessionFile), nil
}

// openStore returns the injected store or opens the SQLite one.
func openStore(path string, o *options) (core.SessionStore, error) {
	if o.store != nil {
		return o.store, nil
	}
	store, err := sqlite.Open(sqlite.Config{Path: path, Logger: o.logger})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}
