package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/inkwell/pkg/core"
)

// DefaultSystemDir is the hidden directory holding runtime files (index, logs).
const DefaultSystemDir = ".inkwell"

// Config holds the configuration for the filesystem storage.
type Config struct {
	Path         string
	SystemDir    string // e.g. ".inkwell"
	MustExist    bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// Storage implements core.Storage on a host directory standing in for the
// removable card. Names are slash separated and rooted at Path.
type Storage struct {
	Path   string
	config Config

	mu            sync.RWMutex
	watcherActive bool
	lastSync      *time.Time
}

// NewStorage creates a new filesystem-backed storage.
func NewStorage(config Config) *Storage {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Storage{
		Path:   config.Path,
		config: config,
	}
}

// Initialize prepares the root directory.
func (s *Storage) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("storage path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("storage path is not a directory: %s", s.Path)
		}
	} else if err := os.MkdirAll(filepath.Join(s.Path, s.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	n, err := sweepStaged(s.Path)
	if err != nil {
		return fmt.Errorf("failed to sweep staged files: %w", err)
	}
	if n > 0 {
		s.config.Logger.Warn("removed interrupted writes", "count", n)
	}
	return nil
}

// SystemDir returns the name of the hidden runtime directory.
func (s *Storage) SystemDir() string {
	return s.config.SystemDir
}

// Available reports whether the root directory is present.
func (s *Storage) Available() bool {
	info, err := os.Stat(s.Path)
	return err == nil && info.IsDir()
}

// resolve maps a storage name to a host path, refusing names that escape the root.
func (s *Storage) resolve(name string) (string, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(name), "/")
	if rel == "" || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("invalid storage name %q", name)
	}
	return filepath.Join(s.Path, filepath.FromSlash(rel)), nil
}

// name maps a host path back to a storage name.
func (s *Storage) name(fullPath string) (string, error) {
	rel, err := filepath.Rel(s.Path, fullPath)
	if err != nil {
		return "", err
	}
	return core.CanonicalPath(filepath.ToSlash(rel)), nil
}

func notFound(name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, name)
	}
	return err
}

// Read returns the whole stream.
func (s *Storage) Read(ctx context.Context, name string) ([]byte, error) {
	full, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, notFound(name, err)
	}
	return data, nil
}

// Write replaces the stream atomically, creating parent directories.
func (s *Storage) Write(ctx context.Context, name string, data []byte) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	return writeFileAtomic(full, data, 0644)
}

// Append adds data at the end of the stream, creating it if needed.
func (s *Storage) Append(ctx context.Context, name string, data []byte) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Delete removes the stream.
func (s *Storage) Delete(ctx context.Context, name string) error {
	full, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return notFound(name, err)
	}
	return nil
}

// Rename moves a stream, creating the destination directory.
func (s *Storage) Rename(ctx context.Context, oldName, newName string) error {
	oldFull, err := s.resolve(oldName)
	if err != nil {
		return err
	}
	newFull, err := s.resolve(newName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(newFull), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.Rename(oldFull, newFull); err != nil {
		return notFound(oldName, err)
	}
	return nil
}

// Stat describes a stream.
func (s *Storage) Stat(ctx context.Context, name string) (core.FileInfo, error) {
	full, err := s.resolve(name)
	if err != nil {
		return core.FileInfo{}, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return core.FileInfo{}, notFound(name, err)
	}
	return core.FileInfo{
		Name:    core.CanonicalPath(strings.TrimPrefix(filepath.ToSlash(name), "/")),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}, nil
}

// Glob lists regular files matching a doublestar pattern, skipping the system
// directory and in-flight temp files.
func (s *Storage) Glob(ctx context.Context, pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(pattern, "/")
	matches, err := doublestar.Glob(os.DirFS(s.Path), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if s.isInternal(m) {
			continue
		}
		names = append(names, core.CanonicalPath(m))
	}
	sort.Strings(names)
	return names, nil
}

// isInternal reports whether a root-relative slash path belongs to the runtime.
func (s *Storage) isInternal(rel string) bool {
	rel = strings.TrimPrefix(rel, "/")
	if rel == s.config.SystemDir || strings.HasPrefix(rel, s.config.SystemDir+"/") {
		return true
	}
	return strings.HasPrefix(filepath.Base(rel), TempFilePrefix)
}

var _ core.Storage = (*Storage)(nil)
