package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ServiceConfig wires the document service to its collaborators.
// Display, Keyboard, Clock and Logger are optional.
type ServiceConfig struct {
	Storage  Storage
	Index    MetadataIndex
	Codec    TextCodec
	Guard    *StorageGuard
	Display  Display
	Keyboard Keyboard
	Clock    Clock
	Logger   *slog.Logger
}

// Service handles the document operations of the device: every storage
// access checks the medium, raises the busy indicator and keeps the
// metadata index current.
type Service struct {
	storage  Storage
	index    MetadataIndex
	codec    TextCodec
	guard    *StorageGuard
	display  Display
	keyboard Keyboard
	clock    Clock
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		storage:  cfg.Storage,
		index:    cfg.Index,
		codec:    cfg.Codec,
		guard:    cfg.Guard,
		display:  cfg.Display,
		keyboard: cfg.Keyboard,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if s.guard == nil {
		s.guard = NewStorageGuard(nil, false)
	}
	if s.display == nil {
		s.display = nopDisplay{}
	}
	if s.keyboard == nil {
		s.keyboard = nopKeyboard{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Guard exposes the shared storage busy indicator.
func (s *Service) Guard() *StorageGuard {
	return s.guard
}

// StorageAvailable reports whether the medium is present.
func (s *Service) StorageAvailable() bool {
	return s.storage != nil && s.storage.Available()
}

// run wraps a storage operation: medium check, busy indicator, CPU boost and
// keyboard interrupts disabled for the duration.
func (s *Service) run(op string, fn func() error) error {
	if !s.StorageAvailable() {
		s.display.DrawStatus(op + " FAILED - No SD!")
		s.logger.Error("storage unavailable", "op", op)
		return fmt.Errorf("%s: %w", op, ErrNoStorage)
	}
	return s.guard.Do(func() error {
		s.keyboard.Disable()
		defer s.keyboard.Enable()
		return fn()
	})
}

// SaveDocument serializes doc and writes it, then refreshes its index record.
// An empty or "-" path saves to the scratch document. The returned document
// carries the canonical path.
func (s *Service) SaveDocument(ctx context.Context, doc Document) (Document, error) {
	err := s.run("SAVE", func() error {
		if doc.Path == "" || doc.Path == "-" {
			doc.Path = ScratchPath
		}
		doc.Path = CanonicalPath(doc.Path)

		text := s.codec.Serialize(doc.Lines)
		s.logger.Debug("saving document", "path", doc.Path, "bytes", len(text))
		if err := s.storage.Write(ctx, doc.Path, []byte(text)); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.Path, err)
		}
		return s.refreshMetadata(ctx, doc.Path)
	})
	return doc, err
}

// LoadDocument reads a document and splits it into display lines.
func (s *Service) LoadDocument(ctx context.Context, path string) (Document, error) {
	doc := Document{Path: CanonicalPath(path)}
	err := s.run("LOAD", func() error {
		data, err := s.storage.Read(ctx, doc.Path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", doc.Path, err)
		}
		doc.Lines = s.codec.Deserialize(string(data))
		doc.Loaded = true
		s.display.DrawStatus("File Loaded")
		return nil
	})
	return doc, err
}

// DeleteDocument removes a document and its index record.
func (s *Service) DeleteDocument(ctx context.Context, path string) error {
	path = CanonicalPath(path)
	return s.run("DELETE", func() error {
		if err := s.storage.Delete(ctx, path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		if err := s.index.Delete(ctx, path); err != nil {
			s.logger.Error("failed to delete metadata", "path", path, "error", err)
			return err
		}
		return nil
	})
}

// RenameDocument moves a document and carries its index record over.
func (s *Service) RenameDocument(ctx context.Context, oldPath, newPath string) error {
	oldPath, newPath = CanonicalPath(oldPath), CanonicalPath(newPath)
	return s.run("RENAME", func() error {
		if err := s.storage.Rename(ctx, oldPath, newPath); err != nil {
			return fmt.Errorf("failed to rename %s: %w", oldPath, err)
		}
		s.display.DrawStatus(oldPath + " -> " + newPath)
		if err := s.index.Rename(ctx, oldPath, newPath); err != nil {
			s.logger.Error("failed to rename metadata", "from", oldPath, "to", newPath, "error", err)
			return err
		}
		return nil
	})
}

// CopyDocument duplicates a document under a new path.
func (s *Service) CopyDocument(ctx context.Context, oldPath, newPath string) error {
	oldPath, newPath = CanonicalPath(oldPath), CanonicalPath(newPath)
	return s.run("COPY", func() error {
		data, err := s.storage.Read(ctx, oldPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", oldPath, err)
		}
		if err := s.storage.Write(ctx, newPath, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", newPath, err)
		}
		s.display.DrawStatus("Saved: " + newPath)
		return s.refreshMetadata(ctx, newPath)
	})
}

// AppendToDocument appends raw text to a document.
func (s *Service) AppendToDocument(ctx context.Context, path, text string) error {
	path = CanonicalPath(path)
	return s.run("OP", func() error {
		if err := s.storage.Append(ctx, path, []byte(text)); err != nil {
			return fmt.Errorf("failed to append to %s: %w", path, err)
		}
		return s.refreshMetadata(ctx, path)
	})
}

func (s *Service) refreshMetadata(ctx context.Context, path string) error {
	if s.index == nil {
		return nil
	}
	if _, err := s.index.Upsert(ctx, path); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.display.DrawStatus("META WRITE ERR")
		}
		s.logger.Error("failed to update metadata", "path", path, "error", err)
		return fmt.Errorf("failed to update metadata for %s: %w", path, err)
	}
	return nil
}

type nopDisplay struct{}

func (nopDisplay) MeasureTextWidth(s string) int { return len(s) }
func (nopDisplay) DrawStatus(string)             {}
func (nopDisplay) Clear()                        {}
func (nopDisplay) Hibernate()                    {}

type nopKeyboard struct{}

func (nopKeyboard) Flush()   {}
func (nopKeyboard) Enable()  {}
func (nopKeyboard) Disable() {}
