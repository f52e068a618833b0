// Package index maintains the document metadata index: one line per document
// with its path, last write time, size and printable character count.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/inkwell/pkg/core"
	"github.com/aretw0/inkwell/pkg/textbuf"
)

// DefaultPath is where the index lives on the storage medium.
const DefaultPath = "/.inkwell/metadata.txt"

// TimestampLayout is the time format of the second record field.
const TimestampLayout = "20060102-1504"

const delimiter = "|"

// Config configures a FileIndex. Guard, Clock and Logger are optional.
type Config struct {
	Storage core.Storage
	Guard   *core.StorageGuard
	Clock   core.Clock
	Path    string
	Logger  *slog.Logger
}

// FileIndex is the metadata index kept as a text file on the storage medium.
type FileIndex struct {
	storage core.Storage
	guard   *core.StorageGuard
	clock   core.Clock
	path    string
	logger  *slog.Logger

	mu         sync.Mutex
	lastWrite  time.Time
	lastCount  int
	writeCount uint64
}

// New creates a FileIndex.
func New(cfg Config) *FileIndex {
	idx := &FileIndex{
		storage: cfg.Storage,
		guard:   cfg.Guard,
		clock:   cfg.Clock,
		path:    cfg.Path,
		logger:  cfg.Logger,
	}
	if idx.path == "" {
		idx.path = DefaultPath
	}
	idx.path = core.CanonicalPath(idx.path)
	if idx.guard == nil {
		idx.guard = core.NewStorageGuard(nil, false)
	}
	if idx.logger == nil {
		idx.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return idx
}

// Path returns the storage name of the index file.
func (x *FileIndex) Path() string {
	return x.path
}

// FormatRecord renders a record as an index line, without the newline.
func FormatRecord(r core.MetadataRecord) string {
	return fmt.Sprintf("%s|%s|%d Bytes|%d Char", r.Path, r.Timestamp, r.SizeBytes, r.VisibleCharCount)
}

// ParseRecord parses an index line. Lines that do not carry all four fields
// return an error together with a record holding whatever path was found.
func ParseRecord(line string) (core.MetadataRecord, error) {
	fields := strings.Split(line, delimiter)
	rec := core.MetadataRecord{Path: fields[0]}
	if len(fields) != 4 {
		return rec, fmt.Errorf("malformed index line %q: want 4 fields, got %d", line, len(fields))
	}
	rec.Timestamp = fields[1]
	size, err := parseCount(fields[2], "Bytes")
	if err != nil {
		return rec, fmt.Errorf("malformed index line %q: %w", line, err)
	}
	chars, err := parseCount(fields[3], "Char")
	if err != nil {
		return rec, fmt.Errorf("malformed index line %q: %w", line, err)
	}
	rec.SizeBytes, rec.VisibleCharCount = size, chars
	return rec, nil
}

func parseCount(field, unit string) (uint64, error) {
	num, ok := strings.CutSuffix(field, " "+unit)
	if !ok {
		return 0, fmt.Errorf("missing %q unit in %q", unit, field)
	}
	return strconv.ParseUint(num, 10, 64)
}

// pathOf returns the path field of a line.
func pathOf(line string) string {
	p, _, _ := strings.Cut(line, delimiter)
	return p
}

// Upsert recomputes the record of path from the stored document and writes it
// into the index, replacing the first line for the same path.
func (x *FileIndex) Upsert(ctx context.Context, path string) (core.MetadataRecord, error) {
	path = core.CanonicalPath(path)
	var rec core.MetadataRecord
	err := x.guard.Do(func() error {
		var err error
		rec, err = x.measure(ctx, path)
		if err != nil {
			return err
		}

		lines, err := x.readLines(ctx)
		if err != nil {
			return err
		}
		return x.writeLines(ctx, upsertLine(lines, rec))
	})
	if err != nil {
		return core.MetadataRecord{}, err
	}
	x.logger.Debug("metadata updated", "path", rec.Path, "bytes", rec.SizeBytes, "chars", rec.VisibleCharCount)
	return rec, nil
}

func upsertLine(lines []string, rec core.MetadataRecord) []string {
	out := make([]string, 0, len(lines)+1)
	replaced := false
	for _, line := range lines {
		if !replaced && pathOf(line) == rec.Path {
			out = append(out, FormatRecord(rec))
			replaced = true
			continue
		}
		if blankLine(line) {
			continue
		}
		out = append(out, line)
	}
	if !replaced {
		out = append(out, FormatRecord(rec))
	}
	return out
}

func (x *FileIndex) measure(ctx context.Context, path string) (core.MetadataRecord, error) {
	info, err := x.storage.Stat(ctx, path)
	if err != nil {
		return core.MetadataRecord{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir {
		return core.MetadataRecord{}, fmt.Errorf("%s is a directory: %w", path, core.ErrNotFound)
	}
	data, err := x.storage.Read(ctx, path)
	if err != nil {
		return core.MetadataRecord{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return core.MetadataRecord{
		Path:             path,
		Timestamp:        x.now().Format(TimestampLayout),
		SizeBytes:        uint64(len(data)),
		VisibleCharCount: uint64(textbuf.CountVisible(string(data))),
	}, nil
}

// Delete drops every line for path.
func (x *FileIndex) Delete(ctx context.Context, path string) error {
	path = core.CanonicalPath(path)
	return x.guard.Do(func() error {
		lines, err := x.readLines(ctx)
		if err != nil {
			return err
		}
		if lines == nil {
			x.logger.Debug("metadata index missing, nothing to delete", "path", path)
			return nil
		}
		out := lines[:0:0]
		for _, line := range lines {
			if pathOf(line) != path {
				out = append(out, line)
			}
		}
		return x.writeLines(ctx, out)
	})
}

// Rename replaces the path field of the lines for oldPath. The other fields
// are carried over untouched.
func (x *FileIndex) Rename(ctx context.Context, oldPath, newPath string) error {
	oldPath, newPath = core.CanonicalPath(oldPath), core.CanonicalPath(newPath)
	return x.guard.Do(func() error {
		lines, err := x.readLines(ctx)
		if err != nil {
			return err
		}
		if lines == nil {
			x.logger.Debug("metadata index missing, nothing to rename", "from", oldPath)
			return nil
		}
		for i, line := range lines {
			p, rest, found := strings.Cut(line, delimiter)
			if p != oldPath {
				continue
			}
			if found {
				lines[i] = newPath + delimiter + rest
			} else {
				lines[i] = newPath
			}
		}
		return x.writeLines(ctx, lines)
	})
}

// Get returns the record of path.
func (x *FileIndex) Get(ctx context.Context, path string) (core.MetadataRecord, error) {
	path = core.CanonicalPath(path)
	records, err := x.List(ctx)
	if err != nil {
		return core.MetadataRecord{}, err
	}
	for _, r := range records {
		if r.Path == path {
			return r, nil
		}
	}
	return core.MetadataRecord{}, fmt.Errorf("no metadata for %s: %w", path, core.ErrNotFound)
}

// List returns every record in index order. Lines that do not parse are
// listed with only their path set.
func (x *FileIndex) List(ctx context.Context) ([]core.MetadataRecord, error) {
	var lines []string
	err := x.guard.Do(func() error {
		var err error
		lines, err = x.readLines(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	records := make([]core.MetadataRecord, 0, len(lines))
	for _, line := range lines {
		if blankLine(line) {
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			x.logger.Warn("skipping malformed metadata fields", "error", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Rebuild re-indexes every document matching pattern and drops the records
// whose documents are gone. It returns the number of records written.
func (x *FileIndex) Rebuild(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		pattern = "**/*.txt"
	}
	var count int
	err := x.guard.Do(func() error {
		names, err := x.storage.Glob(ctx, pattern)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		lines, err := x.readLines(ctx)
		if err != nil {
			return err
		}

		kept := lines[:0:0]
		for _, line := range lines {
			if blankLine(line) {
				continue
			}
			if _, err := x.storage.Stat(ctx, pathOf(line)); errors.Is(err, core.ErrNotFound) {
				x.logger.Debug("dropping metadata of missing document", "path", pathOf(line))
				continue
			}
			kept = append(kept, line)
		}

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := x.measure(ctx, name)
			if err != nil {
				x.logger.Warn("failed to measure document", "path", name, "error", err)
				continue
			}
			kept = upsertLine(kept, rec)
			count++
		}
		return x.writeLines(ctx, kept)
	})
	if err != nil {
		return 0, err
	}
	x.logger.Info("metadata index rebuilt", "pattern", pattern, "records", count)
	return count, nil
}

// readLines returns the index lines, or nil when the index does not exist yet.
func (x *FileIndex) readLines(ctx context.Context) ([]string, error) {
	data, err := x.storage.Read(ctx, x.path)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata index: %w", err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, "\n"), nil
}

// blankLine reports whether line is too short to hold a record. Such lines
// are dropped on every rewrite.
func blankLine(line string) bool {
	return len(line) <= 1 || strings.TrimSpace(line) == ""
}

func (x *FileIndex) writeLines(ctx context.Context, lines []string) error {
	var (
		sb   strings.Builder
		kept int
	)
	for _, line := range lines {
		if blankLine(line) {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
		kept++
	}
	if err := x.storage.Write(ctx, x.path, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to write metadata index: %w", err)
	}

	x.mu.Lock()
	x.lastWrite = x.now()
	x.lastCount = kept
	x.writeCount++
	x.mu.Unlock()
	return nil
}

func (x *FileIndex) now() time.Time {
	if x.clock == nil {
		return time.Now()
	}
	return x.clock.Now()
}

var _ core.MetadataIndex = (*FileIndex)(nil)
