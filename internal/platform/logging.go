package platform

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// LogConfig describes where log records go.
type LogConfig struct {
	// Level is shared by every handler so it can be changed at runtime.
	Level *slog.LevelVar
	// Terminal receives human readable records. Nil disables it.
	Terminal io.Writer
	// File receives JSON records, e.g. a log file on the storage medium.
	File io.Writer
	// Journal forwards records to the systemd journal when running as a service.
	Journal bool
}

// NewLogger builds a logger fanning out to the configured handlers.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Level == nil {
		cfg.Level = new(slog.LevelVar)
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handlers []slog.Handler
	var terminal slog.Handler
	if cfg.Terminal != nil {
		terminal = slog.NewTextHandler(cfg.Terminal, opts)
		handlers = append(handlers, terminal)
	}
	if cfg.File != nil {
		handlers = append(handlers, slog.NewJSONHandler(cfg.File, opts))
	}

	if cfg.Journal && IsSystemdService() {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: cfg.Level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			if terminal != nil {
				record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
				record.Add("error", err)
				_ = terminal.Handle(context.Background(), record)
			}
		} else {
			handlers = append(handlers, journal)
		}
	}

	if len(handlers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// IsSystemdService reports whether the process runs inside a systemd service unit.
func IsSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}
