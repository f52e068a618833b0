package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/inkwell"
	"github.com/aretw0/inkwell/pkg/core"
)

// editor is the line editor behind `inkwell run`. Each input line is a
// paragraph appended to the open document; lines starting with ':' are
// commands. The stdin loop and the app initializers, which run on the power
// worker after a resume, both go through mu.
type editor struct {
	rt  *inkwell.Runtime
	out io.Writer

	mu  sync.Mutex
	doc core.Document
}

func newEditor(rt *inkwell.Runtime, out io.Writer) *editor {
	return &editor{rt: rt, out: out}
}

// open loads path into the editor. A missing document starts empty.
func (e *editor) open(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(ctx, path)
}

func (e *editor) load(ctx context.Context, path string) error {
	doc, err := e.rt.Service.LoadDocument(ctx, path)
	if errors.Is(err, core.ErrNotFound) {
		doc, err = core.Document{Path: core.CanonicalPath(path), Loaded: true}, nil
	}
	if err != nil {
		return err
	}
	e.doc = doc
	e.rt.Manager.SetMode(core.ModeTextEditor)
	e.rt.Manager.OpenDocument(doc)
	return nil
}

func (e *editor) handle(ctx context.Context, line string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !strings.HasPrefix(line, ":") {
		e.write(line)
		return nil
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "open":
		if arg == "" {
			return fmt.Errorf("usage: :open <path>")
		}
		return e.load(ctx, arg)
	case "save":
		doc, err := e.rt.Service.SaveDocument(ctx, e.doc)
		if err != nil {
			return err
		}
		e.doc = doc
		e.rt.Manager.OpenDocument(doc)
		fmt.Fprintf(e.out, "saved %s\n", doc.Path)
	case "home":
		e.rt.Manager.SetMode(core.ModeHome)
	case "time":
		return e.rt.Service.SetTimeFromString(arg)
	case "cpu":
		mhz, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid frequency %q", arg)
		}
		return e.rt.Manager.SetCPUSpeed(mhz)
	case "defer":
		on, err := strconv.ParseBool(arg)
		if err != nil {
			return fmt.Errorf("usage: :defer true|false")
		}
		e.rt.Manager.SetDeferSleep(on)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// document returns a copy of the open document.
func (e *editor) document() core.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc := e.doc
	doc.Lines = slices.Clone(e.doc.Lines)
	return doc
}

// write appends a paragraph, wrapped to the display.
func (e *editor) write(text string) {
	if e.doc.Path == "" {
		e.doc = core.Document{Path: core.ScratchPath, Loaded: true}
		e.rt.Manager.SetMode(core.ModeTextEditor)
	}
	lines := e.rt.Codec.Deserialize(text)
	if len(lines) == 0 {
		lines = []string{""}
	}
	e.doc.Lines = append(e.doc.Lines, lines...)

	// The manager saves its copy from the power worker.
	doc := e.doc
	doc.Lines = slices.Clone(e.doc.Lines)
	e.rt.Manager.OpenDocument(doc)
}
