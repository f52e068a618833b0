package host

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync/atomic"

	"github.com/aretw0/inkwell/pkg/core"
)

// PowerLine is the input line that acts as the power button.
const PowerLine = "p"

// Interrupts receives the keyboard and power button interrupts.
type Interrupts interface {
	KeyPressed()
	PowerButton()
}

// Keyboard turns input lines into key presses. Each line is one key event;
// the text is kept until consumed or flushed.
type Keyboard struct {
	enabled atomic.Bool
	lines   chan string
}

// NewKeyboard creates an enabled keyboard buffering up to size lines.
func NewKeyboard(size int) *Keyboard {
	if size <= 0 {
		size = 16
	}
	k := &Keyboard{lines: make(chan string, size)}
	k.enabled.Store(true)
	return k
}

// Lines delivers the text of accepted key presses.
func (k *Keyboard) Lines() <-chan string {
	return k.lines
}

func (k *Keyboard) Flush() {
	for {
		select {
		case <-k.lines:
		default:
			return
		}
	}
}

func (k *Keyboard) Enable()  { k.enabled.Store(true) }
func (k *Keyboard) Disable() { k.enabled.Store(false) }

// Enabled reports whether key presses are accepted.
func (k *Keyboard) Enabled() bool {
	return k.enabled.Load()
}

// Feed reads lines from r until EOF or ctx is done. The power line raises a
// power button interrupt; any other line raises a key press while enabled.
func (k *Keyboard) Feed(ctx context.Context, r io.Reader, irq Interrupts) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == PowerLine {
			irq.PowerButton()
			continue
		}
		if !k.enabled.Load() {
			continue
		}
		select {
		case k.lines <- line:
		default:
		}
		irq.KeyPressed()
	}
	return scanner.Err()
}

var _ core.Keyboard = (*Keyboard)(nil)
