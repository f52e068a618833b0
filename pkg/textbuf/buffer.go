// Package textbuf converts between the flat stored text of a document and
// the ordered, width-bounded lines shown on the display.
package textbuf

import (
	"strings"
)

// BreakMargin is the slack, in pixels, kept free at the right edge while wrapping.
const BreakMargin = 5

// Measurer reports the rendered width of a string in pixels.
type Measurer interface {
	MeasureTextWidth(s string) int
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(s string) int

// MeasureTextWidth implements Measurer.
func (f MeasureFunc) MeasureTextWidth(s string) int { return f(s) }

// Model wraps text for a display of DisplayWidth pixels.
type Model struct {
	Measurer     Measurer
	DisplayWidth int
}

// New creates a Model.
func New(m Measurer, displayWidth int) *Model {
	return &Model{Measurer: m, DisplayWidth: displayWidth}
}

// Serialize joins lines into the stored form. A line that does not fill the
// display gets an explicit line break, unless it is the last one; a line that
// fills it is treated as wrapped and is joined directly to the next.
func (m *Model) Serialize(lines []string) string {
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(line)
		if i < len(lines)-1 && m.Measurer.MeasureTextWidth(line) < m.DisplayWidth {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Deserialize wraps text into display lines. Lines are broken at spaces; the
// space stays at the end of the line it closes. A word with no space to break
// at is emitted whole even when it overflows.
func (m *Model) Deserialize(text string) []string {
	var (
		lines []string
		acc   []rune
	)
	limit := m.DisplayWidth - BreakMargin

	for _, r := range text {
		if len(acc) > 0 && (r == '\n' || m.Measurer.MeasureTextWidth(string(acc)+string(r)) >= limit) {
			var line []rune
			line, acc = breakLine(acc)
			lines = append(lines, string(line))
		}
		if r != '\n' {
			acc = append(acc, r)
		}
	}
	if len(acc) > 0 {
		lines = append(lines, string(acc))
	}
	return lines
}

// breakLine splits the accumulator into the line to emit and the carried remainder.
func breakLine(acc []rune) (line, carry []rune) {
	if acc[len(acc)-1] == ' ' {
		return acc, nil
	}
	for i := len(acc) - 1; i >= 0; i-- {
		if acc[i] == ' ' {
			carry = append([]rune(nil), acc[i+1:]...)
			return acc[:i+1], carry
		}
	}
	return acc, nil
}

// CountVisible counts printable ASCII characters (space included).
func CountVisible(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 32 && c <= 126 {
			n++
		}
	}
	return n
}
