package status

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Writer prints every update of one check as a "<label>: <message>" line.
// Writers created by the same Printer share a lock so lines of concurrent
// checks never interleave.
type Writer struct {
	p     *Printer
	label string
}

// Printer owns the output stream and its colours.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	green *color.Color
	red   *color.Color
	gray  *color.Color
	bold  *color.Color
}

func NewPrinter(out io.Writer) *Printer {
	p := &Printer{
		out:   out,
		green: color.New(color.FgGreen),
		red:   color.New(color.FgRed),
		gray:  color.New(color.FgHiBlack),
		bold:  color.New(color.Bold),
	}
	if !isTerminal(out) {
		for _, c := range []*color.Color{p.green, p.red, p.gray, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// For returns the Reporter of the check labelled label.
func (p *Printer) For(label string) *Writer {
	return &Writer{p: p, label: label}
}

func (w *Writer) Report(state State, msg string) {
	p := w.p
	var c *color.Color
	switch state {
	case Success:
		c = p.green
	case Failure:
		c = p.red
	default:
		c = p.gray
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s: %s\n", p.bold.Sprint(w.label), c.Sprint(msg))
}
