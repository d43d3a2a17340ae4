// Package console prints user-facing strap messages to a terminal.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/bft-labs/rrship/internal/ports"
)

// Notifier implements ports.Notifier. Warnings are yellow, information green.
type Notifier struct {
	mu   sync.Mutex
	out  io.Writer
	warn *color.Color
	info *color.Color
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier creates a notifier writing to out. When colors is false the
// output is plain text regardless of the terminal.
func NewNotifier(out io.Writer, colors bool) *Notifier {
	n := &Notifier{
		out:  out,
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgGreen),
	}
	if colors {
		n.warn.EnableColor()
		n.info.EnableColor()
	} else {
		n.warn.DisableColor()
		n.info.DisableColor()
	}
	return n
}

// Warn prints msg as a warning.
func (n *Notifier) Warn(msg string) {
	n.print(n.warn, msg)
}

// Info prints msg.
func (n *Notifier) Info(msg string) {
	n.print(n.info, msg)
}

func (n *Notifier) print(c *color.Color, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, c.Sprint(msg))
}

// PrintIntervals writes the retained RR intervals, one per line, in milliseconds.
func PrintIntervals(out io.Writer, intervals []float64) {
	header := color.New(color.Bold)
	fmt.Fprintln(out, header.Sprintf("RR intervals (%d):", len(intervals)))
	for _, rr := range intervals {
		fmt.Fprintf(out, "%.3f\n", rr)
	}
}
