package console

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestNotifier_Plain(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, false)

	n.Warn("Chest strap is not tightened or the strap needs moisture.")
	n.Info("Strap is working!")

	assert.Equal(t, "Chest strap is not tightened or the strap needs moisture.\nStrap is working!\n", buf.String())
}

func TestNotifier_Colored(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, true)

	n.Warn("careful")

	out := buf.String()
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "\x1b[", "expected ANSI escape")
}

func TestPrintIntervals(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	PrintIntervals(&buf, []float64{700, 710.9375})

	assert.Equal(t, "RR intervals (2):\n700.000\n710.938\n", buf.String())
}
