package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Narrator prints progress for the operator at each phase boundary
type Narrator struct {
	out io.Writer
}

// NewNarrator creates a narrator writing to out, or stdout when out is nil
func NewNarrator(out io.Writer) *Narrator {
	if out == nil {
		out = os.Stdout
	}
	return &Narrator{out: out}
}

// Success prints a success message
func (n *Narrator) Success(format string, args ...interface{}) {
	successColor.Fprintf(n.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error message
func (n *Narrator) Error(format string, args ...interface{}) {
	errorColor.Fprintf(n.out, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (n *Narrator) Warning(format string, args ...interface{}) {
	warningColor.Fprintf(n.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message
func (n *Narrator) Info(format string, args ...interface{}) {
	infoColor.Fprintf(n.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Writer returns the underlying writer
func (n *Narrator) Writer() io.Writer {
	return n.out
}
