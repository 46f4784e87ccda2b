package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgCyan, color.Bold)
)

// SetColor turns colored output on or off.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// Success prints a success line.
func Success(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error prints an error line. Errors pass through UserMessage.
func Error(w io.Writer, name string, err error) {
	errorColor.Fprintf(w, "✗ %s: %s\n", name, UserMessage(err))
}

// Warning prints a warning line.
func Warning(w io.Writer, format string, args ...interface{}) {
	warningColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Header prints a file header before its extracted text.
func Header(w io.Writer, title string) {
	headerColor.Fprintf(w, "==> %s <==\n", title)
}
