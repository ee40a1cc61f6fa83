// Package output provides consistent CLI output formatting.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Writer provides formatted output for the CLI. Pretty-printing is on
// when the destination is an interactive terminal, compact otherwise,
// so piped output stays machine-friendly.
type Writer struct {
	out    io.Writer
	pretty bool
}

// New creates a Writer over out, auto-detecting terminal output.
func New(out io.Writer) *Writer {
	return &Writer{out: out, pretty: IsTerminal(out)}
}

// Pretty reports whether the writer pretty-prints.
func (w *Writer) Pretty() bool { return w.pretty }

// JSON writes v as JSON: indented on a terminal, compact otherwise.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	if w.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// IsTerminal reports whether out is an interactive terminal.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
