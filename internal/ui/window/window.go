// Package window is the presentation sink for explanation bundles.
// Two implementations exist: an interactive viewport for terminals and
// a plain writer for pipes. The rest of the system depends only on the
// Window interface; the concrete sink is chosen once at startup.
package window

import (
	"os"

	"github.com/charmbracelet/x/term"

	"explain/internal/explain"
)

// Window receives one display bundle and shows it. Implementations are
// pure sinks: they return nothing to the pipeline.
type Window interface {
	Display(b *explain.Bundle)
	Show() error
}

// New probes the terminal once and returns the interactive window when
// stdout is a TTY, the plain text window otherwise. EXPLAIN_NO_TUI
// forces the plain window.
func New() Window {
	if os.Getenv("EXPLAIN_NO_TUI") != "" || !term.IsTerminal(os.Stdout.Fd()) {
		return NewTextWindow(os.Stdout)
	}
	return NewTUIWindow()
}
