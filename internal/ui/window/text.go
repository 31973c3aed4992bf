package window

import (
	"fmt"
	"io"
	"strings"

	"explain/internal/explain"
	"explain/internal/styles"
	"explain/internal/ui/colorize"
)

// TextWindow renders bundles as plain sections on a writer. It is the
// sink used when output is piped or a TUI is unavailable.
type TextWindow struct {
	w      io.Writer
	bundle *explain.Bundle
}

func NewTextWindow(w io.Writer) *TextWindow {
	return &TextWindow{w: w}
}

func (t *TextWindow) Display(b *explain.Bundle) {
	t.bundle = b
}

func (t *TextWindow) Show() error {
	b := t.bundle
	if b == nil {
		return fmt.Errorf("nothing to show")
	}

	fmt.Fprintln(t.w, colorize.ColorizeILLine(b.Instruction))
	fmt.Fprintln(t.w)

	fmt.Fprintln(t.w, "Explanation:")
	if len(b.Description) == 0 {
		fmt.Fprintln(t.w, "  (no IL available for this instruction)")
	}
	for _, line := range b.Description {
		fmt.Fprintf(t.w, "  %s\n", line)
	}

	if len(b.LLIL) > 0 {
		fmt.Fprintln(t.w)
		fmt.Fprintln(t.w, "Low-level IL:")
		for _, line := range b.LLIL {
			fmt.Fprintf(t.w, "  %s\n", colorize.ColorizeILLine(line))
		}
	}
	if len(b.MLIL) > 0 {
		fmt.Fprintln(t.w)
		fmt.Fprintln(t.w, "Medium-level IL:")
		for _, line := range b.MLIL {
			fmt.Fprintf(t.w, "  %s\n", colorize.ColorizeILLine(line))
		}
	}

	if len(b.Flags) > 0 {
		fmt.Fprintln(t.w)
		fmt.Fprintln(t.w, "Flags:")
		for _, fu := range b.Flags {
			fmt.Fprintf(t.w, "  [%d] reads {%s} writes {%s}  %s\n",
				fu.Index, strings.Join(fu.Read, ", "), strings.Join(fu.Written, ", "), fu.Statement)
		}
	}

	if b.State != nil && len(b.State.Facts) > 0 {
		fmt.Fprintln(t.w)
		fmt.Fprintln(t.w, "State before execution:")
		for _, fact := range b.State.Facts {
			fmt.Fprintf(t.w, "  %s\n", fact)
		}
	}

	if b.DocURL != "" {
		fmt.Fprintln(t.w)
		md := fmt.Sprintf("Documentation: <%s>", b.DocURL)
		if r := styles.GetMarkdownRenderer(100); r != nil {
			if rendered, err := r.Render(md); err == nil {
				fmt.Fprint(t.w, rendered)
				return nil
			}
		}
		fmt.Fprintln(t.w, md)
	}
	return nil
}
