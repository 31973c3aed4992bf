package window

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"explain/internal/explain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TUIWindow shows a bundle in a scrollable full-screen viewport.
type TUIWindow struct {
	bundle *explain.Bundle
}

func NewTUIWindow() *TUIWindow {
	return &TUIWindow{}
}

func (t *TUIWindow) Display(b *explain.Bundle) {
	t.bundle = b
}

func (t *TUIWindow) Show() error {
	if t.bundle == nil {
		return fmt.Errorf("nothing to show")
	}
	program := tea.NewProgram(
		newBundleModel(t.bundle),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

type bundleModel struct {
	bundle   *explain.Bundle
	viewport viewport.Model
	width    int
	height   int
}

func newBundleModel(b *explain.Bundle) bundleModel {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)
	m := bundleModel{bundle: b, viewport: vp, width: 80, height: 24}
	m.viewport.SetContent(RenderBundle(b))
	return m
}

func (m bundleModel) Init() tea.Cmd {
	return nil
}

func (m bundleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width || msg.Height != m.height {
			m.width = msg.Width
			m.height = msg.Height
			m.viewport.SetWidth(msg.Width)
			m.viewport.SetHeight(msg.Height - 2)
			m.viewport.SetContent(RenderBundle(m.bundle))
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m bundleModel) View() string {
	footer := dimStyle.Render("  q: close  ↑/↓: scroll")
	return m.viewport.View() + "\n" + footer
}

// RenderBundle formats a bundle into styled terminal text. Both the
// full-screen viewport and the embedded browser pane use it.
func RenderBundle(b *explain.Bundle) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(b.Instruction))
	sb.WriteString("\n\n")

	sb.WriteString(sectionStyle.Render("Explanation"))
	sb.WriteString("\n")
	if len(b.Description) == 0 {
		sb.WriteString(dimStyle.Render("  (no IL available for this instruction)"))
		sb.WriteString("\n")
	}
	for _, line := range b.Description {
		sb.WriteString("  " + line + "\n")
	}

	if len(b.LLIL) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Low-level IL"))
		sb.WriteString("\n")
		for _, line := range b.LLIL {
			sb.WriteString("  " + line + "\n")
		}
	}
	if len(b.MLIL) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Medium-level IL"))
		sb.WriteString("\n")
		for _, line := range b.MLIL {
			sb.WriteString("  " + line + "\n")
		}
	}

	if len(b.Flags) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("Flags"))
		sb.WriteString("\n")
		for _, fu := range b.Flags {
			sb.WriteString(fmt.Sprintf("  [%d] reads {%s} writes {%s}  %s\n",
				fu.Index, strings.Join(fu.Read, ", "), strings.Join(fu.Written, ", "), fu.Statement))
		}
	}

	if b.State != nil && len(b.State.Facts) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionStyle.Render("State before execution"))
		sb.WriteString("\n")
		for _, fact := range b.State.Facts {
			sb.WriteString("  " + fact.String() + "\n")
		}
	}

	if b.DocURL != "" {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("Documentation: " + b.DocURL))
		sb.WriteString("\n")
	}
	return sb.String()
}
