package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"explain/internal/binview"
	"explain/internal/explain"
	"explain/internal/ui/colorize"
	"explain/internal/ui/window"
)

type browseMode int

const (
	browseFunctions browseMode = iota
	browseInstructions
	browseExplain
)

var (
	browseTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).MarginLeft(2)
	browseErrStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	browseFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedAddrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	normalAddrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type funcItem struct {
	address   uint64
	name      string
	demangled string
}

func (i funcItem) Title() string       { return i.demangled }
func (i funcItem) Description() string { return "" }
func (i funcItem) FilterValue() string { return i.demangled }

type instItem struct {
	address uint64
	text    string
}

func (i instItem) Title() string       { return i.text }
func (i instItem) Description() string { return "" }
func (i instItem) FilterValue() string { return i.text }

type funcDelegate struct{}

func (d funcDelegate) Height() int                               { return 1 }
func (d funcDelegate) Spacing() int                              { return 0 }
func (d funcDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d funcDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(funcItem)
	if !ok {
		return
	}
	indicator := " "
	addrStyle := normalAddrStyle
	if index == m.Index() {
		indicator = ">"
		addrStyle = selectedAddrStyle
	}
	fmt.Fprintf(w, " %s  %s  %s",
		indicator,
		addrStyle.Render(fmt.Sprintf("%x", i.address)),
		i.demangled)
}

type instDelegate struct{}

func (d instDelegate) Height() int                               { return 1 }
func (d instDelegate) Spacing() int                              { return 0 }
func (d instDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d instDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(instItem)
	if !ok {
		return
	}
	indicator := " "
	addrStyle := normalAddrStyle
	if index == m.Index() {
		indicator = ">"
		addrStyle = selectedAddrStyle
	}
	text := i.text
	if colorized, err := colorize.ColorizeAssembly(text); err == nil {
		text = colorized
	}
	fmt.Fprintf(w, " %s  %s  %s",
		indicator,
		addrStyle.Render(fmt.Sprintf("%x", i.address)),
		text)
}

// Message types
type viewOpenedMsg struct {
	view  *binview.ELFView
	items []list.Item
	err   error
}

type functionMsg struct {
	fn    *binview.Function
	items []list.Item
	err   error
}

type bundleMsg struct {
	bundle *explain.Bundle
	err    error
}

// Commands
func openViewCmd(filepath string) tea.Cmd {
	return func() tea.Msg {
		view, err := binview.OpenELF(filepath)
		if err != nil {
			return viewOpenedMsg{err: err}
		}
		var items []list.Item
		for _, sym := range view.Functions() {
			items = append(items, funcItem{
				address:   sym.Addr,
				name:      sym.Name,
				demangled: binview.CachedDemangle(sym.Name),
			})
		}
		return viewOpenedMsg{view: view, items: items}
	}
}

func liftFunctionCmd(view *binview.ELFView, addr uint64) tea.Cmd {
	return func() tea.Msg {
		fn, err := view.FunctionAt(addr)
		if err != nil {
			return functionMsg{err: err}
		}
		var items []list.Item
		for _, a := range fn.Addrs {
			instr, err := view.InstructionAt(fn, a)
			if err != nil {
				continue
			}
			items = append(items, instItem{address: a, text: instr.Text})
		}
		return functionMsg{fn: fn, items: items}
	}
}

func explainCmd(session *explain.Session, addr uint64) tea.Cmd {
	return func() tea.Msg {
		bundle, err := session.Explain(addr)
		return bundleMsg{bundle: bundle, err: err}
	}
}

type browseModel struct {
	filepath string
	view     *binview.ELFView
	session  *explain.Session
	fn       *binview.Function
	funcList list.Model
	instList list.Model
	viewport viewport.Model
	spinner  spinner.Model
	mode     browseMode
	loading  bool
	errText  string
	width    int
	height   int
}

func newBrowseModel(filepath string) browseModel {
	funcList := list.New([]list.Item{}, funcDelegate{}, 80, 22)
	funcList.SetShowStatusBar(false)
	funcList.SetFilteringEnabled(true)
	funcList.Title = "Functions"
	funcList.Styles.Title = browseTitleStyle
	funcList.SetShowHelp(true)

	instList := list.New([]list.Item{}, instDelegate{}, 80, 22)
	instList.SetShowStatusBar(false)
	instList.SetFilteringEnabled(true)
	instList.Title = "Instructions"
	instList.Styles.Title = browseTitleStyle
	instList.SetShowHelp(true)

	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(22)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))

	return browseModel{
		filepath: filepath,
		funcList: funcList,
		instList: instList,
		viewport: vp,
		spinner:  s,
		mode:     browseFunctions,
		loading:  true,
		width:    80,
		height:   24,
	}
}

func (m browseModel) Init() tea.Cmd {
	return tea.Batch(openViewCmd(m.filepath), m.spinner.Tick)
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case viewOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.view = msg.view
		m.session = explain.NewSession(msg.view)
		m.funcList.Title = fmt.Sprintf("Functions (%s, %d)", msg.view.ArchName(), len(msg.items))
		cmd = m.funcList.SetItems(msg.items)
		return m, cmd

	case functionMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.fn = msg.fn
		m.instList.Title = msg.fn.Demangled
		m.instList.ResetSelected()
		m.mode = browseInstructions
		cmd = m.instList.SetItems(msg.items)
		return m, cmd

	case bundleMsg:
		m.loading = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.viewport.SetContent(window.RenderBundle(msg.bundle))
		m.viewport.GotoTop()
		m.mode = browseExplain
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.funcList.SetSize(msg.Width, msg.Height-2)
		m.instList.SetSize(msg.Width, msg.Height-2)
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(msg.Height - 2)
		return m, nil

	case tea.KeyMsg:
		// Let the active list consume keys while its filter is open.
		if m.mode == browseFunctions && m.funcList.FilterState() == list.Filtering {
			break
		}
		if m.mode == browseInstructions && m.instList.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c":
			m.closeView()
			return m, tea.Quit

		case "q", "esc":
			m.errText = ""
			switch m.mode {
			case browseExplain:
				m.mode = browseInstructions
				return m, nil
			case browseInstructions:
				m.mode = browseFunctions
				return m, nil
			default:
				m.closeView()
				return m, tea.Quit
			}

		case "enter":
			m.errText = ""
			switch m.mode {
			case browseFunctions:
				if item, ok := m.funcList.SelectedItem().(funcItem); ok && m.view != nil {
					m.loading = true
					return m, tea.Batch(liftFunctionCmd(m.view, item.address), m.spinner.Tick)
				}
			case browseInstructions:
				if item, ok := m.instList.SelectedItem().(instItem); ok && m.session != nil {
					m.loading = true
					return m, tea.Batch(explainCmd(m.session, item.address), m.spinner.Tick)
				}
			}
			return m, nil
		}
	}

	switch m.mode {
	case browseFunctions:
		m.funcList, cmd = m.funcList.Update(msg)
	case browseInstructions:
		m.instList, cmd = m.instList.Update(msg)
	case browseExplain:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m *browseModel) closeView() {
	if m.view != nil {
		m.view.Close()
		m.view = nil
	}
}

func (m browseModel) View() string {
	var body string
	switch m.mode {
	case browseFunctions:
		body = m.funcList.View()
	case browseInstructions:
		body = m.instList.View()
	case browseExplain:
		body = m.viewport.View()
	}

	status := ""
	switch {
	case m.loading:
		status = fmt.Sprintf("%s Loading...", m.spinner.View())
	case m.errText != "":
		status = browseErrStyle.Render(m.errText)
	default:
		switch m.mode {
		case browseFunctions:
			status = browseFooterStyle.Render("  enter: disassemble  /: filter  q: quit")
		case browseInstructions:
			status = browseFooterStyle.Render("  enter: explain  /: filter  q: back")
		case browseExplain:
			status = browseFooterStyle.Render("  ↑/↓: scroll  q: back")
		}
	}
	return body + "\n" + status
}
