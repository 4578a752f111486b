package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SammySnake-d/markmap-sub002/pkg/mindmap"
	"github.com/SammySnake-d/markmap-sub002/pkg/parser"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Viewer styles
var (
	viewTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	viewCursorStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	viewDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	viewStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
)

// ensurePadding is the soft-scroll margin in layout pixels.
const ensurePadding = 20

// newViewCmd creates the interactive terminal viewer.
func newViewCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "view FILE.md",
		Short: "Browse a mindmap interactively in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			in, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}

			engine := mindmap.New(cfg.EngineOptions(), nil)
			engine.SetLogger(loggerFromContext(cmd.Context()))
			if err := engine.SetData(in); err != nil {
				return err
			}

			m := newViewModel(engine, args[0])
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// viewModel is the bubbletea model for the interactive viewer. Every fold or
// viewport keypress runs a full render pass, so the status line always shows
// the enter/update/exit partition of the last reconcile.
type viewModel struct {
	engine *mindmap.Mindmap
	input  string

	visible []*tree.Node
	cursor  int
	offset  int

	width  int
	height int

	frame *mindmap.Frame
	err   error
}

func newViewModel(engine *mindmap.Mindmap, input string) viewModel {
	m := viewModel{engine: engine, input: input, height: 24, width: 80}
	m.rerender()
	return m
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

// rerender runs a render pass and refreshes the visible-node list.
func (m *viewModel) rerender() {
	frame, err := m.engine.RenderData()
	if err != nil {
		m.err = err
		return
	}
	m.frame = frame
	m.visible = tree.Visible(m.engine.Root())
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// cursorNode returns the node under the cursor, nil on an empty tree.
func (m *viewModel) cursorNode() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

// follow scrolls both the list window and the layout viewport to the cursor.
func (m *viewModel) follow() {
	listHeight := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+listHeight {
		m.offset = m.cursor - listHeight + 1
	}
	m.engine.EnsureVisible(m.cursorNode(), ensurePadding)
}

// listHeight is the number of node rows that fit between header and status.
func (m *viewModel) listHeight() int {
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.engine.SetViewport(float64(msg.Width), float64(msg.Height))
		m.engine.Fit()
		m.follow()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit

		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			m.follow()
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.follow()

		case " ", "enter":
			m.engine.Toggle(m.cursorNode(), false)
			m.rerender()
			m.follow()
		case "R":
			m.engine.Toggle(m.cursorNode(), true)
			m.rerender()
			m.follow()
		case "e":
			m.engine.ExpandAll(nil)
			m.rerender()
			m.follow()
		case "c":
			m.engine.CollapseAll(nil)
			m.rerender()
			m.follow()

		case "f":
			m.engine.Fit()
		case "C":
			m.engine.CenterNode(m.cursorNode())
		case "z", "+":
			vp := m.engine.View().Viewport()
			m.engine.View().Zoom(1.25, vp.Width/2, vp.Height/2)
		case "Z", "-":
			vp := m.engine.View().Viewport()
			m.engine.View().Zoom(0.8, vp.Width/2, vp.Height/2)
		case "left", "h":
			m.engine.View().Pan(40, 0)
		case "right", "l":
			m.engine.View().Pan(-40, 0)
		}
	}
	return m, nil
}

func (m viewModel) View() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n"
	}

	var b strings.Builder
	b.WriteString(viewTitleStyle.Render(m.input))
	b.WriteString("\n")
	b.WriteString(viewDimStyle.Render("j/k move  ␣ toggle  R recursive  e/c expand/collapse  f fit  z/Z zoom  q quit"))
	b.WriteString("\n")

	end := m.offset + m.listHeight()
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderLine(i))
		b.WriteString("\n")
	}

	b.WriteString(viewStatusStyle.Render(m.statusLine()))
	return b.String()
}

// renderLine formats one visible node: indent, fold marker, branch color.
func (m viewModel) renderLine(i int) string {
	n := m.visible[i]

	marker := "•"
	if n.HasChildren() {
		if n.Folded() {
			marker = "▸"
		} else {
			marker = "▾"
		}
	}

	line := strings.Repeat("  ", n.State.Depth-1) + marker + " " + n.Content
	if n.Folded() && n.HasChildren() {
		line += viewDimStyle.Render(fmt.Sprintf(" (+%d)", tree.Count(n)-1))
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.engine.Options().ColorOf(n)))
	if i == m.cursor {
		style = viewCursorStyle
	}
	return style.Render(line)
}

// statusLine summarizes the last render pass and the current transform.
func (m viewModel) statusLine() string {
	if m.frame == nil {
		return " no render yet"
	}
	entering, updating, exiting := m.frame.Diff.Counts()
	t := m.engine.View().Current()
	return fmt.Sprintf(" gen %d  +%d ~%d -%d  nodes %d  zoom %.2f  pan (%.0f, %.0f)",
		m.frame.Generation, entering, updating, exiting, len(m.visible), t.K, t.X, t.Y)
}
