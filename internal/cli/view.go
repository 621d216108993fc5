package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
	"github.com/rwyengine/relmap/pkg/render"
	"github.com/rwyengine/relmap/pkg/session"
	"github.com/rwyengine/relmap/pkg/store"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// dragStep is how far one arrow key press moves a grabbed node, in layout
// units.
const dragStep = 10.0

// viewCommand creates the view command for interactive map exploration.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		mode string
		root int64
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore a relationship map interactively in the terminal",
		Long: `Explore a relationship map interactively in the terminal.

The view command opens the story database in a live session. Nodes can be
selected, grabbed, and dragged with the keyboard; in force mode the rest of
the layout keeps reacting around the dragged node. The current layout can be
exported to PNG at any time without leaving the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode == "" {
				mode = c.Config.Mode
			}
			m, err := layout.ParseMode(mode)
			if err != nil {
				return err
			}

			st, err := store.Open(c.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open database %s: %w", c.Config.DBPath, err)
			}
			defer st.Close()

			g, err := store.LoadGraph(cmd.Context(), st)
			if err != nil {
				return err
			}
			if g.NodeCount() == 0 {
				printInfo("database is empty; add entries with 'relmap entries add'")
				return nil
			}

			sess, err := session.Open(g, m, root, c.Config.Layout.Normalized())
			if err != nil {
				return err
			}

			model := newViewModel(sess, c.Config.DBPath)
			p := tea.NewProgram(model, tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			if vm, ok := final.(viewModel); ok && vm.exported != "" {
				printFile(vm.exported)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "layout mode: tree (default), force")
	cmd.Flags().Int64Var(&root, "root", 0, "tree root entry ID (0 = auto per component)")

	return cmd
}

// =============================================================================
// viewModel - Interactive Session Viewer
// =============================================================================

// tickMsg drives the force simulation between key events.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// viewModel is the bubbletea model wrapping a live layout session.
type viewModel struct {
	sess   *session.Session
	nodes  []*graph.Node
	dbPath string

	cursor   int
	grabbed  int64  // node under keyboard drag, 0 when browsing
	status   string // transient status line
	exported string // path of the last PNG export
	height   int
	offset   int
}

func newViewModel(sess *session.Session, dbPath string) viewModel {
	return viewModel{
		sess:   sess,
		nodes:  sess.Graph().Nodes(),
		dbPath: dbPath,
		height: 15,
	}
}

func (m viewModel) Init() tea.Cmd {
	return tick()
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.sess.Converged() {
			m.sess.Step()
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.height = msg.Height - 8
		if m.height < 5 {
			m.height = 5
		}
		return m, nil

	case tea.KeyMsg:
		if m.grabbed != 0 {
			return m.updateDrag(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateBrowse handles keys while no node is grabbed.
func (m viewModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
	case "down", "j":
		if m.cursor < len(m.nodes)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.height {
				m.offset = m.cursor - m.height + 1
			}
		}
	case "g", "enter":
		id := m.nodes[m.cursor].ID
		if err := m.sess.DragStart(id); err == nil {
			m.grabbed = id
			m.status = "dragging " + m.nodes[m.cursor].Label
		}
	case "u":
		id := m.nodes[m.cursor].ID
		m.sess.Unpin(id)
		m.status = "unpinned " + m.nodes[m.cursor].Label
	case "t":
		if err := m.sess.SetMode(layout.ModeTree); err == nil {
			m.status = "switched to tree layout"
		}
	case "f":
		if err := m.sess.SetMode(layout.ModeForce); err == nil {
			m.status = "switched to force layout"
		}
	case "e":
		return m.exportPNG()
	}
	return m, nil
}

// updateDrag handles keys while a node is grabbed. Arrow keys nudge the node;
// the simulation keeps running around it via the tick loop.
func (m viewModel) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var dx, dy float64
	switch msg.String() {
	case "up", "k":
		dy = -dragStep
	case "down", "j":
		dy = dragStep
	case "left", "h":
		dx = -dragStep
	case "right", "l":
		dx = dragStep
	case "g", "enter":
		_ = m.sess.DragEnd(m.grabbed)
		m.status = "dropped (still pinned; press u to release)"
		m.grabbed = 0
		return m, nil
	case "esc":
		m.sess.CancelDrag()
		m.status = "drag cancelled"
		m.grabbed = 0
		return m, nil
	case "q", "ctrl+c":
		m.sess.CancelDrag()
		return m, tea.Quit
	default:
		return m, nil
	}

	pos := m.sess.Snapshot()
	p := pos[m.grabbed]
	_ = m.sess.DragMove(m.grabbed, layout.Point{X: p.X + dx, Y: p.Y + dy})
	return m, nil
}

// exportPNG writes the current layout to <db>.png next to the database.
func (m viewModel) exportPNG() (tea.Model, tea.Cmd) {
	path := strings.TrimSuffix(m.dbPath, ".db") + ".png"
	opts := render.DefaultOptions()
	err := render.ExportPNG(m.sess.Graph(), m.sess.Snapshot(), path, opts)
	if err != nil {
		m.status = "export failed: " + err.Error()
		return m, nil
	}
	m.exported = path
	m.status = "exported " + path
	return m, nil
}

func (m viewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Relationship Map"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(m.statusLine()))
	b.WriteString("\n")
	if m.grabbed != 0 {
		b.WriteString(listDimStyle.Render("↑/↓/←/→ move  ⏎ drop  esc cancel"))
	} else {
		b.WriteString(listDimStyle.Render("↑/↓ select  ⏎ grab  u unpin  t/f mode  e export  q quit"))
	}
	b.WriteString("\n\n")

	pos := m.sess.Snapshot()

	end := m.offset + m.height
	if end > len(m.nodes) {
		end = len(m.nodes)
	}

	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		n := m.nodes[i]
		p := pos[n.ID]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		pinned := ""
		if n.ID == m.grabbed {
			pinned = "drag"
		} else if m.sess.Pinned(n.ID) {
			pinned = "pin"
		}

		rows = append(rows, []string{
			cursor,
			n.Label,
			n.Category.String(),
			fmt.Sprintf("%.0f, %.0f", p.X, p.Y),
			fmt.Sprintf("%d", m.sess.Graph().Degree(n.ID)),
			pinned,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Entry", "Category", "Position", "Links", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.offset + row
			if actualIdx == m.cursor {
				return listSelectedStyle
			}
			if col == 3 || col == 4 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.nodes))))
	if m.status != "" {
		b.WriteString(listDimStyle.Render("  " + m.status))
	}

	return b.String()
}

// statusLine summarizes the simulation state for the header.
func (m viewModel) statusLine() string {
	mode := string(m.sess.Mode())
	if mode == string(layout.ModeTree) {
		return mode
	}
	if m.sess.Converged() {
		return fmt.Sprintf("%s · settled after %d steps", mode, m.sess.Steps())
	}
	if m.sess.Diverged() {
		return fmt.Sprintf("%s · iteration cap reached", mode)
	}
	return fmt.Sprintf("%s · simulating (%d steps)", mode, m.sess.Steps())
}
