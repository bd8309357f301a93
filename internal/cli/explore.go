package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/pkg/graph"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
	"github.com/jsonflow/jsonflow/pkg/view"
)

// Tree styles
var (
	treeSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	treeNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	treeMatchStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	treeDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	detailPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// detailContentLines is the fixed content height of the detail pane.
const detailContentLines = 8

// exploreCommand creates the explore command for interactive terminal browsing.
func (c *CLI) exploreCommand() *cobra.Command {
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "explore [document.json]",
		Short: "Explore a JSON document interactively in the terminal",
		Long: `Explore a JSON document interactively in the terminal.

explore builds the document graph and opens a scrollable tree of its
visible nodes. Collapsing a node hides its whole subtree, using the same
visibility rules the SVG and JSON outputs follow.

Keys:
  up/k, down/j    move the cursor
  pgup, pgdown    move a page at a time
  enter, space    collapse or expand the node under the cursor
  d               toggle the node detail pane
  /               search ids and values; enter confirms, esc cancels
  n / N           jump to the next / previous match
  c               collapse every branch node
  e               expand everything
  q, ctrl+c       quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.MaxNodes, "max-nodes", 0, "maximum graph nodes (default 10000)")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "maximum nesting depth (default 512)")

	return cmd
}

// runExplore builds the graph and runs the TUI event loop.
func (c *CLI) runExplore(ctx context.Context, input string, opts pipeline.Options) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read document %s: %w", input, err)
	}

	runner := c.newRunner()
	defer runner.Close()

	opts.Source = filepath.Base(input)
	opts.Logger = c.Logger

	g, err := runner.Build(ctx, data, opts)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	p := tea.NewProgram(newExploreModel(opts.Source, g), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// =============================================================================
// exploreModel - Interactive Tree
// =============================================================================

// exploreRow is one visible line of the tree.
type exploreRow struct {
	id          string
	depth       int
	label       string
	hasChildren bool
}

// exploreModel is the bubbletea model for the document tree.
type exploreModel struct {
	source  string
	graph   *graph.Graph
	tracker *view.Tracker

	rows   []exploreRow
	cursor int

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	searching bool
	query     string
	matches   []int
	matchSet  map[int]struct{}
	matchPos  int

	showDetail bool
}

func newExploreModel(source string, g *graph.Graph) exploreModel {
	m := exploreModel{
		source:   source,
		graph:    g,
		tracker:  view.NewTracker(g),
		matchSet: make(map[int]struct{}),
	}
	m.rows = buildRows(g, m.tracker)
	return m
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "pgup":
			m.moveCursor(-m.viewport.Height)
		case "pgdown":
			m.moveCursor(m.viewport.Height)
		case "home", "g":
			m.moveCursor(-len(m.rows))
		case "end", "G":
			m.moveCursor(len(m.rows))
		case "enter", " ":
			m.toggleCursor()
		case "c":
			m.tracker.CollapseAll()
			m.rebuildRows()
		case "e":
			m.tracker.Reset()
			m.rebuildRows()
		case "d":
			m.showDetail = !m.showDetail
			m.resize()
		case "/":
			m.searching = true
			m.query = ""
			m.refreshMatches()
			m.syncViewport()
		case "n":
			m.jumpMatch(1)
		case "N":
			m.jumpMatch(-1)
		}
		return m, nil
	}
	return m, nil
}

// updateSearch handles keys while the search prompt is active.
func (m exploreModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.query = ""
		m.refreshMatches()
		m.syncViewport()
	case "enter":
		m.searching = false
	case "backspace":
		if m.query != "" {
			runes := []rune(m.query)
			m.query = string(runes[:len(runes)-1])
			m.searchJump()
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.query += string(msg.Runes)
			m.searchJump()
		}
	}
	return m, nil
}

func (m exploreModel) View() string {
	if !m.ready {
		return "\n  loading..."
	}
	sections := []string{m.headerView(), m.viewport.View()}
	if m.showDetail {
		sections = append(sections, m.detailView())
	}
	sections = append(sections, m.footerView())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Model Internals
// =============================================================================

// resize recomputes the viewport dimensions from the window size and the
// fixed chrome around it (two header lines, one footer line, and the
// detail pane when open).
func (m *exploreModel) resize() {
	chrome := 3
	if m.showDetail {
		chrome += detailContentLines + 2
	}
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, h)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = h
	}
	m.syncViewport()
}

// moveCursor shifts the cursor by delta rows, clamped to the row range.
func (m *exploreModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.syncViewport()
}

// toggleCursor flips the collapse state of the node under the cursor.
// Leaves have nothing to hide and stay untouched.
func (m *exploreModel) toggleCursor() {
	if m.cursor >= len(m.rows) || !m.rows[m.cursor].hasChildren {
		return
	}
	m.tracker.Toggle(m.rows[m.cursor].id)
	m.rebuildRows()
}

// rebuildRows recomputes the visible rows after a visibility change,
// keeping the cursor on the same node when it survives.
func (m *exploreModel) rebuildRows() {
	var keep string
	if m.cursor < len(m.rows) {
		keep = m.rows[m.cursor].id
	}
	m.rows = buildRows(m.graph, m.tracker)
	m.cursor = 0
	for i, row := range m.rows {
		if row.id == keep {
			m.cursor = i
			break
		}
	}
	m.refreshMatches()
	m.syncViewport()
}

// refreshMatches recomputes the match set for the current query.
func (m *exploreModel) refreshMatches() {
	m.matches = m.matches[:0]
	m.matchSet = make(map[int]struct{})
	if m.query == "" {
		m.matchPos = 0
		return
	}
	q := strings.ToLower(m.query)
	for i, row := range m.rows {
		if strings.Contains(strings.ToLower(row.id), q) || strings.Contains(strings.ToLower(row.label), q) {
			m.matches = append(m.matches, i)
			m.matchSet[i] = struct{}{}
		}
	}
	if m.matchPos >= len(m.matches) {
		m.matchPos = 0
	}
}

// searchJump refreshes matches for an edited query and moves the cursor to
// the first match.
func (m *exploreModel) searchJump() {
	m.refreshMatches()
	if len(m.matches) > 0 {
		m.matchPos = 0
		m.cursor = m.matches[0]
	}
	m.syncViewport()
}

// jumpMatch advances the cursor to the next or previous match.
func (m *exploreModel) jumpMatch(dir int) {
	if len(m.matches) == 0 {
		return
	}
	m.matchPos = ((m.matchPos+dir)%len(m.matches) + len(m.matches)) % len(m.matches)
	m.cursor = m.matches[m.matchPos]
	m.syncViewport()
}

// syncViewport re-renders the tree into the viewport and keeps the cursor
// line scrolled into view. Each row renders as exactly one line, so row
// index equals line index.
func (m *exploreModel) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderRows())
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func (m *exploreModel) renderRows() string {
	var b strings.Builder
	for i, row := range m.rows {
		marker := "  "
		if row.hasChildren {
			if m.tracker.IsCollapsed(row.id) {
				marker = "▸ "
			} else {
				marker = "▾ "
			}
		}
		line := strings.Repeat("  ", row.depth) + marker + row.label

		style := treeNormalStyle
		if i == m.cursor {
			style = treeSelectedStyle
		} else if _, ok := m.matchSet[i]; ok {
			style = treeMatchStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Views
// =============================================================================

func (m exploreModel) headerView() string {
	title := StyleTitle.Render("jsonflow explore") + "  " + treeDimStyle.Render(m.source)
	hints := treeDimStyle.Render("j/k move · enter toggle · / search · n/N match · d detail · c/e fold/unfold all · q quit")
	return title + "\n" + hints
}

func (m exploreModel) footerView() string {
	if m.searching {
		return " " + StyleHighlight.Render("/"+m.query) + treeDimStyle.Render("▌  enter confirm · esc cancel")
	}

	parts := []string{
		fmt.Sprintf("[%d/%d]", m.cursor+1, len(m.rows)),
		fmt.Sprintf("%d nodes", m.graph.NodeCount()),
	}
	if n := len(m.tracker.CollapsedIDs()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d collapsed", n))
	}
	if m.query != "" {
		parts = append(parts, fmt.Sprintf("%d matches for %q", len(m.matches), m.query))
	}
	return treeDimStyle.Render(" " + strings.Join(parts, " · "))
}

func (m exploreModel) detailView() string {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	style := detailPaneStyle.Width(width).Height(detailContentLines)

	if len(m.rows) == 0 {
		return style.Render(treeDimStyle.Render("no visible nodes"))
	}
	n, ok := m.graph.Node(m.rows[m.cursor].id)
	if !ok {
		return style.Render(treeDimStyle.Render("node not found"))
	}

	var b strings.Builder
	b.WriteString(StyleHighlight.Render(n.ID) + "\n")
	b.WriteString(treeDimStyle.Render(fmt.Sprintf("kind %s · depth %d · %d children",
		n.Kind, n.Depth, len(m.graph.Children(n.ID)))) + "\n")

	if n.Primitive != nil {
		b.WriteString(treeDimStyle.Render(string(n.Primitive.Type)+" ") + StyleValue.Render(n.Primitive.Text))
		return style.Render(b.String())
	}

	for i, row := range n.Rows {
		if i >= detailContentLines-3 {
			b.WriteString(treeDimStyle.Render(fmt.Sprintf("… %d more", len(n.Rows)-i)))
			break
		}
		if row.Key != "" {
			b.WriteString(StyleValue.Render(row.Key) + treeDimStyle.Render(": ") + row.Preview + "\n")
		} else {
			b.WriteString(row.Preview + "\n")
		}
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

// =============================================================================
// Row Construction
// =============================================================================

// buildRows flattens the currently visible nodes into display rows. Graph
// order is the builder's depth-first emission order, so children always
// directly follow their parent at one more indent level.
func buildRows(g *graph.Graph, t *view.Tracker) []exploreRow {
	visible := t.VisibleNodes()
	rows := make([]exploreRow, 0, len(visible))
	for _, n := range visible {
		rows = append(rows, exploreRow{
			id:          n.ID,
			depth:       n.Depth,
			label:       nodeLabel(g, n),
			hasChildren: len(g.Children(n.ID)) > 0,
		})
	}
	return rows
}

// nodeLabel renders one tree line: the node's last path segment plus a
// short value summary.
func nodeLabel(g *graph.Graph, n *graph.Node) string {
	seg := segmentLabel(g, n)
	switch n.Base {
	case graph.KindObject:
		return fmt.Sprintf("%s  {%d}", seg, len(n.Rows))
	case graph.KindArray:
		if len(n.Rows) > 0 {
			return seg + "  " + n.Rows[0].Preview
		}
		return seg + "  [0]"
	default:
		if n.Primitive != nil {
			return seg + "  " + n.Primitive.Text
		}
		return seg
	}
}

// segmentLabel is the last path segment of a node id: the property key,
// the bracketed array index, or $ for the root.
func segmentLabel(g *graph.Graph, n *graph.Node) string {
	if n.IsRoot() {
		return graph.RootID
	}
	parent, ok := g.Parent(n.ID)
	if !ok {
		return n.ID
	}
	return strings.TrimPrefix(strings.TrimPrefix(n.ID, parent), ".")
}
