package explorer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/joacominatel/minalite/internal/app"
	"github.com/joacominatel/minalite/internal/database"
	"github.com/joacominatel/minalite/internal/database/sqlite"
	"github.com/joacominatel/minalite/internal/tui/theme"
)

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeGroup
	NodeTable
	NodeColumn
)

const (
	groupTables = "tables"
	groupViews  = "views"
)

// quickSelectLimit bounds the rows fetched by the quick select shortcut.
const quickSelectLimit = 100

// TreeNode represents a single node in the schema tree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TreeNode
	Expanded bool
	Loaded   bool // whether children have been fetched

	// Metadata
	Table    string // parent table name (for columns)
	DataType string // column data type
	Primary  bool
	NotNull  bool
	RowCount *int64 // table row count, nil until described or when counting failed
	Indexes  int
}

// flatItem is a visible item in the flattened tree view.
type flatItem struct {
	node  *TreeNode
	depth int
}

// Model is the explorer (schema tree) component.
type Model struct {
	tree    *TreeNode
	items   []flatItem
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// QuickQueryMsg asks the app to run a generated query for the selected table.
type QuickQueryMsg struct {
	Query string
}

// RefreshMsg asks the app to reload the schema tree.
type RefreshMsg struct{}

// New creates a new explorer model.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the explorer has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetTree populates the explorer from a schema tree.
// Previously expanded tables are reset; their details are fetched again on expand.
func (m *Model) SetTree(schema *app.SchemaTree) {
	root := &TreeNode{
		Kind:     NodeDatabase,
		Name:     schema.Database,
		Expanded: true,
		Loaded:   true,
	}

	root.Children = append(root.Children,
		groupNode(groupTables, schema.Tables, true),
		groupNode(groupViews, schema.Views, false),
	)

	m.tree = root
	m.flatten()
	m.loading = false
}

func groupNode(name string, tables []string, expanded bool) *TreeNode {
	group := &TreeNode{
		Kind:     NodeGroup,
		Name:     name,
		Expanded: expanded,
		Loaded:   true,
	}
	for _, t := range tables {
		group.Children = append(group.Children, &TreeNode{
			Kind: NodeTable,
			Name: t,
		})
	}
	return group
}

// SetTableInfo adds column nodes and the row count to a table node.
func (m *Model) SetTableInfo(info *database.TableInfo) {
	if m.tree == nil || info == nil {
		return
	}
	m.visitTable(info.Name, func(node *TreeNode) {
		node.Children = nil
		for _, col := range info.Columns {
			node.Children = append(node.Children, &TreeNode{
				Kind:     NodeColumn,
				Name:     col.Name,
				Table:    info.Name,
				DataType: col.DataType,
				Primary:  col.IsPrimary,
				NotNull:  !col.IsNullable,
			})
		}
		node.RowCount = info.RowCount
		node.Indexes = len(info.Indexes)
		node.Loaded = true
	})
	m.flatten()
}

// MarkFailed collapses a table whose description could not be loaded so the
// next expand retries.
func (m *Model) MarkFailed(table string) {
	m.visitTable(table, func(node *TreeNode) {
		node.Expanded = false
		node.Loaded = false
	})
	m.flatten()
}

func (m *Model) visitTable(table string, fn func(*TreeNode)) {
	if m.tree == nil {
		return
	}
	for _, g := range m.tree.Children {
		for _, t := range g.Children {
			if t.Name == table {
				fn(t)
				return
			}
		}
	}
}

// SelectedTable returns the table name of the currently selected table or column node, if any.
func (m Model) SelectedTable() (table string, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", false
	}
	node := m.items[m.cursor].node
	switch node.Kind {
	case NodeTable:
		return node.Name, true
	case NodeColumn:
		return node.Table, true
	}
	return "", false
}

// flatten rebuilds the flat item list from the tree.
func (m *Model) flatten() {
	m.items = nil
	if m.tree != nil {
		m.flattenNode(m.tree, 0)
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m *Model) flattenNode(node *TreeNode, depth int) {
	m.items = append(m.items, flatItem{node: node, depth: depth})
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child, depth+1)
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", "right", "l":
			return m, m.toggleExpand()
		case "left", "h":
			return m, m.collapse()
		case "s":
			return m, m.quickQuery(func(quoted string) string {
				return fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoted, quickSelectLimit)
			})
		case "d":
			return m, m.quickQuery(func(quoted string) string {
				return "SELECT COUNT(*) FROM " + quoted
			})
		case "r":
			return m, func() tea.Msg { return RefreshMsg{} }
		}
	}

	return m, nil
}

// quickQuery builds a query from the quoted name of the selected table.
func (m Model) quickQuery(build func(quoted string) string) tea.Cmd {
	table, ok := m.SelectedTable()
	if !ok {
		return nil
	}
	query := build(sqlite.QuoteIdent(table))
	return func() tea.Msg {
		return QuickQueryMsg{Query: query}
	}
}

func (m *Model) toggleExpand() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node

	// Columns have no children
	if node.Kind == NodeColumn {
		return nil
	}

	if node.Expanded {
		node.Expanded = false
		m.flatten()
		return nil
	}

	node.Expanded = true
	m.flatten()

	// If this is a table and columns aren't loaded yet, request them
	if node.Kind == NodeTable && !node.Loaded {
		table := node.Name
		return func() tea.Msg {
			return requestDescribeMsg{Table: table}
		}
	}

	return nil
}

func (m *Model) collapse() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node

	if node.Expanded {
		node.Expanded = false
		m.flatten()
	}
	return nil
}

// requestDescribeMsg is sent when a table is expanded and needs column data.
type requestDescribeMsg struct {
	Table string
}

// IsRequestDescribeMsg reports whether msg asks for a table description.
func IsRequestDescribeMsg(msg tea.Msg) (table string, ok bool) {
	if m, ok := msg.(requestDescribeMsg); ok {
		return m.Table, true
	}
	return "", false
}

// View renders the explorer.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	title := titleStyle.Render("Schema Explorer")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}

	if m.tree == nil {
		return title + "\n" + theme.StyleMuted.Render("  No database")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	// Calculate visible area
	visibleHeight := m.height - 2 // title + padding
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	// Scroll offset to keep cursor visible
	scrollOffset := 0
	if m.cursor >= visibleHeight {
		scrollOffset = m.cursor - visibleHeight + 1
	}

	for i := scrollOffset; i < len(m.items) && i < scrollOffset+visibleHeight; i++ {
		item := m.items[i]
		line := m.renderNode(item, i == m.cursor)
		b.WriteString(line)
		if i < scrollOffset+visibleHeight-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) renderNode(item flatItem, selected bool) string {
	node := item.node
	indent := strings.Repeat("  ", item.depth)

	icon := "▶ "
	if node.Expanded {
		icon = "▼ "
	}
	if node.Kind == NodeColumn {
		icon = "  "
	}

	muted := lipgloss.NewStyle().Foreground(theme.ColorMuted)
	name := node.Name
	switch node.Kind {
	case NodeGroup:
		name = fmt.Sprintf("%s %s", node.Name, muted.Render(fmt.Sprintf("(%d)", len(node.Children))))
	case NodeTable:
		if node.RowCount != nil {
			name = fmt.Sprintf("%s %s", node.Name, muted.Render(fmt.Sprintf("%d rows", *node.RowCount)))
		}
	case NodeColumn:
		name = node.Name + columnSuffix(node, muted)
	}

	line := indent + icon + name

	// Truncate to width
	if m.width > 0 && lipgloss.Width(line) > m.width-2 {
		line = ansi.Truncate(line, m.width-2, "..")
	}

	if selected {
		return lipgloss.NewStyle().
			Foreground(theme.ColorHighlight).
			Bold(true).
			Render(line)
	}

	return line
}

func columnSuffix(node *TreeNode, muted lipgloss.Style) string {
	var parts []string
	if node.DataType != "" {
		parts = append(parts, node.DataType)
	}
	if node.Primary {
		parts = append(parts, "PK")
	}
	if node.NotNull {
		parts = append(parts, "NN")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + muted.Render(strings.Join(parts, " "))
}
