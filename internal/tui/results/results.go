package results

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/minalite/internal/database"
	"github.com/joacominatel/minalite/internal/tui/theme"
)

const maxColWidth = 40

// Model is the query results component.
type Model struct {
	result    *database.QueryResult
	err       error
	width     int
	height    int
	focused   bool
	scrollY   int
	scrollX   int
	cursorX   int
	cursorY   int
	loading   bool
	colWidths []int

	lastQuery     string
	statusMessage string
	exportDir     string
}

// New creates a new results model.
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

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetLastQuery remembers the statement that produced the current result.
// Filter and delete helpers derive the table name from it.
func (m *Model) SetLastQuery(q string) {
	m.lastQuery = q
}

// SetExportDir sets where exports are written. Empty means the working directory.
func (m *Model) SetExportDir(dir string) {
	m.exportDir = dir
}

// Result returns the result currently displayed.
func (m Model) Result() *database.QueryResult {
	return m.result
}

// SetResult sets the query result to display.
func (m *Model) SetResult(r *database.QueryResult) {
	m.result = r
	m.err = nil
	m.scrollY = 0
	m.scrollX = 0
	m.cursorX = 0
	m.cursorY = 0
	m.statusMessage = ""
	m.loading = false
	m.calculateColumnWidths()
}

// SetError sets an error to display.
func (m *Model) SetError(err error) {
	m.err = err
	m.result = nil
	m.scrollY = 0
	m.statusMessage = ""
	m.loading = false
}

func (m *Model) calculateColumnWidths() {
	if m.result == nil || len(m.result.Columns) == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.result.Columns))

	// Use display width (not byte length) for accurate measurement
	for i, col := range m.result.Columns {
		m.colWidths[i] = lipgloss.Width(col)
	}

	for r := range m.result.Rows {
		for i := range m.colWidths {
			w := lipgloss.Width(flatten(m.result.Cell(r, i)))
			if w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}

	// Enforce minimum of 1 and cap at 40
	for i := range m.colWidths {
		if m.colWidths[i] < 1 {
			m.colWidths[i] = 1
		}
		if m.colWidths[i] > maxColWidth {
			m.colWidths[i] = maxColWidth
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.result == nil {
		return m, nil
	}

	rows := len(m.result.Rows)
	cols := len(m.result.Columns)
	page := max(1, m.visibleRows())

	switch keyMsg.String() {
	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)
	case "pgup":
		m.moveCursor(0, -page)
	case "pgdown":
		m.moveCursor(0, page)
	case "home", "g":
		m.cursorY = 0
		m.ensureVisible()
	case "end", "G":
		m.cursorY = max(0, rows-1)
		m.ensureVisible()
	case "0":
		m.cursorX = 0
		m.ensureVisible()
	case "$":
		m.cursorX = max(0, cols-1)
		m.ensureVisible()

	case "y":
		m.doCopyCell()
	case "Y":
		m.doCopyRowJSON()
	case "C":
		m.doCopyRowCSV()
	case "T":
		m.doCopyRowText()
	case "f":
		return m, m.doFilterByValue()
	case "D":
		return m, m.doGenerateDelete()
	case "e":
		return m, m.exportJSONCmd()
	case "E":
		return m, m.exportCSVCmd()
	}

	return m, nil
}

func (m *Model) moveCursor(dx, dy int) {
	if m.result == nil {
		return
	}
	m.cursorX = clamp(m.cursorX+dx, 0, len(m.result.Columns)-1)
	m.cursorY = clamp(m.cursorY+dy, 0, len(m.result.Rows)-1)
	m.statusMessage = ""
	m.ensureVisible()
}

// ensureVisible scrolls so the cursor cell is on screen.
func (m *Model) ensureVisible() {
	visible := max(1, m.visibleRows())
	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+visible {
		m.scrollY = m.cursorY - visible + 1
	}
	if m.cursorX < m.scrollX {
		m.scrollX = m.cursorX
	}
	for m.scrollX < m.cursorX && !m.columnFits(m.cursorX) {
		m.scrollX++
	}
}

// columnFits reports whether col is fully drawn when rendering from scrollX.
func (m Model) columnFits(col int) bool {
	if m.width <= 0 {
		return true
	}
	used := 2
	for i := m.scrollX; i <= col && i < len(m.colWidths); i++ {
		if i > m.scrollX {
			used += 3
		}
		used += m.colWidths[i]
	}
	return used <= m.width
}

func (m Model) visibleRows() int {
	// title, header, separator, status line
	return m.height - 4
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

// Message returns the last action feedback, if any.
func (m Model) Message() string {
	return m.statusMessage
}

// View renders the results pane.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	if m.loading {
		return titleStyle.Render("Results") + "\n" + theme.StyleMuted.Render("  Executing...")
	}

	if m.err != nil {
		return titleStyle.Render("Results") + "\n" +
			theme.StyleError.Render("  Error: "+m.err.Error())
	}

	if m.result == nil {
		return titleStyle.Render("Results") + "\n" +
			theme.StyleMuted.Render("  Execute a query to see results")
	}

	// Header with stats
	stats := fmt.Sprintf("%d row(s) | %s",
		m.result.RowCount,
		m.result.Duration.Round(time.Microsecond).String(),
	)
	if m.result.IsWrite() {
		stats = fmt.Sprintf("%s row(s) affected | %s",
			m.result.Cell(0, 0),
			m.result.Duration.Round(time.Microsecond).String(),
		)
	}
	header := titleStyle.Render("Results") + "  " +
		theme.StyleMuted.Render(stats)

	if m.result.IsWrite() {
		return header + "\n" + theme.StyleSuccess.Render("  Statement executed successfully")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")

	last := m.lastVisibleColumn()

	// Render table header
	b.WriteString(m.renderHeader(last))
	b.WriteString("\n")

	// Separator
	b.WriteString(m.renderSeparator(last))

	if len(m.result.Rows) == 0 {
		b.WriteString("\n")
		b.WriteString(theme.StyleMuted.Render("  (no rows)"))
	}

	// Visible rows
	visibleRows := max(1, m.visibleRows())
	for i := m.scrollY; i < len(m.result.Rows) && i < m.scrollY+visibleRows; i++ {
		b.WriteString("\n")
		b.WriteString(m.renderRow(i, last))
	}

	if m.statusMessage != "" {
		b.WriteString("\n")
		b.WriteString(theme.StyleMuted.Render("  " + m.statusMessage))
	}

	return b.String()
}

// lastVisibleColumn returns the index of the last column that fits from scrollX.
func (m Model) lastVisibleColumn() int {
	last := m.scrollX
	for last+1 < len(m.colWidths) && m.columnFits(last+1) {
		last++
	}
	return last
}

func (m Model) renderHeader(last int) string {
	parts := make([]string, 0, last-m.scrollX+1)
	for i := m.scrollX; i <= last && i < len(m.result.Columns); i++ {
		display := fitCell(m.result.Columns[i], m.colWidths[i])
		parts = append(parts, lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorPrimary).
			Render(display))
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderRow(row, last int) string {
	parts := make([]string, 0, last-m.scrollX+1)
	for i := m.scrollX; i <= last && i < len(m.colWidths); i++ {
		display := fitCell(m.result.Cell(row, i), m.colWidths[i])
		switch {
		case m.focused && row == m.cursorY && i == m.cursorX:
			display = theme.StyleCursor.Render(display)
		case m.result.IsNull(row, i):
			display = theme.StyleNull.Render(display)
		}
		parts = append(parts, display)
	}
	return "  " + strings.Join(parts, " │ ")
}

// fitCell truncates or pads cell to exactly width display cells.
func fitCell(cell string, width int) string {
	if width < 1 {
		width = 1
	}
	display := flatten(cell)
	displayWidth := lipgloss.Width(display)

	// Truncate if display is wider than column
	if displayWidth > width {
		runes := []rune(display)
		if width > 1 && len(runes) > 0 {
			// Trim runes until we fit (accounting for the ellipsis)
			trimmed := runes
			for lipgloss.Width(string(trimmed)) >= width && len(trimmed) > 0 {
				trimmed = trimmed[:len(trimmed)-1]
			}
			display = string(trimmed) + "…"
		} else {
			display = "…"
		}
		displayWidth = lipgloss.Width(display)
	}

	// Pad to column width; guard against negative (never panic)
	if pad := width - displayWidth; pad > 0 {
		display += strings.Repeat(" ", pad)
	}
	return display
}

// flatten keeps multi-line values on one grid line.
func flatten(cell string) string {
	return strings.ReplaceAll(cell, "\n", "↵")
}

func (m Model) renderSeparator(last int) string {
	parts := make([]string, 0, last-m.scrollX+1)
	for i := m.scrollX; i <= last && i < len(m.colWidths); i++ {
		parts = append(parts, strings.Repeat("─", max(1, m.colWidths[i])))
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}
