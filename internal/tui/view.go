package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/minalite/internal/app"
	"github.com/joacominatel/minalite/internal/tui/theme"
)

// recentEvents is how many connection attempts the start screen lists.
const recentEvents = 3

// View renders the entire application.
func (m Model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}

	switch m.mode {
	case ModeSelectConnection:
		return m.viewSelectConnection()
	case ModeConnect:
		return m.viewConnect()
	default:
		return m.viewMain()
	}
}

func (m Model) header() []string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(1, 0)
	subtitleStyle := lipgloss.NewStyle().Foreground(theme.ColorMuted)

	return []string{
		"",
		titleStyle.Render("minalite"),
		subtitleStyle.Render("Local SQLite, terminal-native."),
	}
}

func (m Model) errorLine() string {
	if m.err == nil {
		return ""
	}
	return theme.StyleError.Render("  Error: " + m.err.Error())
}

// statsLines summarizes the connection tracker.
func (m Model) statsLines() []string {
	stats := m.service.Stats()
	if stats.Total == 0 {
		return nil
	}
	lines := []string{
		theme.StyleMuted.Render(fmt.Sprintf("  %d opened · %d ok · %d failed",
			stats.Total, stats.Successful, stats.Failed)),
	}
	for _, ev := range m.service.RecentConnections(recentEvents) {
		style := theme.StyleSuccess
		if ev.Type != app.EventSuccess {
			style = theme.StyleError
		}
		lines = append(lines, "  "+style.Render("●")+" "+theme.StyleMuted.Render(
			ev.Timestamp.Local().Format("Jan 02 15:04")+"  "+ev.Path))
	}
	return lines
}

func (m Model) viewSelectConnection() string {
	highlight := lipgloss.NewStyle().
		Foreground(theme.ColorHighlight).
		Bold(true)

	parts := m.header()
	parts = append(parts, "", theme.StyleTitle.Render("Recent Databases"))

	for i, conn := range m.cfg.Connections {
		label := fmt.Sprintf("%s (%s)", conn.Name, conn.DisplayString())
		if i == m.connCursor {
			parts = append(parts, highlight.Render("> "+label))
		} else {
			parts = append(parts, "  "+label)
		}
	}

	// "Open file" option
	newLabel := "  [Open File]"
	if m.connCursor == len(m.cfg.Connections) {
		newLabel = highlight.Render("> [Open File]")
	}
	parts = append(parts, "", newLabel)

	if errMsg := m.errorLine(); errMsg != "" {
		parts = append(parts, "", errMsg)
	}
	if stats := m.statsLines(); len(stats) > 0 {
		parts = append(parts, "")
		parts = append(parts, stats...)
	}

	parts = append(parts, "", theme.StyleMuted.Render("  ↑/↓: Navigate  Enter: Open  n: Other file  q: Quit"))

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) viewConnect() string {
	parts := m.header()
	parts = append(parts,
		"",
		lipgloss.NewStyle().Foreground(theme.ColorPrimary).Render("Database file:"),
		"  "+m.connInput.View(),
	)

	if errMsg := m.errorLine(); errMsg != "" {
		parts = append(parts, "", errMsg)
	}

	backHint := ""
	if len(m.cfg.Connections) > 0 {
		backHint = "Esc: Back │ "
	}
	parts = append(parts, "", theme.StyleMuted.Render("  "+backHint+"Enter: Open │ Ctrl+C: Quit"))

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) border(pane Pane) lipgloss.Style {
	if m.activePane == pane {
		return theme.StyleActiveBorder
	}
	return theme.StyleBorder
}

func (m Model) viewMain() string {
	explorerWidth, rightWidth, availHeight, editorHeight := m.paneSizes()
	availHeight -= 2 // borders
	resultsHeight := availHeight - editorHeight - 2

	explorerView := m.border(PaneExplorer).
		Width(explorerWidth - 2).
		Height(availHeight).
		Render(m.explorer.View())

	editorView := m.border(PaneEditor).
		Width(rightWidth - 2).
		Height(editorHeight).
		Render(m.editor.View())

	resultsView := m.border(PaneResults).
		Width(rightWidth - 2).
		Height(max(resultsHeight, 1)).
		Render(m.results.View())

	rightPane := lipgloss.JoinVertical(lipgloss.Left,
		editorView,
		resultsView,
	)

	mainArea := lipgloss.JoinHorizontal(lipgloss.Top,
		explorerView,
		rightPane,
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		mainArea,
		m.statusbar.View(),
	)
}

type helpEntry struct {
	keys string
	desc string
}

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Global", []helpEntry{
		{"q / Ctrl+C", "Quit application"},
		{"Tab", "Switch between panes"},
		{"Shift+Tab", "Switch panes (reverse)"},
		{"?", "Toggle this help"},
	}},
	{"Explorer", []helpEntry{
		{"↑/k  ↓/j", "Navigate up/down"},
		{"Enter/→/l", "Expand item (loads columns and row count)"},
		{"←/h", "Collapse item"},
		{"s", "Quick SELECT * LIMIT 100"},
		{"d", "Count rows"},
		{"r", "Reload schema"},
	}},
	{"Editor", []helpEntry{
		{"Ctrl+E / F5", "Execute statement"},
		{"Ctrl+K", "Clear editor"},
		{"Ctrl+L", "Format query (uppercase keywords)"},
		{"Ctrl+P / Ctrl+N", "Previous / next query from history"},
		{"Tab", "Complete table name"},
		{"Esc", "Cancel completion"},
	}},
	{"Results", []helpEntry{
		{"↑↓←→ / hjkl", "Move cell cursor"},
		{"PgUp/PgDn g/G 0/$", "Page, first/last row, first/last column"},
		{"y / Y / C / T", "Copy cell / row as JSON / CSV / text"},
		{"f", "Filter by cell value"},
		{"D", "Generate DELETE for row (not executed)"},
		{"e / E", "Export JSON / CSV"},
	}},
}

func (m Model) viewHelp() string {
	sectionStyle := lipgloss.NewStyle().
		Foreground(theme.ColorHighlight).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Width(20)

	lines := []string{theme.StyleTitle.Render("minalite - Keyboard Shortcuts")}
	for _, section := range helpSections {
		lines = append(lines, "", sectionStyle.Render(section.title))
		for _, e := range section.entries {
			lines = append(lines, keyStyle.Render("  "+e.keys)+theme.StyleMuted.Render(e.desc))
		}
	}
	lines = append(lines, "", theme.StyleMuted.Render("Press any key to close"))

	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}
