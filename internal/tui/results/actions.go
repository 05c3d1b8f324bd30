package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minalite/internal/database"
	"github.com/joacominatel/minalite/internal/database/sqlite"
)

// SetEditorQueryMsg tells the app to put a query in the editor pane for review.
type SetEditorQueryMsg struct {
	Query string
}

// StatusNotifyMsg tells the app to show a message in the status bar.
type StatusNotifyMsg struct {
	Message string
}

// writeClipboard is swapped in tests; headless machines have no clipboard.
var writeClipboard = clipboard.WriteAll

func (m Model) hasRow() bool {
	return m.result != nil && m.cursorY >= 0 && m.cursorY < len(m.result.Rows)
}

func (m Model) getCellValue() (*string, bool) {
	if !m.hasRow() {
		return nil, false
	}
	row := m.result.Rows[m.cursorY]
	if m.cursorX < 0 || m.cursorX >= len(row) {
		return nil, false
	}
	return row[m.cursorX], true
}

func (m Model) getColumnName() string {
	if m.result == nil || m.cursorX < 0 || m.cursorX >= len(m.result.Columns) {
		return ""
	}
	return m.result.Columns[m.cursorX]
}

// --- Copy ---

func (m *Model) copyText(text, done string) {
	if err := writeClipboard(text); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = done
}

func (m *Model) doCopyCell() {
	val, ok := m.getCellValue()
	if !ok || (val != nil && *val == "") {
		m.statusMessage = "Nothing to copy"
		return
	}
	text := database.Display(val)
	m.copyText(text, "Copied: "+truncateStatus(text, 40))
}

func (m *Model) doCopyRowJSON() {
	if !m.hasRow() {
		m.statusMessage = "No row to copy"
		return
	}
	m.copyText(rowToJSON(m.result.Columns, m.result.Rows[m.cursorY]), "Copied row as JSON")
}

func (m *Model) doCopyRowCSV() {
	if !m.hasRow() {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(m.result.Columns)
	_ = w.Write(m.result.StringRow(m.cursorY))
	w.Flush()
	m.copyText(b.String(), "Copied row as CSV")
}

func (m *Model) doCopyRowText() {
	if !m.hasRow() {
		m.statusMessage = "No row to copy"
		return
	}
	m.copyText(strings.Join(m.result.StringRow(m.cursorY), "\t"), "Copied row as text")
}

// --- Filter ---

func (m *Model) doFilterByValue() tea.Cmd {
	col := m.getColumnName()
	val, ok := m.getCellValue()
	table := extractTableName(m.lastQuery)
	if col == "" || !ok || m.result.IsWrite() {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, condition(col, val))
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// condition matches col against a cell value; nil means SQL NULL.
func condition(col string, val *string) string {
	if val == nil {
		return sqlite.QuoteIdent(col) + " IS NULL"
	}
	return fmt.Sprintf("%s = '%s'", sqlite.QuoteIdent(col), strings.ReplaceAll(*val, "'", "''"))
}

// --- Delete ---

func (m *Model) doGenerateDelete() tea.Cmd {
	if !m.hasRow() || m.result.IsWrite() {
		return nil
	}
	table := extractTableName(m.lastQuery)
	row := m.result.Rows[m.cursorY]

	conditions := make([]string, 0, len(m.result.Columns))
	for i, col := range m.result.Columns {
		if i >= len(row) {
			break
		}
		conditions = append(conditions, condition(col, row[i]))
	}

	// send to editor for review, never auto-execute deletes
	query := fmt.Sprintf("-- review before executing!\nDELETE FROM %s WHERE %s",
		table, strings.Join(conditions, " AND "))

	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query}
	}
}

// --- Export ---

func (m Model) exportPath(ext string) string {
	ts := time.Now().Format("20060102_150405")
	return filepath.Join(m.exportDir, fmt.Sprintf("minalite_export_%s.%s", ts, ext))
}

func (m Model) exportJSONCmd() tea.Cmd {
	result := m.result
	if result == nil {
		return nil
	}
	filename := m.exportPath("json")
	return func() tea.Msg {
		var b strings.Builder
		b.WriteString("[\n")
		for ri, row := range result.Rows {
			if ri > 0 {
				b.WriteString(",\n")
			}
			b.WriteString("  ")
			b.WriteString(rowToJSON(result.Columns, row))
		}
		b.WriteString("\n]\n")

		if err := os.WriteFile(filename, []byte(b.String()), 0o644); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(result.Rows), filename)}
	}
}

func (m Model) exportCSVCmd() tea.Cmd {
	result := m.result
	if result == nil {
		return nil
	}
	filename := m.exportPath("csv")
	return func() tea.Msg {
		f, err := os.Create(filename)
		if err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		defer f.Close()

		w := csv.NewWriter(f)
		_ = w.Write(result.Columns)
		for i := range result.Rows {
			_ = w.Write(result.StringRow(i))
		}
		w.Flush()

		if err := w.Error(); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(result.Rows), filename)}
	}
}

// --- Helpers ---

func extractTableName(query string) string {
	if query == "" {
		return "<table>"
	}
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		upper := strings.ToUpper(tok)
		if (upper == "FROM" || upper == "INTO" || upper == "UPDATE") && i+1 < len(tokens) {
			name := strings.TrimRight(tokens[i+1], ";,()")
			if name != "" {
				return name
			}
		}
	}
	return "<table>"
}

// rowToJSON preserves column order unlike map marshaling
func rowToJSON(columns []string, row []*string) string {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		key, _ := json.Marshal(col)
		b.Write(key)
		b.WriteString(": ")
		if i < len(row) && row[i] != nil {
			val, _ := json.Marshal(*row[i])
			b.Write(val)
		} else {
			b.WriteString("null")
		}
	}
	b.WriteString("}")
	return b.String()
}

func truncateStatus(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
