package results

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minalite/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func sampleResult() *database.QueryResult {
	return &database.QueryResult{
		Columns: []string{"id", "name", "note"},
		Rows: [][]*string{
			{str("1"), str("ada"), nil},
			{str("2"), str("o'brien"), str("x")},
			{str("3"), str(""), str("line1\nline2")},
		},
		RowCount: 3,
		Duration: 1500 * time.Microsecond,
	}
}

func newFocused(r *database.QueryResult) Model {
	m := New()
	m.SetSize(80, 20)
	m.SetFocused(true)
	m.SetResult(r)
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(keyMsg(k))
	}
	return m, cmd
}

func TestCursorStaysInBounds(t *testing.T) {
	t.Parallel()

	m, _ := send(newFocused(sampleResult()), "up", "left")
	assert.Equal(t, 0, m.cursorX)
	assert.Equal(t, 0, m.cursorY)

	m, _ = send(m, "down", "down", "down", "down", "right", "right", "right")
	assert.Equal(t, 2, m.cursorX)
	assert.Equal(t, 2, m.cursorY)

	m, _ = send(m, "g", "0")
	assert.Equal(t, 0, m.cursorX)
	assert.Equal(t, 0, m.cursorY)

	m, _ = send(m, "G", "$")
	assert.Equal(t, 2, m.cursorX)
	assert.Equal(t, 2, m.cursorY)
}

func TestScrollFollowsCursor(t *testing.T) {
	t.Parallel()

	rows := make([][]*string, 50)
	for i := range rows {
		rows[i] = []*string{str("v")}
	}
	m := newFocused(&database.QueryResult{Columns: []string{"c"}, Rows: rows, RowCount: 50})
	m.SetSize(80, 10)

	for range 20 {
		m, _ = send(m, "down")
	}
	assert.Equal(t, 20, m.cursorY)
	assert.LessOrEqual(t, m.scrollY, m.cursorY)
	assert.Greater(t, m.scrollY+m.visibleRows(), m.cursorY)
}

func TestViewRendersNullAndAffectedRows(t *testing.T) {
	t.Parallel()

	m := newFocused(sampleResult())
	view := m.View()
	assert.Contains(t, view, "3 row(s)")
	assert.Contains(t, view, "NULL")
	assert.Contains(t, view, "line1↵line2")

	affected := "4"
	m.SetResult(&database.QueryResult{
		Columns:  []string{database.AffectedRowsColumn},
		Rows:     [][]*string{{&affected}},
		RowCount: 1,
	})
	view = m.View()
	assert.Contains(t, view, "4 row(s) affected")
	assert.Contains(t, view, "Statement executed successfully")
}

func TestViewEmptyReadKeepsHeader(t *testing.T) {
	t.Parallel()

	m := newFocused(&database.QueryResult{Columns: []string{"id", "name"}, Rows: [][]*string{}})
	view := m.View()
	assert.Contains(t, view, "id")
	assert.Contains(t, view, "name")
	assert.Contains(t, view, "(no rows)")
}

func TestViewStates(t *testing.T) {
	t.Parallel()

	m := New()
	assert.Contains(t, m.View(), "Execute a query")

	m.SetLoading(true)
	assert.Contains(t, m.View(), "Executing...")

	m.SetError(errors.New("no such table: nope"))
	assert.Contains(t, m.View(), "Error: no such table: nope")
}

func TestCopyActions(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	m := newFocused(sampleResult())
	m.SetLastQuery("SELECT * FROM users")

	m, _ = send(m, "$", "y")
	assert.Equal(t, "NULL", copied)

	m, _ = send(m, "Y")
	assert.Equal(t, `{"id": "1", "name": "ada", "note": null}`, copied)
	assert.Equal(t, "Copied row as JSON", m.Message())

	m, _ = send(m, "C")
	assert.Equal(t, "id,name,note\n1,ada,NULL\n", copied)

	m, _ = send(m, "T")
	assert.Equal(t, "1\tada\tNULL", copied)

	// empty string cell
	m, _ = send(m, "G", "0", "l", "y")
	assert.Equal(t, "Nothing to copy", m.Message())

	writeClipboard = func(string) error { return errors.New("no display") }
	m, _ = send(m, "T")
	assert.Equal(t, "Copy failed: no display", m.Message())
}

func TestFilterAndDeleteQueries(t *testing.T) {
	t.Parallel()

	m := newFocused(sampleResult())
	m.SetLastQuery("select * from users;")

	m, cmd := send(m, "$", "f")
	require.NotNil(t, cmd)
	assert.Equal(t, `SELECT * FROM users WHERE "note" IS NULL`, cmd().(SetEditorQueryMsg).Query)

	_, cmd = send(m, "j", "0", "l", "f")
	require.NotNil(t, cmd)
	assert.Equal(t, `SELECT * FROM users WHERE "name" = 'o''brien'`, cmd().(SetEditorQueryMsg).Query)

	_, cmd = send(m, "D")
	require.NotNil(t, cmd)
	query := cmd().(SetEditorQueryMsg).Query
	assert.True(t, strings.HasPrefix(query, "-- review before executing!\n"))
	assert.Contains(t, query, `DELETE FROM users WHERE "id" = '1' AND "name" = 'ada' AND "note" IS NULL`)
}

func TestExportCommands(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := newFocused(sampleResult())
	m.SetExportDir(dir)

	_, cmd := send(m, "E")
	require.NotNil(t, cmd)
	msg := cmd().(StatusNotifyMsg)
	assert.Contains(t, msg.Message, "Exported 3 rows")

	_, cmd = send(m, "e")
	require.NotNil(t, cmd)
	assert.Contains(t, cmd().(StatusNotifyMsg).Message, "Exported 3 rows")

	csvFiles, err := filepath.Glob(filepath.Join(dir, "minalite_export_*.csv"))
	require.NoError(t, err)
	require.Len(t, csvFiles, 1)
	data, err := os.ReadFile(csvFiles[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,name,note\n1,ada,NULL\n"))

	jsonFiles, err := filepath.Glob(filepath.Join(dir, "minalite_export_*.json"))
	require.NoError(t, err)
	require.Len(t, jsonFiles, 1)
	data, err = os.ReadFile(jsonFiles[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"id": "2", "name": "o'brien", "note": "x"}`)
}

func TestExtractTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  string
	}{
		{query: "", want: "<table>"},
		{query: "SELECT * FROM users", want: "users"},
		{query: "select id from orders;", want: "orders"},
		{query: "INSERT INTO logs (a) VALUES (1)", want: "logs"},
		{query: "PRAGMA table_info(x)", want: "<table>"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, extractTableName(tt.query))
		})
	}
}

func TestTruncateStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", truncateStatus("short", 10))
	assert.Equal(t, "ééééééé...", truncateStatus(strings.Repeat("é", 20), 10))
}
