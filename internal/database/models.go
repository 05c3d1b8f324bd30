package database

import (
	"encoding/json"
	"strings"
	"time"
)

// AffectedRowsColumn labels the single column of a write statement's result.
const AffectedRowsColumn = "affected_rows"

// Object kinds reported in TableInfo.Kind.
const (
	KindTable = "table"
	KindView  = "view"
)

// Column represents a table column with its metadata.
type Column struct {
	Name       string  `json:"name"`
	DataType   string  `json:"data_type"`
	IsNullable bool    `json:"nullable"`
	IsPrimary  bool    `json:"primary_key"`
	Default    *string `json:"default_value,omitempty"`
	OrdinalPos int     `json:"-"`
}

// TableInfo describes a table or view as the engine reports it right now.
// RowCount is nil when counting failed.
type TableInfo struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Columns  []Column `json:"columns"`
	RowCount *int64   `json:"row_count,omitempty"`
	Indexes  []string `json:"indexes,omitempty"`
}

// QueryResult holds the result of a SQL query execution.
// A nil cell is SQL NULL.
type QueryResult struct {
	Columns  []string
	Rows     [][]*string
	RowCount int
	Duration time.Duration
}

// IsWrite reports whether the result is the synthetic affected-rows shape.
func (r *QueryResult) IsWrite() bool {
	return len(r.Columns) == 1 && r.Columns[0] == AffectedRowsColumn && r.RowCount == 1 && len(r.Rows) == 1
}

// Cell returns the display text of a cell. NULL renders as "NULL".
func (r *QueryResult) Cell(row, col int) string {
	if row < 0 || row >= len(r.Rows) {
		return ""
	}
	cells := r.Rows[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return Display(cells[col])
}

// IsNull reports whether the cell at row, col holds SQL NULL.
func (r *QueryResult) IsNull(row, col int) bool {
	if row < 0 || row >= len(r.Rows) {
		return false
	}
	cells := r.Rows[row]
	return col >= 0 && col < len(cells) && cells[col] == nil
}

// StringRow returns the display text of a whole row.
func (r *QueryResult) StringRow(row int) []string {
	if row < 0 || row >= len(r.Rows) {
		return nil
	}
	out := make([]string, len(r.Rows[row]))
	for i, v := range r.Rows[row] {
		out[i] = Display(v)
	}
	return out
}

// ExecutionTimeMS returns the measured duration in whole milliseconds.
func (r *QueryResult) ExecutionTimeMS() int64 {
	return r.Duration.Milliseconds()
}

// MarshalJSON emits the result in the shape the presentation layer consumes.
func (r *QueryResult) MarshalJSON() ([]byte, error) {
	rows := r.Rows
	if rows == nil {
		rows = [][]*string{}
	}
	cols := r.Columns
	if cols == nil {
		cols = []string{}
	}
	return json.Marshal(struct {
		Columns         []string    `json:"columns"`
		Rows            [][]*string `json:"rows"`
		ExecutionTimeMS int64       `json:"execution_time_ms"`
		RowCount        int         `json:"row_count"`
	}{
		Columns:         cols,
		Rows:            rows,
		ExecutionTimeMS: r.ExecutionTimeMS(),
		RowCount:        r.RowCount,
	})
}

// Display renders an optional cell value, NULL for nil.
func Display(v *string) string {
	if v == nil {
		return "NULL"
	}
	return *v
}

// LooksLikeRead is the textual SELECT-prefix guess. It only labels pending work;
// the executor decides the result shape from the engine's statement metadata.
func LooksLikeRead(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}
