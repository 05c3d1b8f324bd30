package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joacominatel/minalite/internal/app"
	"github.com/joacominatel/minalite/internal/config"
	"github.com/joacominatel/minalite/internal/database"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// renderResult prints a query result. NULL cells print as NULL in table and
// csv output and as null in json.
func renderResult(w io.Writer, r *database.QueryResult, format outputFormat) error {
	switch format {
	case formatJSON:
		return renderJSON(w, r)
	case formatCSV:
		rows := make([][]string, len(r.Rows))
		for i := range r.Rows {
			rows[i] = r.StringRow(i)
		}
		return renderCSV(w, r.Columns, rows)
	}

	if r.IsWrite() {
		_, err := fmt.Fprintf(w, "%s row(s) affected (%s)\n", r.Cell(0, 0), r.Duration.Round(time.Microsecond))
		return err
	}

	t := newTable(w)
	header := make(table.Row, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for i := range r.Rows {
		row := make(table.Row, len(r.Columns))
		for j := range r.Columns {
			row[j] = r.Cell(i, j)
		}
		t.AppendRow(row)
	}
	t.Render()
	_, err := fmt.Fprintf(w, "(%d rows, %s)\n", r.RowCount, r.Duration.Round(time.Microsecond))
	return err
}

// tableListing is the json shape of tables --views.
type tableListing struct {
	Tables []string `json:"tables"`
	Views  []string `json:"views"`
}

func renderTables(w io.Writer, tables, views []string, withViews bool, format outputFormat) error {
	if !withViews {
		switch format {
		case formatJSON:
			if tables == nil {
				tables = []string{}
			}
			return renderJSON(w, tables)
		case formatCSV:
			rows := make([][]string, len(tables))
			for i, name := range tables {
				rows[i] = []string{name}
			}
			return renderCSV(w, []string{"name"}, rows)
		}
		t := newTable(w)
		t.AppendHeader(table.Row{"name"})
		for _, name := range tables {
			t.AppendRow(table.Row{name})
		}
		t.Render()
		return nil
	}

	switch format {
	case formatJSON:
		listing := tableListing{Tables: tables, Views: views}
		if listing.Tables == nil {
			listing.Tables = []string{}
		}
		if listing.Views == nil {
			listing.Views = []string{}
		}
		return renderJSON(w, listing)
	}

	rows := make([][]string, 0, len(tables)+len(views))
	for _, name := range tables {
		rows = append(rows, []string{name, database.KindTable})
	}
	for _, name := range views {
		rows = append(rows, []string{name, database.KindView})
	}
	if format == formatCSV {
		return renderCSV(w, []string{"name", "kind"}, rows)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"name", "kind"})
	for _, r := range rows {
		t.AppendRow(table.Row{r[0], r[1]})
	}
	t.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func columnRows(info *database.TableInfo) [][]string {
	rows := make([][]string, len(info.Columns))
	for i, c := range info.Columns {
		def := ""
		if c.Default != nil {
			def = *c.Default
		}
		rows[i] = []string{
			info.Name,
			strconv.Itoa(c.OrdinalPos),
			c.Name,
			c.DataType,
			yesNo(c.IsNullable),
			yesNo(c.IsPrimary),
			def,
		}
	}
	return rows
}

func renderDescriptions(w io.Writer, infos []*database.TableInfo, format outputFormat) error {
	switch format {
	case formatJSON:
		if len(infos) == 1 {
			return renderJSON(w, infos[0])
		}
		return renderJSON(w, infos)
	case formatCSV:
		var rows [][]string
		for _, info := range infos {
			rows = append(rows, columnRows(info)...)
		}
		return renderCSV(w, []string{"table", "cid", "name", "type", "nullable", "primary_key", "default"}, rows)
	}

	for i, info := range infos {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		rowCount := "row count unavailable"
		if info.RowCount != nil {
			rowCount = fmt.Sprintf("%d rows", *info.RowCount)
		}
		_, _ = fmt.Fprintf(w, "%s %s (%s)\n", info.Kind, info.Name, rowCount)

		t := newTable(w)
		t.AppendHeader(table.Row{"#", "name", "type", "nullable", "pk", "default"})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
		for _, r := range columnRows(info) {
			t.AppendRow(table.Row{r[1], r[2], r[3], r[4], r[5], r[6]})
		}
		t.Render()

		for _, idx := range info.Indexes {
			_, _ = fmt.Fprintf(w, "index %s\n", idx)
		}
	}
	return nil
}

func renderStats(w io.Writer, stats config.Stats, recent []config.ConnectionEvent, format outputFormat) error {
	switch format {
	case formatJSON:
		if stats.History == nil {
			stats.History = []config.ConnectionEvent{}
		}
		return renderJSON(w, stats)
	case formatCSV:
		rows := make([][]string, len(recent))
		for i, ev := range recent {
			rows[i] = []string{ev.ID, ev.Timestamp.Format(time.RFC3339), ev.Type, ev.Path}
		}
		return renderCSV(w, []string{"id", "timestamp", "type", "path"}, rows)
	}

	summary := newTable(w)
	summary.AppendHeader(table.Row{"total", "successful", "failed"})
	summary.AppendRow(table.Row{stats.Total, stats.Successful, stats.Failed})
	summary.Render()

	if len(recent) == 0 {
		return nil
	}
	events := newTable(w)
	events.AppendHeader(table.Row{"when", "result", "path"})
	for _, ev := range recent {
		result := "ok"
		if ev.Type == app.EventFailure {
			result = "FAILED"
		}
		events.AppendRow(table.Row{ev.Timestamp.Local().Format("2006-01-02 15:04:05"), result, ev.Path})
	}
	events.Render()
	return nil
}
