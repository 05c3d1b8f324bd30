package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joacominatel/minalite/internal/database"

	// registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Options configures a Driver.
type Options struct {
	Mode   Mode
	Logger *slog.Logger
}

// Driver implements the database.Driver interface for SQLite files.
type Driver struct {
	mode   Mode
	logger *slog.Logger
}

// New creates a new SQLite driver.
func New(opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{mode: opts.Mode, logger: logger}
}

// Mode returns the mode files are opened with.
func (d *Driver) Mode() Mode {
	return d.mode
}

// Open opens the database file at path and checks that it really is a database.
func (d *Driver) Open(ctx context.Context, path string) (database.Conn, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("empty database path")
	}

	db, err := sql.Open(driverName, DSN(path, d.mode))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	// Opening is lazy in the engine; reading the header is what rejects
	// files that are not databases.
	var version int64
	if err := db.QueryRowContext(ctx, querySchemaVersion).Scan(&version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}

	d.logger.Debug("database opened", "path", path, "mode", d.mode.String(), "schema_version", version)
	return newConn(db, path, d.logger), nil
}

// Conn is a single SQLite database handle owned by one caller.
type Conn struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

func newConn(db *sql.DB, path string, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Conn{db: db, path: path, logger: logger}
}

// Close closes the underlying handle.
func (c *Conn) Close() error {
	return c.db.Close()
}

// Ping checks if the connection is alive.
func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// ListTables returns all user table names.
func (c *Conn) ListTables(ctx context.Context) ([]string, error) {
	tables, err := c.listNames(ctx, queryListTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// ListViews returns all user view names.
func (c *Conn) ListViews(ctx context.Context) ([]string, error) {
	views, err := c.listNames(ctx, queryListViews)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	return views, nil
}

func (c *Conn) listNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// GetColumns returns column metadata for a table from the live schema.
func (c *Conn) GetColumns(ctx context.Context, table string) ([]database.Column, error) {
	rows, err := c.db.QueryContext(ctx, queryGetColumns, table)
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []database.Column
	for rows.Next() {
		var col database.Column
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&col.OrdinalPos, &col.Name, &col.DataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		col.IsNullable = notNull == 0
		// pk is the 1-based position inside the primary key, 0 otherwise.
		col.IsPrimary = pk > 0
		if dflt.Valid {
			v := dflt.String
			col.Default = &v
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// GetTableRowCount returns the exact row count of a table.
func (c *Conn) GetTableRowCount(ctx context.Context, table string) (int64, error) {
	var count int64
	if err := c.db.QueryRowContext(ctx, queryRowCountPrefix+QuoteIdent(table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("row count: %w", err)
	}
	return count, nil
}

// GetTableKind reports whether name is a table or a view.
func (c *Conn) GetTableKind(ctx context.Context, table string) (string, error) {
	var kind string
	err := c.db.QueryRowContext(ctx, queryTableKind, table).Scan(&kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", database.ErrTableNotFound, table)
		}
		return "", fmt.Errorf("table kind: %w", err)
	}
	return kind, nil
}

// ListIndexes returns the names of indexes created with CREATE INDEX on table.
func (c *Conn) ListIndexes(ctx context.Context, table string) ([]string, error) {
	indexes, err := c.listNames(ctx, queryListIndexes, table)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	return indexes, nil
}

// ExecuteQuery runs one statement and normalizes its outcome.
//
// The statement always goes through the row-producing path. When the engine
// reports result columns it is a read and all rows are fetched; otherwise it was
// a write or DDL and the affected count comes from changes() on the same
// connection.
func (c *Conn) ExecuteQuery(ctx context.Context, query string) (*database.QueryResult, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var before int64
	if err := conn.QueryRowContext(ctx, queryTotalChanges).Scan(&before); err != nil {
		return nil, fmt.Errorf("total changes: %w", err)
	}

	start := time.Now()

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	if len(columns) == 0 {
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("execute: %w", err)
		}
		elapsed := time.Since(start)

		var after, changes int64
		if err := conn.QueryRowContext(ctx, queryChanges).Scan(&after, &changes); err != nil {
			return nil, fmt.Errorf("changes: %w", err)
		}
		// changes() keeps the count of the last INSERT, UPDATE or DELETE, so a
		// statement that changed nothing must not report it.
		if after == before {
			changes = 0
		}
		affected := strconv.FormatInt(changes, 10)

		c.logger.Debug("statement executed", "path", c.path, "affected", affected, "duration", elapsed)
		return &database.QueryResult{
			Columns:  []string{database.AffectedRowsColumn},
			Rows:     [][]*string{{&affected}},
			RowCount: 1,
			Duration: elapsed,
		}, nil
	}

	// without types there is no stored-text re-read
	types, _ := rows.ColumnTypes()

	resultRows, err := scanRows(rows, len(columns))
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	if hasTimeColumns(types) {
		var after int64
		if err := conn.QueryRowContext(ctx, queryTotalChanges).Scan(&after); err == nil && after == before {
			raw, err := c.readStoredText(ctx, conn, query, columns)
			if err == nil {
				return raw, nil
			}
			c.logger.Debug("stored text unavailable, keeping driver values", "path", c.path, "error", err)
		}
	}

	c.logger.Debug("query executed", "path", c.path, "columns", len(columns), "rows", len(resultRows), "duration", elapsed)
	return &database.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Duration: elapsed,
	}, nil
}

// timeDeclTypes are the declared types whose text values the driver parses
// into time.Time.
var timeDeclTypes = map[string]bool{"DATE": true, "DATETIME": true, "TIMESTAMP": true}

func hasTimeColumns(types []*sql.ColumnType) bool {
	for _, t := range types {
		if timeDeclTypes[t.DatabaseTypeName()] {
			return true
		}
	}
	return false
}

// readStoredText runs a read again as a subquery, selecting every column
// through unary plus. The expression has no declared type, so the driver hands
// back the stored value untouched. Statements that cannot be a subquery
// (PRAGMA, RETURNING, several statements) fail here.
func (c *Conn) readStoredText(ctx context.Context, conn *sql.Conn, query string, labels []string) (*database.QueryResult, error) {
	inner := "(\n" + strings.TrimRight(strings.TrimSpace(query), "; \t\r\n") + "\n)"

	// subquery names are unique ("id", "id:1"); labels keep the originals.
	probe, err := conn.QueryContext(ctx, "SELECT * FROM "+inner+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	names, err := probe.Columns()
	_ = probe.Close()
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	if len(names) != len(labels) {
		return nil, fmt.Errorf("probe: %d columns, want %d", len(names), len(labels))
	}

	exprs := make([]string, len(names))
	for i, name := range names {
		exprs[i] = "+" + QuoteIdent(name) + " AS " + QuoteIdent(labels[i])
	}

	start := time.Now()
	rows, err := conn.QueryContext(ctx, "SELECT "+strings.Join(exprs, ", ")+" FROM "+inner)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer func() { _ = rows.Close() }()

	resultRows, err := scanRows(rows, len(labels))
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	c.logger.Debug("query executed", "path", c.path, "columns", len(labels), "rows", len(resultRows), "duration", elapsed, "stored_text", true)
	return &database.QueryResult{
		Columns:  labels,
		Rows:     resultRows,
		RowCount: len(resultRows),
		Duration: elapsed,
	}, nil
}

// scanRows reads every remaining row, stringifying each cell.
func scanRows(rows *sql.Rows, width int) ([][]*string, error) {
	values := make([]any, width)
	ptrs := make([]any, width)
	for i := range values {
		ptrs[i] = &values[i]
	}

	out := make([][]*string, 0)
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make([]*string, width)
		for i, v := range values {
			row[i] = stringify(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// DatabaseName returns the file name of the connected database.
func (c *Conn) DatabaseName() string {
	return filepath.Base(c.path)
}
