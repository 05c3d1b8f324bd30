package database

import (
	"context"
	"errors"
)

// ErrTableNotFound is returned when column introspection finds no such table.
var ErrTableNotFound = errors.New("table not found")

// Driver opens connections to database files.
// Implementations must be safe for concurrent use; every Open yields an independent Conn.
type Driver interface {
	// Open establishes a connection to the database at path.
	// The file is validated as a database before Open returns.
	Open(ctx context.Context, path string) (Conn, error)
}

// Conn is one acquired connection. The caller must Close it.
type Conn interface {
	// Close releases the connection.
	Close() error

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// ListTables returns user table names, sorted.
	ListTables(ctx context.Context) ([]string, error)

	// ListViews returns user view names, sorted.
	ListViews(ctx context.Context) ([]string, error)

	// GetColumns returns all columns for a table or view, in engine order.
	GetColumns(ctx context.Context, table string) ([]Column, error)

	// GetTableRowCount returns the exact row count for a table.
	GetTableRowCount(ctx context.Context, table string) (int64, error)

	// GetTableKind returns KindTable or KindView.
	GetTableKind(ctx context.Context, table string) (string, error)

	// ListIndexes returns the names of explicitly created indexes on a table.
	ListIndexes(ctx context.Context, table string) ([]string, error)

	// ExecuteQuery runs a SQL statement and returns results.
	ExecuteQuery(ctx context.Context, query string) (*QueryResult, error)

	// DatabaseName returns the name of the connected database.
	DatabaseName() string
}
