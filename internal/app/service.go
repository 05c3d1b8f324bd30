package app

import (
	"context"
	"log/slog"
	"sort"

	"github.com/joacominatel/minalite/internal/config"
	"github.com/joacominatel/minalite/internal/database"
	"golang.org/x/sync/errgroup"
)

// describeConcurrency bounds DescribeTables fan-out.
const describeConcurrency = 4

// SchemaTree represents the loaded schema hierarchy for the explorer.
type SchemaTree struct {
	Database string
	Path     string
	Tables   []string
	Views    []string
}

// ConnectionStatus is the result of a liveness probe.
type ConnectionStatus struct {
	CanOpen bool `json:"canOpen"`
}

// Service coordinates application-level operations between the UI and database.
// It holds no connection: every operation opens its own and closes it before returning.
type Service struct {
	driver  database.Driver
	tracker *Tracker
	logger  *slog.Logger
}

// NewService creates a new application service.
func NewService(driver database.Driver, tracker *Tracker, logger *slog.Logger) *Service {
	if tracker == nil {
		tracker = NewTracker(config.Stats{})
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{driver: driver, tracker: tracker, logger: logger}
}

// withConn acquires a connection for the duration of fn and always releases it.
func (s *Service) withConn(ctx context.Context, path string, fn func(database.Conn) error) error {
	conn, err := s.driver.Open(ctx, path)
	if err != nil {
		return &ErrConnection{Path: path, Cause: err}
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Warn("close connection", "path", path, "error", cerr)
		}
	}()
	return fn(conn)
}

// Connect checks that path opens as a database and records the attempt.
func (s *Service) Connect(ctx context.Context, path string) error {
	err := s.withConn(ctx, path, func(conn database.Conn) error {
		return nil
	})
	if err != nil {
		s.tracker.RegisterFailure(path)
		s.logger.Info("connect failed", "path", path, "error", err)
		return err
	}
	s.tracker.RegisterSuccess(path)
	s.logger.Debug("connected", "path", path)
	return nil
}

// TestConnection reports whether path can be opened. It never fails.
func (s *Service) TestConnection(ctx context.Context, path string) ConnectionStatus {
	return ConnectionStatus{CanOpen: s.Connect(ctx, path) == nil}
}

// LoadSchemaTree fetches the tables and views of the database at path.
func (s *Service) LoadSchemaTree(ctx context.Context, path string) (*SchemaTree, error) {
	tree := &SchemaTree{Path: path}
	err := s.withConn(ctx, path, func(conn database.Conn) error {
		tables, err := conn.ListTables(ctx)
		if err != nil {
			return &ErrQuery{Query: "list tables", Cause: err}
		}
		views, err := conn.ListViews(ctx)
		if err != nil {
			return &ErrQuery{Query: "list views", Cause: err}
		}
		tree.Database = conn.DatabaseName()
		tree.Tables = tables
		tree.Views = views
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// AllTableNames returns the table and view names of a tree, sorted.
func (s *Service) AllTableNames(tree *SchemaTree) []string {
	if tree == nil {
		return nil
	}
	names := make([]string, 0, len(tree.Tables)+len(tree.Views))
	names = append(names, tree.Tables...)
	names = append(names, tree.Views...)
	sort.Strings(names)
	return names
}

// ListTables returns the user table names of the database at path.
func (s *Service) ListTables(ctx context.Context, path string) ([]string, error) {
	var tables []string
	err := s.withConn(ctx, path, func(conn database.Conn) error {
		var err error
		tables, err = conn.ListTables(ctx)
		if err != nil {
			return &ErrQuery{Query: "list tables", Cause: err}
		}
		return nil
	})
	return tables, err
}

// ListViews returns the user view names of the database at path.
func (s *Service) ListViews(ctx context.Context, path string) ([]string, error) {
	var views []string
	err := s.withConn(ctx, path, func(conn database.Conn) error {
		var err error
		views, err = conn.ListViews(ctx)
		if err != nil {
			return &ErrQuery{Query: "list views", Cause: err}
		}
		return nil
	})
	return views, err
}

// DescribeTable returns column metadata, kind, indexes and row count for a table.
// A failed row count leaves RowCount nil instead of failing the call.
func (s *Service) DescribeTable(ctx context.Context, path, table string) (*database.TableInfo, error) {
	var info *database.TableInfo
	err := s.withConn(ctx, path, func(conn database.Conn) error {
		var err error
		info, err = s.describe(ctx, conn, table)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Service) describe(ctx context.Context, conn database.Conn, table string) (*database.TableInfo, error) {
	columns, err := conn.GetColumns(ctx, table)
	if err != nil {
		return nil, &ErrQuery{Query: "describe " + table, Cause: err}
	}
	if len(columns) == 0 {
		return nil, &ErrTableNotFound{Table: table}
	}

	info := &database.TableInfo{
		Name:    table,
		Kind:    database.KindTable,
		Columns: columns,
	}

	if kind, err := conn.GetTableKind(ctx, table); err == nil {
		info.Kind = kind
	}

	if count, err := conn.GetTableRowCount(ctx, table); err != nil {
		s.logger.Debug("row count unavailable", "table", table, "error", err)
	} else {
		info.RowCount = &count
	}

	if info.Kind == database.KindTable {
		if indexes, err := conn.ListIndexes(ctx, table); err != nil {
			s.logger.Debug("indexes unavailable", "table", table, "error", err)
		} else if len(indexes) > 0 {
			info.Indexes = indexes
		}
	}

	return info, nil
}

// DescribeTables describes several tables concurrently, each on its own
// connection. Results keep the order of tables; the first failure cancels the rest.
func (s *Service) DescribeTables(ctx context.Context, path string, tables []string) ([]*database.TableInfo, error) {
	out := make([]*database.TableInfo, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(describeConcurrency)
	for i, table := range tables {
		g.Go(func() error {
			info, err := s.DescribeTable(gctx, path, table)
			if err != nil {
				return err
			}
			out[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTableRowCount returns the exact row count for a table.
func (s *Service) GetTableRowCount(ctx context.Context, path, table string) (int64, error) {
	var count int64
	err := s.withConn(ctx, path, func(conn database.Conn) error {
		var err error
		count, err = conn.GetTableRowCount(ctx, table)
		if err != nil {
			return &ErrQuery{Query: "count " + table, Cause: err}
		}
		return nil
	})
	return count, err
}

// ExecuteQuery runs a SQL statement against the database at path.
func (s *Service) ExecuteQuery(ctx context.Context, path, query string) (*database.QueryResult, error) {
	var result *database.QueryResult
	err := s.withConn(ctx, path, func(conn database.Conn) error {
		var err error
		result, err = conn.ExecuteQuery(ctx, query)
		if err != nil {
			return &ErrQuery{Query: query, Cause: err}
		}
		return nil
	})
	if err != nil {
		s.logger.Debug("query failed", "path", path, "error", err)
		return nil, err
	}
	return result, nil
}

// Stats returns the connection tracker snapshot.
func (s *Service) Stats() config.Stats {
	return s.tracker.Stats()
}

// RecentConnections returns the newest n connection events.
func (s *Service) RecentConnections(n int) []config.ConnectionEvent {
	return s.tracker.Recent(n)
}

// ResetStats clears the connection tracker.
func (s *Service) ResetStats() {
	s.tracker.Reset()
}
