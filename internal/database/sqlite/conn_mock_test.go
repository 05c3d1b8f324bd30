package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/joacominatel/minalite/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockConn(t *testing.T) (*Conn, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newConn(db, "mock.db", nil), mock
}

func TestGetTableRowCount_EngineError(t *testing.T) {
	t.Parallel()

	conn, mock := newMockConn(t)
	locked := errors.New("database is locked (5) (SQLITE_BUSY)")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "users"`)).WillReturnError(locked)

	_, err := conn.GetTableRowCount(context.Background(), "users")
	require.ErrorIs(t, err, locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTableRowCount_QuotesIdentifier(t *testing.T) {
	t.Parallel()

	conn, mock := newMockConn(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "x"" ; DROP TABLE users; --"`)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))

	count, err := conn.GetTableRowCount(context.Background(), `x" ; DROP TABLE users; --`)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery_BusyIsSurfaced(t *testing.T) {
	t.Parallel()

	conn, mock := newMockConn(t)
	busy := errors.New("database is locked (5) (SQLITE_BUSY)")
	mock.ExpectQuery(regexp.QuoteMeta(queryTotalChanges)).
		WillReturnRows(sqlmock.NewRows([]string{"total_changes()"}).AddRow(int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE t SET x = 1")).WillReturnError(busy)

	_, err := conn.ExecuteQuery(context.Background(), "UPDATE t SET x = 1")
	require.ErrorIs(t, err, busy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery_AffectedFromChanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		before, after int64
		changes       int64
		want          string
	}{
		// a trigger moved total_changes by 3, the statement itself by 2
		{name: "statement count only", before: 5, after: 8, changes: 2, want: "2"},
		// changes() still holds the previous statement's count
		{name: "nothing changed", before: 5, after: 5, changes: 4, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn, mock := newMockConn(t)
			mock.ExpectQuery(regexp.QuoteMeta(queryTotalChanges)).
				WillReturnRows(sqlmock.NewRows([]string{"total_changes()"}).AddRow(tt.before))
			mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM t")).
				WillReturnRows(sqlmock.NewRows([]string{}))
			mock.ExpectQuery(regexp.QuoteMeta(queryChanges)).
				WillReturnRows(sqlmock.NewRows([]string{"total_changes()", "changes()"}).AddRow(tt.after, tt.changes))

			res, err := conn.ExecuteQuery(context.Background(), "DELETE FROM t")
			require.NoError(t, err)
			assert.Equal(t, []string{database.AffectedRowsColumn}, res.Columns)
			assert.Equal(t, tt.want, res.Cell(0, 0))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
