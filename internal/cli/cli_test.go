package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joacominatel/minalite/internal/app"
	"github.com/joacominatel/minalite/internal/config"
	"github.com/joacominatel/minalite/internal/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureSchema = `
	CREATE TABLE artists (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);
	CREATE TABLE albums (
		id INTEGER PRIMARY KEY,
		artist_id INTEGER NOT NULL REFERENCES artists(id),
		title TEXT NOT NULL,
		rating REAL
	);
	CREATE INDEX idx_albums_artist ON albums(artist_id);
	CREATE VIEW v_titles AS SELECT title FROM albums;
	INSERT INTO artists (name) VALUES ('Nina'), ('Miles');
	INSERT INTO albums (artist_id, title, rating) VALUES (1, 'Pastel Blues', NULL), (2, 'Kind of Blue', 4.5);
`

type fixture struct {
	db     string
	config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "music.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(context.Background(), fixtureSchema)
	require.NoError(t, err)

	return fixture{db: path, config: filepath.Join(dir, "config.yaml")}
}

type runResult struct {
	code   int
	stdout string
	stderr string
}

func (f fixture) run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"--config", f.config}, args...)
	code := Execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return runResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

func TestTestCommand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "test", f.db)
	assert.Equal(t, 0, res.code)
	assert.Equal(t, "{\"canOpen\":true}\n", res.stdout)

	res = f.run(t, "", "test", filepath.Join(t.TempDir(), "missing.db"))
	assert.Equal(t, 0, res.code)
	assert.Equal(t, "{\"canOpen\":false}\n", res.stdout)

	cfg, err := config.Load(f.config)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Stats.Total)
	assert.Equal(t, 1, cfg.Stats.Successful)
	assert.Equal(t, 1, cfg.Stats.Failed)
	require.Len(t, cfg.Connections, 1)
	assert.Equal(t, f.db, cfg.Connections[0].Path)
}

func TestTablesCommand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "tables", f.db)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "albums")
	assert.Contains(t, res.stdout, "artists")
	assert.NotContains(t, res.stdout, "v_titles")

	res = f.run(t, "", "tables", f.db, "-f", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &names))
	assert.Equal(t, []string{"albums", "artists"}, names)

	res = f.run(t, "", "tables", f.db, "--views", "--format", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var listing tableListing
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &listing))
	assert.Equal(t, []string{"v_titles"}, listing.Views)

	res = f.run(t, "", "tables", f.db, "--views", "-f", "csv")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "name,kind\nalbums,table\nartists,table\nv_titles,view\n", res.stdout)
}

func TestDescribeCommand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "describe", f.db, "albums", "-f", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var info struct {
		Name     string `json:"name"`
		Kind     string `json:"kind"`
		RowCount int64  `json:"row_count"`
		Indexes  []string
		Columns  []struct {
			Name       string `json:"name"`
			PrimaryKey bool   `json:"primary_key"`
			Nullable   bool   `json:"nullable"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, "albums", info.Name)
	require.Len(t, info.Columns, 4)
	assert.True(t, info.Columns[0].PrimaryKey)
	assert.False(t, info.Columns[2].Nullable)
	assert.True(t, info.Columns[3].Nullable)

	res = f.run(t, "", "describe", f.db, "artists", "albums")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "table artists (2 rows)")
	assert.Contains(t, res.stdout, "table albums (2 rows)")
	assert.Contains(t, res.stdout, "index idx_albums_artist")

	res = f.run(t, "", "describe", f.db, "nope")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "Error: table not found: nope\n", res.stderr)
}

func TestQueryCommand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "query", f.db, "SELECT title, rating FROM albums ORDER BY id", "-f", "csv")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "title,rating\nPastel Blues,NULL\nKind of Blue,4.5\n", res.stdout)

	res = f.run(t, "", "query", f.db, "SELECT title FROM albums WHERE id = 99", "-f", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var empty map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &empty))
	assert.Equal(t, []any{"title"}, empty["columns"])
	assert.Equal(t, []any{}, empty["rows"])

	res = f.run(t, "UPDATE albums SET rating = 5", "query", f.db)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "2 row(s) affected")

	sqlFile := filepath.Join(t.TempDir(), "q.sql")
	require.NoError(t, os.WriteFile(sqlFile, []byte("SELECT COUNT(*) AS n FROM artists;\n"), 0o600))
	res = f.run(t, "", "query", f.db, "--input", sqlFile)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "(1 rows,")

	res = f.run(t, "", "query", f.db, "SELEC nonsense")
	assert.Equal(t, 1, res.code)
	assert.True(t, strings.HasPrefix(res.stderr, "Error: query error:"), res.stderr)

	res = f.run(t, "", "query", f.db)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "no SQL given")
}

func TestQueryReadOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "--read-only", "query", f.db, "DELETE FROM albums")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: query error:")

	res = f.run(t, "", "query", f.db, "SELECT COUNT(*) FROM albums", "-f", "csv")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "COUNT(*)\n2\n", res.stdout)
}

func TestDetectCommand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "detect", f.db)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "plain\n", res.stdout)

	res = f.run(t, "", "detect", filepath.Join(t.TempDir(), "missing.db"))
	assert.Equal(t, 1, res.code)
}

func TestStatsCommand(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.run(t, "", "test", f.db)
	f.run(t, "", "test", f.db+".nope")

	res := f.run(t, "", "stats", "-f", "json")
	require.Equal(t, 0, res.code, res.stderr)
	var stats config.Stats
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &stats))
	assert.Equal(t, 2, stats.Total)
	require.Len(t, stats.History, 2)
	assert.Equal(t, app.EventFailure, stats.History[1].Type)

	res = f.run(t, "", "stats")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "FAILED")

	res = f.run(t, "", "stats", "--reset")
	require.Equal(t, 0, res.code, res.stderr)

	cfg, err := config.Load(f.config)
	require.NoError(t, err)
	assert.Zero(t, cfg.Stats.Total)
	assert.Empty(t, cfg.Stats.History)
}

func TestGlobalFlagErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "tables", f.db, "-f", "xml")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, `unknown format "xml"`)

	res = f.run(t, "", "--log-level", "loud", "tables", f.db)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: config error:")

	res = f.run(t, "", "--read-only", "--create", "tables", f.db)
	assert.Equal(t, 1, res.code)
}

func TestDebugLogsGoToStderr(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := f.run(t, "", "--log-level", "debug", "tables", f.db)
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stderr, "msg=\"database opened\"")
}

func TestModeResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opts  globalOptions
		prefs config.Preferences
		want  sqlite.Mode
	}{
		{name: "default", want: sqlite.ModeReadWrite},
		{name: "read-only pref", prefs: config.Preferences{ReadOnly: true}, want: sqlite.ModeReadOnly},
		{name: "create pref", prefs: config.Preferences{CreateMissing: true}, want: sqlite.ModeReadWriteCreate},
		{name: "flag wins", opts: globalOptions{create: true}, prefs: config.Preferences{ReadOnly: true}, want: sqlite.ModeReadWriteCreate},
		{name: "read-only flag", opts: globalOptions{readOnly: true}, want: sqlite.ModeReadOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := &env{opts: &tt.opts, cfg: &config.Config{Preferences: tt.prefs}}
			assert.Equal(t, tt.want, e.mode())
		})
	}
}
