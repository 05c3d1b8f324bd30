package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/joacominatel/minalite/internal/app"
	"github.com/joacominatel/minalite/internal/database/sqlite"
	"github.com/stretchr/testify/assert"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	f := newFixture(t)
	e := newEnv()
	e.driver = sqlite.New(sqlite.Options{})
	e.service = app.NewService(e.driver, nil, nil)

	var out, errOut bytes.Buffer
	return &shell{env: e, path: f.db, out: &out, err: &errOut}, &out, &errOut
}

func TestShellDotCommands(t *testing.T) {
	t.Parallel()
	sh, out, errOut := newTestShell(t)
	ctx := context.Background()

	assert.False(t, sh.handle(ctx, ".tables"))
	assert.Contains(t, out.String(), "artists")

	out.Reset()
	assert.False(t, sh.handle(ctx, ".views"))
	assert.Contains(t, out.String(), "v_titles")

	out.Reset()
	assert.False(t, sh.handle(ctx, ".schema albums"))
	assert.Contains(t, out.String(), "artist_id")

	assert.False(t, sh.handle(ctx, ".schema"))
	assert.Contains(t, errOut.String(), "Usage: .schema <table>")

	assert.False(t, sh.handle(ctx, ".bogus"))
	assert.Contains(t, errOut.String(), "Unknown command: .bogus")

	out.Reset()
	assert.False(t, sh.handle(ctx, ".help"))
	assert.Contains(t, out.String(), ".schema <name>")

	assert.True(t, sh.handle(ctx, ".quit"))
	assert.True(t, sh.handle(ctx, ".EXIT"))
}

func TestShellMultiLineStatement(t *testing.T) {
	t.Parallel()
	sh, out, errOut := newTestShell(t)
	ctx := context.Background()

	assert.False(t, sh.handle(ctx, "SELECT name"))
	assert.Empty(t, out.String())
	assert.Positive(t, sh.buf.Len())

	assert.False(t, sh.handle(ctx, "FROM artists ORDER BY id;"))
	assert.Zero(t, sh.buf.Len())
	assert.Contains(t, out.String(), "Nina")
	assert.Contains(t, out.String(), "(2 rows,")
	assert.Empty(t, errOut.String())

	out.Reset()
	assert.False(t, sh.handle(ctx, "INSERT INTO artists (name) VALUES ('Ella');"))
	assert.Contains(t, out.String(), "1 row(s) affected")

	assert.False(t, sh.handle(ctx, "SELECT * FROM nope;"))
	assert.Contains(t, errOut.String(), "Error: query error:")
}
