package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		mode Mode
		want string
	}{
		{name: "absolute", path: "/data/app.db", mode: ModeReadWrite, want: "file:///data/app.db?mode=rw"},
		{name: "relative create", path: "app.db", mode: ModeReadWriteCreate, want: "file:app.db?mode=rwc"},
		{name: "read only", path: "/data/app.db", mode: ModeReadOnly, want: "file:///data/app.db?mode=ro"},
		{name: "uri characters escaped", path: "/tmp/a?b#c%d.db", mode: ModeReadWrite, want: "file:///tmp/a%3fb%23c%25d.db?mode=rw"},
		{name: "leading double slash", path: "//tmp/app.db", mode: ModeReadWrite, want: "file:////tmp/app.db?mode=rw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DSN(tt.path, tt.mode))
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"users"`, QuoteIdent("users"))
	assert.Equal(t, `"my table"`, QuoteIdent("my table"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
	assert.Equal(t, `""`, QuoteIdent(""))
}
