package sqlite

import (
	"path/filepath"
	"strings"
)

// Mode controls how a database file is opened.
type Mode int

const (
	// ModeReadWrite opens existing files only; a missing file is an error.
	ModeReadWrite Mode = iota
	// ModeReadWriteCreate lets the engine create an empty database when the file is missing.
	ModeReadWriteCreate
	// ModeReadOnly opens existing files without write access.
	ModeReadOnly
)

func (m Mode) String() string {
	switch m {
	case ModeReadWriteCreate:
		return "rwc"
	case ModeReadOnly:
		return "ro"
	default:
		return "rw"
	}
}

// uriEscaper escapes the characters SQLite's URI parser would otherwise interpret.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// DSN builds a file: URI for path so the mode parameter reaches the engine.
func DSN(path string, mode Mode) string {
	p := filepath.ToSlash(path)
	if filepath.VolumeName(path) != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	// An absolute path gets an empty authority, otherwise "//x/..." would
	// name host x.
	prefix := "file:"
	if strings.HasPrefix(p, "/") {
		prefix = "file://"
	}
	return prefix + uriEscaper.Replace(p) + "?mode=" + mode.String()
}

// QuoteIdent quotes name as an SQLite identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
