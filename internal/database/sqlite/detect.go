package sqlite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Format classifies a file by its header.
type Format string

const (
	FormatPlain     Format = "plain"
	FormatEncrypted Format = "encrypted"
	FormatUnknown   Format = "unknown"
)

const headerSize = 16

var (
	headerMagic    = []byte("SQLite format 3\x00")
	encryptedMagic = []byte{0x17, 0x07, 0x17, 0x07}
)

// DetectFormat reads the first bytes of path and guesses whether it is a plain
// SQLite database, an encrypted one, or something else. A file carrying the
// plain header is probed read-only; if the engine refuses it, it is reported
// as encrypted.
func (d *Driver) DetectFormat(ctx context.Context, path string) (Format, error) {
	header, err := readHeader(path)
	if err != nil {
		return "", err
	}

	if bytes.Equal(header, headerMagic) {
		probe := &Driver{mode: ModeReadOnly, logger: d.logger}
		conn, err := probe.Open(ctx, path)
		if err != nil {
			d.logger.Debug("plain header but open failed", "path", path, "error", err)
			return FormatEncrypted, nil
		}
		_ = conn.Close()
		return FormatPlain, nil
	}

	return classifyHeader(header), nil
}

func classifyHeader(header []byte) Format {
	if bytes.HasPrefix(header, encryptedMagic) {
		return FormatEncrypted
	}
	// Encrypted files start with a random salt instead of the magic string.
	if len(header) > 4 {
		for _, b := range header[4:] {
			if b != 0 {
				return FormatEncrypted
			}
		}
	}
	return FormatUnknown
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return header[:n], nil
}
