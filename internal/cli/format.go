package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

// outputFormat is the --format flag value.
type outputFormat string

var _ pflag.Value = (*outputFormat)(nil)

func (f *outputFormat) String() string {
	return string(*f)
}

func (f *outputFormat) Set(s string) error {
	switch v := strings.ToLower(s); v {
	case formatTable, formatJSON, formatCSV:
		*f = outputFormat(v)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", s)
	}
}

func (f *outputFormat) Type() string {
	return "format"
}
