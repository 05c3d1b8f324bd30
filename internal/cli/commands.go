package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newTestCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "test <database>",
		Short: "Check whether a database file can be opened",
		Long: `Check whether a database file can be opened.

Always prints {"canOpen":true|false} and exits 0; the reason for a failure is
logged at info level.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := e.service.TestConnection(cmd.Context(), args[0])
			if status.CanOpen {
				e.markOpened(args[0])
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
		},
	}
}

func newTablesCommand(e *env) *cobra.Command {
	var withViews bool

	cmd := &cobra.Command{
		Use:   "tables <database>",
		Short: "List user tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !withViews {
				tables, err := e.service.ListTables(cmd.Context(), path)
				if err != nil {
					return err
				}
				e.markOpened(path)
				return renderTables(cmd.OutOrStdout(), tables, nil, false, e.opts.format)
			}

			tree, err := e.service.LoadSchemaTree(cmd.Context(), path)
			if err != nil {
				return err
			}
			e.markOpened(path)
			return renderTables(cmd.OutOrStdout(), tree.Tables, tree.Views, true, e.opts.format)
		},
	}

	cmd.Flags().BoolVar(&withViews, "views", false, "include views")
	return cmd
}

func newDescribeCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <database> <table>...",
		Short: "Show columns, row count and indexes of tables",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, tables := args[0], args[1:]
			infos, err := e.service.DescribeTables(cmd.Context(), path, tables)
			if err != nil {
				return err
			}
			e.markOpened(path)
			return renderDescriptions(cmd.OutOrStdout(), infos, e.opts.format)
		},
	}
}

func newQueryCommand(e *env) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "query <database> [SQL]",
		Short: "Run one SQL statement",
		Long: `Run one SQL statement and print its result.

The statement comes from the arguments, from --input, or from standard input.
Statements that return no columns print the number of affected rows.`,
		Example: `  minalite query app.db "SELECT * FROM users"
  minalite query app.db --input report.sql -f csv
  echo "DELETE FROM sessions" | minalite query app.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			query, err := readQuery(cmd.InOrStdin(), args[1:], input)
			if err != nil {
				return err
			}

			result, err := e.service.ExecuteQuery(cmd.Context(), path, query)
			if err != nil {
				return err
			}
			e.markOpened(path)
			return renderResult(cmd.OutOrStdout(), result, e.opts.format)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "read SQL from file")
	return cmd
}

// readQuery picks the statement from args, then the input file, then piped stdin.
func readQuery(stdin io.Reader, args []string, input string) (string, error) {
	var query string
	switch {
	case len(args) > 0:
		query = strings.Join(args, " ")
	case input != "":
		content, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		query = string(content)
	case !isTerminal(stdin):
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		query = string(content)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("no SQL given (pass it as an argument, with --input, or on stdin; use 'minalite shell' for interactive use)")
	}
	return query, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func newDetectCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <database>",
		Short: "Report whether a file is a plain or encrypted SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := e.driver.DetectFormat(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), format)
			return err
		},
	}
}

// statsRecent is how many events the stats command lists.
const statsRecent = 10

func newStatsCommand(e *env) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show connection attempt counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reset {
				e.service.ResetStats()
				e.statsReset = true
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "connection stats cleared")
				return err
			}
			return renderStats(cmd.OutOrStdout(), e.service.Stats(), e.service.RecentConnections(statsRecent), e.opts.format)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "clear counters and history")
	return cmd
}
