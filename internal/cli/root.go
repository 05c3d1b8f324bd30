// Package cli wires the minalite commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// NewRootCommand builds the command tree. Without a subcommand it launches the
// terminal UI, optionally opening the database given as argument.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newEnv())
}

func newRootCommand(e *env) *cobra.Command {
	opts := e.opts

	root := &cobra.Command{
		Use:   "minalite [database]",
		Short: "Inspect and query SQLite database files",
		Long: `minalite is a terminal explorer for local SQLite database files.

Run it without a subcommand to open the interactive interface, or use the
subcommands below for scripting.`,
		Example: `  minalite ./app.db
  minalite tables ./app.db --views
  minalite describe ./app.db users orders
  minalite query ./app.db "SELECT * FROM users LIMIT 5" -f json`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runTUI(cmd, e, path)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ~/.minalite/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.VarP(&opts.format, "format", "f", "output format: table, json, csv")
	flags.BoolVar(&opts.readOnly, "read-only", false, "open database files read-only")
	flags.BoolVar(&opts.create, "create", false, "create the database file when it does not exist")
	root.MarkFlagsMutuallyExclusive("read-only", "create")

	root.AddCommand(
		newTestCommand(e),
		newTablesCommand(e),
		newDescribeCommand(e),
		newQueryCommand(e),
		newDetectCommand(e),
		newShellCommand(e),
		newStatsCommand(e),
	)

	return root
}

// Execute runs the command line and returns the process exit status.
// Errors are printed once, as "Error: <message>". Recent files and tracker
// counters are saved whether or not the command succeeded.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := newEnv()
	root := newRootCommand(e)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if perr := e.persist(); perr != nil {
		if err == nil {
			err = perr
		} else {
			e.logger.Warn("persist config", "error", perr)
		}
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
