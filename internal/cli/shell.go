package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/joacominatel/minalite/internal/config"
	"github.com/spf13/cobra"
)

const (
	shellPrompt     = "minalite> "
	shellContPrompt = "     ...> "
	historyFileName = "shell_history"
)

func newShellCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "shell <database>",
		Short: "Interactive SQL shell",
		Long: `Interactive SQL shell.

Statements end with a semicolon and may span lines. Dot commands:
.tables, .views, .schema <table>, .help, .quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, e, args[0])
		},
	}
}

func runShell(cmd *cobra.Command, e *env, path string) error {
	ctx := cmd.Context()

	tree, err := e.service.LoadSchemaTree(ctx, path)
	if err != nil {
		return err
	}
	e.markOpened(path)

	cfgPath, err := config.Path(e.opts.configFile)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(cfgPath), historyFileName),
		AutoComplete:    newCompleter(e.service.AllTableNames(tree)),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sh := &shell{
		env:  e,
		path: path,
		out:  cmd.OutOrStdout(),
		err:  cmd.ErrOrStderr(),
	}

	_, _ = fmt.Fprintf(sh.out, "minalite %s (%s)\n", tree.Database, e.modeLabel())
	_, _ = fmt.Fprintln(sh.out, "Type .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			sh.buf.Reset()
			rl.SetPrompt(shellPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if sh.handle(ctx, line) {
			return nil
		}
		if sh.buf.Len() > 0 {
			rl.SetPrompt(shellContPrompt)
		} else {
			rl.SetPrompt(shellPrompt)
		}
	}
}

func newCompleter(names []string) *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(names)+5)
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".views"),
		readline.PcItem(".schema", pcItems(names)...),
		readline.PcItem(".quit"),
	)
	return readline.NewPrefixCompleter(items...)
}

func pcItems(names []string) []readline.PrefixCompleterInterface {
	items := make([]readline.PrefixCompleterInterface, len(names))
	for i, name := range names {
		items[i] = readline.PcItem(name)
	}
	return items
}

// shell interprets lines read by the REPL.
type shell struct {
	env  *env
	path string
	out  io.Writer
	err  io.Writer
	buf  strings.Builder
}

// handle processes one input line and reports whether the shell should exit.
func (s *shell) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if s.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return s.dotCommand(ctx, line)
	}

	// Accumulate multi-line SQL until semicolon
	s.buf.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		s.buf.WriteString("\n")
		return false
	}

	query := s.buf.String()
	s.buf.Reset()

	result, err := s.env.service.ExecuteQuery(ctx, s.path, query)
	if err != nil {
		s.fail(err)
		return false
	}
	if err := renderResult(s.out, result, formatTable); err != nil {
		s.fail(err)
	}
	return false
}

func (s *shell) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		_, _ = fmt.Fprint(s.out, `Commands:
  .tables         List tables
  .views          List views
  .schema <name>  Show columns of a table or view
  .help           Show this help
  .quit / .exit   Leave the shell

End SQL statements with a semicolon.
`)

	case ".tables":
		tables, err := s.env.service.ListTables(ctx, s.path)
		if err != nil {
			s.fail(err)
			return false
		}
		s.fail(renderTables(s.out, tables, nil, false, formatTable))

	case ".views":
		views, err := s.env.service.ListViews(ctx, s.path)
		if err != nil {
			s.fail(err)
			return false
		}
		s.fail(renderTables(s.out, nil, views, true, formatTable))

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.err, "Usage: .schema <table>")
			return false
		}
		infos, err := s.env.service.DescribeTables(ctx, s.path, parts[1:])
		if err != nil {
			s.fail(err)
			return false
		}
		s.fail(renderDescriptions(s.out, infos, formatTable))

	default:
		_, _ = fmt.Fprintf(s.err, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

// fail prints err, if any, without leaving the shell.
func (s *shell) fail(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(s.err, "Error: %v\n", err)
	}
}
