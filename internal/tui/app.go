package tui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minalite/internal/app"
	"github.com/joacominatel/minalite/internal/config"
	"github.com/joacominatel/minalite/internal/database"
	"github.com/joacominatel/minalite/internal/database/sqlite"
	"github.com/joacominatel/minalite/internal/tui/editor"
	"github.com/joacominatel/minalite/internal/tui/explorer"
	"github.com/joacominatel/minalite/internal/tui/results"
	"github.com/joacominatel/minalite/internal/tui/statusbar"
)

const (
	connectTimeout  = 10 * time.Second
	describeTimeout = 10 * time.Second
	schemaTimeout   = 15 * time.Second
	queryTimeout    = 30 * time.Second
)

// Pane identifies a focusable area.
type Pane int

const (
	PaneExplorer Pane = iota
	PaneEditor
	PaneResults
)

func (p Pane) String() string {
	switch p {
	case PaneExplorer:
		return "explorer"
	case PaneEditor:
		return "editor"
	case PaneResults:
		return "results"
	default:
		return "unknown"
	}
}

// AppMode tracks the current UI state.
type AppMode int

const (
	ModeSelectConnection AppMode = iota // recent database files
	ModeConnect                         // manual path input
	ModeMain                            // main TUI
)

// DetectFunc classifies a database file before it is opened.
type DetectFunc func(ctx context.Context, path string) (string, error)

// Options configures the top-level model.
type Options struct {
	// Path is opened immediately when set.
	Path string
	// ConfigFile is where recent files are saved; empty means the default location.
	ConfigFile string
	// Detect reports the file format shown next to the database name. Optional.
	Detect DetectFunc
	// ModeLabel describes how files are opened, e.g. "read-only". Optional.
	ModeLabel string
	Logger    *slog.Logger
}

// Custom messages for async operations.
type (
	connectedMsg struct {
		path   string
		format string
		err    error
	}
	schemaLoadedMsg struct {
		tree *app.SchemaTree
		err  error
	}
	queryExecutedMsg struct {
		query  string
		result *database.QueryResult
		err    error
	}
	tableDescribedMsg struct {
		table string
		info  *database.TableInfo
		err   error
	}
	connectionSavedMsg struct {
		err error
	}
)

// Model is the top-level bubbletea model orchestrating all components.
type Model struct {
	service    *app.Service
	cfg        *config.Config
	opts       Options
	logger     *slog.Logger
	explorer   explorer.Model
	editor     editor.Model
	results    results.Model
	statusbar  statusbar.Model
	connInput  textinput.Model
	activePane Pane
	mode       AppMode
	width      int
	height     int
	err        error
	showHelp   bool

	// Connection selection
	connCursor int
	dbPath     string // the file backing the main view
	format     string // detected format of dbPath
}

// NewModel creates the top-level model.
func NewModel(service *app.Service, cfg *config.Config, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "./data/app.db"
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 70

	if cfg == nil {
		cfg = &config.Config{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Decide initial mode
	mode := ModeConnect
	if opts.Path == "" && len(cfg.Connections) > 0 {
		mode = ModeSelectConnection
	}

	m := Model{
		service:    service,
		cfg:        cfg,
		opts:       opts,
		logger:     logger,
		explorer:   explorer.New(),
		editor:     editor.New(),
		results:    results.New(),
		statusbar:  statusbar.New(),
		connInput:  ti,
		activePane: PaneExplorer,
		mode:       mode,
	}

	// Preselect the default database
	if def := config.DefaultConnection(cfg); def != nil {
		m.connCursor = slices.IndexFunc(cfg.Connections, func(c config.Connection) bool {
			return c.Path == def.Path
		})
	}

	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
	}

	// A path given on the command line is opened immediately
	if m.opts.Path != "" {
		cmds = append(cmds, m.connectCmd(m.opts.Path))
	}

	return tea.Batch(cmds...)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Check for explorer describe requests
	if table, ok := explorer.IsRequestDescribeMsg(msg); ok {
		return m, m.describeCmd(table)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		// Global keys
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}

		// Help toggle
		if msg.String() == "?" && m.mode == ModeMain && m.activePane != PaneEditor {
			m.showHelp = !m.showHelp
			return m, nil
		}

		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		// Mode-specific key handling
		switch m.mode {
		case ModeSelectConnection:
			return m.updateSelectConnection(msg)
		case ModeConnect:
			return m.updateConnect(msg)
		case ModeMain:
			return m.updateMain(msg)
		}

	case connectedMsg:
		if msg.err != nil {
			m.err = msg.err
			if msg.format == string(sqlite.FormatEncrypted) {
				m.err = fmt.Errorf("%w (file looks encrypted)", msg.err)
			}
			m.statusbar.SetMessage("Open failed")
			return m, nil
		}
		m.dbPath = msg.path
		m.format = msg.format
		m.mode = ModeMain
		m.err = nil
		m.explorer.SetLoading(true)
		m.statusbar.SetConnected(true, filepath.Base(msg.path))
		m.statusbar.SetDetail(m.detail())
		m.statusbar.SetMessage("")
		m.setFocus(PaneExplorer)
		m.layout()

		return m, tea.Batch(m.loadSchemaCmd(), m.saveConnectionCmd(msg.path))

	case connectionSavedMsg:
		if msg.err != nil {
			m.logger.Warn("save recent database", "error", msg.err)
			m.statusbar.SetMessage("Warning: could not save recent file")
		}
		return m, nil

	case schemaLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.explorer.SetLoading(false)
			m.statusbar.SetMessage("Failed to load schema: " + msg.err.Error())
			return m, nil
		}
		m.explorer.SetTree(msg.tree)
		m.statusbar.SetMessage("")
		// Cache table names for editor autocompletion
		m.editor.SetTableNames(m.service.AllTableNames(msg.tree))
		return m, nil

	case queryExecutedMsg:
		m.results.SetLoading(false)
		m.results.SetLastQuery(msg.query)
		if msg.err != nil {
			m.results.SetError(msg.err)
			m.statusbar.SetMessage("")
			return m, nil
		}
		m.results.SetResult(msg.result)
		m.statusbar.SetMessage("")
		// Writes and DDL may change the tree
		if msg.result.IsWrite() {
			return m, m.loadSchemaCmd()
		}
		return m, nil

	case tableDescribedMsg:
		if msg.err != nil {
			m.explorer.MarkFailed(msg.table)
			m.statusbar.SetMessage("Failed to describe " + msg.table + ": " + msg.err.Error())
			return m, nil
		}
		m.explorer.SetTableInfo(msg.info)
		return m, nil

	case explorer.QuickQueryMsg:
		m.editor.SetQuery(msg.Query)
		return m.startQuery(msg.Query)

	case explorer.RefreshMsg:
		m.explorer.SetLoading(true)
		return m, m.loadSchemaCmd()

	case editor.ExecuteQueryMsg:
		return m.startQuery(msg.Query)

	case results.SetEditorQueryMsg:
		m.editor.SetQuery(msg.Query)
		m.setFocus(PaneEditor)
		return m, nil

	case results.StatusNotifyMsg:
		m.statusbar.SetMessage(msg.Message)
		return m, nil
	}

	// Pass through to active component
	if m.mode == ModeMain {
		return m.updateComponents(msg)
	}

	return m, nil
}

// startQuery marks the results pane busy and dispatches query.
func (m Model) startQuery(query string) (tea.Model, tea.Cmd) {
	m.results.SetLoading(true)
	if database.LooksLikeRead(query) {
		m.statusbar.SetMessage("Running query...")
	} else {
		m.statusbar.SetMessage("Running statement...")
	}
	return m, m.executeQueryCmd(query)
}

// detail is the muted text next to the database name in the status bar.
func (m Model) detail() string {
	var parts []string
	if m.format != "" {
		parts = append(parts, m.format)
	}
	if m.opts.ModeLabel != "" {
		parts = append(parts, m.opts.ModeLabel)
	}
	return strings.Join(parts, " · ")
}

func (m Model) updateSelectConnection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	connCount := len(m.cfg.Connections)

	switch msg.String() {
	case "up", "k":
		if m.connCursor > 0 {
			m.connCursor--
		}
	case "down", "j":
		if m.connCursor < connCount { // connCount = last item is "Open file"
			m.connCursor++
		}
	case "enter":
		if m.connCursor < connCount {
			conn := m.cfg.Connections[m.connCursor]
			m.statusbar.SetMessage("Opening " + conn.Name + "...")
			return m, m.connectCmd(conn.Path)
		}
		// "Open file" selected
		m.mode = ModeConnect
		m.connInput.Focus()
		return m, nil
	case "n":
		m.mode = ModeConnect
		m.connInput.Focus()
		return m, nil
	case "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) updateConnect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := strings.TrimSpace(m.connInput.Value())
		if path != "" {
			m.statusbar.SetMessage("Opening...")
			return m, m.connectCmd(path)
		}
		return m, nil
	case "esc":
		if len(m.cfg.Connections) > 0 {
			m.mode = ModeSelectConnection
			return m, nil
		}
	case "q":
		if m.connInput.Value() == "" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.connInput, cmd = m.connInput.Update(msg)
	return m, cmd
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		if m.activePane != PaneEditor {
			return m, tea.Quit
		}
	case "tab":
		if m.activePane == PaneEditor && m.editor.CompletionActive() {
			return m.updateComponents(msg)
		}
		m.cyclePane()
		return m, nil
	case "shift+tab":
		m.cyclePaneBack()
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.activePane {
	case PaneExplorer:
		m.explorer, cmd = m.explorer.Update(msg)
	case PaneEditor:
		m.editor, cmd = m.editor.Update(msg)
	case PaneResults:
		m.results, cmd = m.results.Update(msg)
	}

	return m, cmd
}

func (m *Model) cyclePane() {
	switch m.activePane {
	case PaneExplorer:
		m.setFocus(PaneEditor)
	case PaneEditor:
		m.setFocus(PaneResults)
	case PaneResults:
		m.setFocus(PaneExplorer)
	}
}

func (m *Model) cyclePaneBack() {
	switch m.activePane {
	case PaneExplorer:
		m.setFocus(PaneResults)
	case PaneEditor:
		m.setFocus(PaneExplorer)
	case PaneResults:
		m.setFocus(PaneEditor)
	}
}

func (m *Model) setFocus(pane Pane) {
	m.activePane = pane
	m.explorer.SetFocused(pane == PaneExplorer)
	m.editor.SetFocused(pane == PaneEditor)
	m.results.SetFocused(pane == PaneResults)
	m.statusbar.SetActivePane(pane.String())
}

// paneSizes splits the screen between explorer, editor and results.
func (m Model) paneSizes() (explorerWidth, rightWidth, availHeight, editorHeight int) {
	availHeight = m.height - 1 // status bar

	explorerWidth = min(max(m.width/4, 22), 35)
	rightWidth = m.width - explorerWidth - 1

	editorHeight = max(availHeight*40/100, 5)
	return explorerWidth, rightWidth, availHeight, editorHeight
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	explorerWidth, rightWidth, availHeight, editorHeight := m.paneSizes()
	resultsHeight := availHeight - editorHeight - 1

	m.explorer.SetSize(explorerWidth, availHeight)
	m.editor.SetSize(rightWidth, editorHeight)
	m.results.SetSize(rightWidth, resultsHeight)
	m.statusbar.SetWidth(m.width)
}

// Async commands

func (m Model) connectCmd(path string) tea.Cmd {
	service := m.service
	detect := m.opts.Detect
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		var format string
		if detect != nil {
			f, err := detect(ctx, path)
			if err != nil {
				logger.Debug("format detection failed", "path", path, "error", err)
			}
			format = f
		}
		err := service.Connect(ctx, path)
		return connectedMsg{path: path, format: format, err: err}
	}
}

// saveConnectionCmd records path in the recent list and persists the config,
// including the tracker counters.
func (m Model) saveConnectionCmd(path string) tea.Cmd {
	conn, err := config.NewConnection(path)
	if err != nil {
		return func() tea.Msg { return connectionSavedMsg{err: err} }
	}
	m.cfg.AddConnection(conn)
	m.cfg.Stats = m.service.Stats()

	snapshot := *m.cfg
	snapshot.Connections = slices.Clone(m.cfg.Connections)
	file := m.opts.ConfigFile
	return func() tea.Msg {
		return connectionSavedMsg{err: config.Save(&snapshot, file)}
	}
}

func (m Model) loadSchemaCmd() tea.Cmd {
	service := m.service
	path := m.dbPath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		tree, err := service.LoadSchemaTree(ctx, path)
		return schemaLoadedMsg{tree: tree, err: err}
	}
}

func (m Model) executeQueryCmd(query string) tea.Cmd {
	service := m.service
	path := m.dbPath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		result, err := service.ExecuteQuery(ctx, path, query)
		return queryExecutedMsg{query: query, result: result, err: err}
	}
}

func (m Model) describeCmd(table string) tea.Cmd {
	service := m.service
	path := m.dbPath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), describeTimeout)
		defer cancel()
		info, err := service.DescribeTable(ctx, path, table)
		return tableDescribedMsg{table: table, info: info, err: err}
	}
}
