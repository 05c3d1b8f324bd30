package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joacominatel/minalite/internal/app"
	"github.com/joacominatel/minalite/internal/config"
	"github.com/joacominatel/minalite/internal/database/sqlite"
	"github.com/joacominatel/minalite/internal/logging"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configFile string
	logLevel   string
	format     outputFormat
	readOnly   bool
	create     bool
}

// env holds what every command needs once flags are parsed.
type env struct {
	opts    *globalOptions
	cfg     *config.Config
	logger  *slog.Logger
	driver  *sqlite.Driver
	service *app.Service
	cleanup func()

	// bookkeeping for persist
	loadedTotal int
	statsReset  bool
	opened      string
}

func newEnv() *env {
	return &env{
		opts:    &globalOptions{format: formatTable},
		logger:  slog.New(slog.DiscardHandler),
		cleanup: func() {},
	}
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(e.opts.configFile)
	if err != nil {
		return &app.ErrConfig{Cause: err}
	}
	e.cfg = cfg
	e.loadedTotal = cfg.Stats.Total

	levelName := cfg.Preferences.LogLevel
	if e.opts.logLevel != "" {
		levelName = e.opts.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return &app.ErrConfig{Cause: err}
	}

	// The terminal UI owns the screen, so it logs to a file next to the config.
	if cmd == cmd.Root() {
		cfgPath, err := config.Path(e.opts.configFile)
		if err != nil {
			return &app.ErrConfig{Cause: err}
		}
		logger, cleanup, err := logging.SetupFile(filepath.Dir(cfgPath), level)
		if err != nil {
			return &app.ErrConfig{Cause: err}
		}
		e.logger, e.cleanup = logger, cleanup
	} else {
		e.logger = logging.New(cmd.ErrOrStderr(), level)
	}

	e.driver = sqlite.New(sqlite.Options{Mode: e.mode(), Logger: e.logger})
	e.service = app.NewService(e.driver, app.NewTracker(cfg.Stats), e.logger)

	e.logger.Debug("command starting", "command", cmd.Name(), "mode", e.mode().String())
	return nil
}

// mode resolves how database files are opened; flags win over preferences.
func (e *env) mode() sqlite.Mode {
	switch {
	case e.opts.readOnly:
		return sqlite.ModeReadOnly
	case e.opts.create:
		return sqlite.ModeReadWriteCreate
	case e.cfg != nil && e.cfg.Preferences.ReadOnly:
		return sqlite.ModeReadOnly
	case e.cfg != nil && e.cfg.Preferences.CreateMissing:
		return sqlite.ModeReadWriteCreate
	default:
		return sqlite.ModeReadWrite
	}
}

// modeLabel is the human form of mode.
func (e *env) modeLabel() string {
	switch e.mode() {
	case sqlite.ModeReadOnly:
		return "read-only"
	case sqlite.ModeReadWriteCreate:
		return "create"
	default:
		return "read-write"
	}
}

// markOpened records a database file that opened successfully so it is saved
// to the recent list.
func (e *env) markOpened(path string) {
	e.opened = path
}

// persist saves the recent list and tracker counters when they changed.
func (e *env) persist() error {
	defer e.cleanup()
	if e.cfg == nil || e.service == nil {
		return nil
	}

	stats := e.service.Stats()
	if e.opened == "" && !e.statsReset && stats.Total == e.loadedTotal {
		return nil
	}
	e.cfg.Stats = stats

	if e.opened != "" {
		conn, err := config.NewConnection(e.opened)
		if err != nil {
			return &app.ErrConfig{Cause: err}
		}
		if err := config.SaveConnection(e.cfg, conn, e.opts.configFile); err != nil {
			return &app.ErrConfig{Cause: fmt.Errorf("save: %w", err)}
		}
		return nil
	}

	if err := config.Save(e.cfg, e.opts.configFile); err != nil {
		return &app.ErrConfig{Cause: fmt.Errorf("save: %w", err)}
	}
	return nil
}
