package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/minalite/internal/tui"
	"github.com/joacominatel/minalite/internal/tui/theme"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, e *env, path string) error {
	if !theme.Use(e.cfg.Preferences.Theme) {
		e.logger.Warn("unknown theme, using default", "theme", e.cfg.Preferences.Theme)
	}

	model := tui.NewModel(e.service, e.cfg, tui.Options{
		Path:       path,
		ConfigFile: e.opts.configFile,
		Detect: func(ctx context.Context, p string) (string, error) {
			f, err := e.driver.DetectFormat(ctx, p)
			return string(f), err
		},
		ModeLabel: e.modeLabel(),
		Logger:    e.logger,
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
