package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen chat and blocks until the user leaves or ctx ends.
func Run(ctx context.Context, config ModelConfig) error {
	config.Context = ctx

	p := tea.NewProgram(
		NewModel(config),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
