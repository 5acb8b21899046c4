package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/desertthunder/seatx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive seat finder.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	finder := r.newFinder(true)
	defer finder.Poller().Stop()

	model := ui.NewModel(ctx, finder, ui.Options{
		RollNumber: cmd.String("roll"),
		Date:       cmd.String("date"),
		OutputDir:  cmd.String("output-dir"),
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithReportFocus())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
