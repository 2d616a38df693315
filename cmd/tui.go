package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/desertthunder/lbx/internal/tasks"
	"github.com/desertthunder/lbx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for archive syncing.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.source == nil {
		return fmt.Errorf("%w: ListenBrainz service not initialized", shared.ErrMissingConfig)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/lbx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	recorder, closeDB := r.newRunRecorder()
	defer closeDB()

	loadUsers := func() ([]ui.UserSummary, error) {
		return r.userSummaries()
	}
	buildEngine := func(username string) (tasks.SyncEngine, error) {
		return r.engineFor(username, recorder)
	}

	model := ui.NewModel(ctx, loadUsers, buildEngine)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
