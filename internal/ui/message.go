package ui

import (
	"github.com/desertthunder/lbx/internal/tasks"
)

// usersLoadedMsg carries the configured users for the list view.
type usersLoadedMsg struct {
	users []UserSummary
	err   error
}

// progressUpdateMsg wraps one worker progress event.
type progressUpdateMsg tasks.ProgressUpdate

// syncCompleteMsg carries the run's aggregated summary.
type syncCompleteMsg struct {
	summary *tasks.Summary
	err     error
}
