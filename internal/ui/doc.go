// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for archive syncing:
//  1. [UserListView] : Browse configured users and their archive stats
//  2. [ConfirmView] : Confirm the sync operation
//  3. [SyncView] : Monitor real-time per-worker progress updates
//  4. [ResultView] : Display the aggregated run summary
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync engine, providing non-blocking status reporting while both workers run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
