package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lbx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	UserListView ViewState = iota
	ConfirmView
	SyncView
	ResultView
)

// UserLoader fetches the configured users shown in the list view.
type UserLoader func() ([]UserSummary, error)

// EngineFactory builds a sync engine for the selected user.
type EngineFactory func(username string) (tasks.SyncEngine, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	loadUsers    UserLoader
	buildEngine  EngineFactory
	width        int
	height       int
	userList     list.Model
	users        []UserSummary
	selected     UserSummary
	progressChan chan tasks.ProgressUpdate
	listens      tasks.ProgressUpdate
	likes        tasks.ProgressUpdate
	summary      *tasks.Summary
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, loadUsers UserLoader, buildEngine EngineFactory) *Model {
	return &Model{
		ctx:         ctx,
		view:        UserListView,
		loadUsers:   loadUsers,
		buildEngine: buildEngine,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init initializes the TUI by loading the configured users.
func (m *Model) Init() tea.Cmd {
	return m.fetchUsers()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.userList.Width() == 0 {
			m.userList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case UserListView:
			return m.handleUserListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case usersLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.users = msg.users
		items := make([]list.Item, len(msg.users))
		for i, user := range msg.users {
			items[i] = userItem{user: user}
		}
		m.userList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.userList.Title = "ListenBrainz Users"
		m.userList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		update := tasks.ProgressUpdate(msg)
		switch update.Worker {
		case tasks.WorkerListens:
			m.listens = update
		case tasks.WorkerLikes:
			m.likes = update
		}
		return m, m.waitForProgress()

	case syncCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	if m.view == UserListView {
		var cmd tea.Cmd
		m.userList, cmd = m.userList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case UserListView:
		return m.renderUserList()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleUserListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.userList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(userItem); ok {
				m.selected = item.user
				m.view = ConfirmView
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.userList, cmd = m.userList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = UserListView
		return m, nil
	case "y", "enter":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The run finishes on its own; only quit is honored mid-sync.
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = UserListView
		m.summary = nil
		m.err = nil
		m.listens = tasks.ProgressUpdate{}
		m.likes = tasks.ProgressUpdate{}
		return m, m.fetchUsers()
	}
	return m, nil
}

func (m *Model) fetchUsers() tea.Cmd {
	return func() tea.Msg {
		users, err := m.loadUsers()
		return usersLoadedMsg{users: users, err: err}
	}
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		engine, err := m.buildEngine(m.selected.Username)
		if err != nil {
			m.err = err
			close(progressChan)
			return
		}
		summary, err := engine.Run(m.ctx, progressChan)
		m.summary = summary
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return syncCompleteMsg{summary: m.summary, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return syncCompleteMsg{summary: m.summary, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderUserList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.userList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Sync listen history for '%s'?", m.selected.Username))
	info := fmt.Sprintf("\nLocal archive: %d listens, %d liked\n", m.selected.Listens, m.selected.Likes)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Syncing '%s'", m.selected.Username))

	listensLine := "Listens: starting..."
	if m.listens.Message != "" {
		listensLine = fmt.Sprintf("Listens: %s", m.listens.Message)
	}
	likesLine := "Likes: starting..."
	if m.likes.Message != "" {
		likesLine = fmt.Sprintf("Likes: %s", m.likes.Message)
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, listensLine, likesLine)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to sync again, q to quit", m.err))
	}

	if m.summary == nil {
		return styles.err.Render("No summary available\n\nPress r to sync again, q to quit")
	}

	title := styles.ok.Render(fmt.Sprintf("Sync %s", m.summary.Describe()))
	info := fmt.Sprintf(
		"\nUser: %s\nNew listens: %d\nLiked recordings: %d\nDuration: %s",
		m.summary.Username,
		m.summary.Listens.Committed,
		m.summary.Likes.Count,
		m.summary.Duration().Round(time.Millisecond),
	)

	var warnings string
	if m.summary.Listens.Skipped > 0 {
		warnings = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Skipped %d malformed records", m.summary.Listens.Skipped)))
	}
	if m.summary.Likes.Status != tasks.StatusCompleted {
		warnings += fmt.Sprintf("\n%s", styles.warn.Render(fmt.Sprintf("Likes sync %s", m.summary.Likes.Status)))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s%s\n\n%s", title, info, warnings, helpView)
}
