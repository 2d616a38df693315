package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = userItem{}
)

// UserSummary describes one configured user and their local archive stats.
type UserSummary struct {
	Username string
	Listens  int
	Likes    int
}

// userItem wraps [UserSummary] to implement [list.Item].
type userItem struct {
	user UserSummary
}

func (i userItem) FilterValue() string { return i.user.Username }
func (i userItem) Title() string       { return i.user.Username }
func (i userItem) Description() string {
	return fmt.Sprintf("%d listens • %d liked", i.user.Listens, i.user.Likes)
}
