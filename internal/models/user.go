package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/lbx/internal/shared"
)

// User is a ListenBrainz account with a local archive.
type User struct {
	id        string
	sequence  int
	username  string
	token     string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewUser creates a User with the given sequence, username, and API token.
func NewUser(sequence int, username, token string) *User {
	now := time.Now().UTC()
	return &User{
		sequence:  sequence,
		username:  username,
		token:     token,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) Username() string      { return u.username }
func (u *User) Token() string         { return u.token }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)             { u.id = id }
func (u *User) SetToken(token string)       { u.token = token }
func (u *User) SetUpdatedAt(t time.Time)    { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)   { u.deletedAt = t }
func (u *User) SetCreatedAt(t time.Time)    { u.createdAt = t }
func (u *User) SetSequence(sequence int)    { u.sequence = sequence }
func (u *User) SetUsername(username string) { u.username = username }

// Validate checks that the user has a username.
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	return nil
}
