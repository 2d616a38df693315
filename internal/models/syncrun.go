package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/lbx/internal/shared"
)

// SyncRun records the outcome of one coordinated sync run: the terminal
// status of each worker plus the counts presented to the user.
type SyncRun struct {
	id               string
	sequence         int
	username         string
	listensStatus    string
	likesStatus      string
	listensCommitted int
	listensSkipped   int
	likesCount       int
	gapClosed        bool
	startedAt        time.Time
	finishedAt       time.Time
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewSyncRun creates a SyncRun for the given user spanning the given window.
func NewSyncRun(sequence int, username string, startedAt, finishedAt time.Time) *SyncRun {
	now := time.Now().UTC()
	return &SyncRun{
		sequence:   sequence,
		username:   username,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *SyncRun) ID() string            { return r.id }
func (r *SyncRun) Sequence() int         { return r.sequence }
func (r *SyncRun) Username() string      { return r.username }
func (r *SyncRun) ListensStatus() string { return r.listensStatus }
func (r *SyncRun) LikesStatus() string   { return r.likesStatus }
func (r *SyncRun) ListensCommitted() int { return r.listensCommitted }
func (r *SyncRun) ListensSkipped() int   { return r.listensSkipped }
func (r *SyncRun) LikesCount() int       { return r.likesCount }
func (r *SyncRun) GapClosed() bool       { return r.gapClosed }
func (r *SyncRun) StartedAt() time.Time  { return r.startedAt }
func (r *SyncRun) FinishedAt() time.Time { return r.finishedAt }
func (r *SyncRun) CreatedAt() time.Time  { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time  { return r.updatedAt }
func (r *SyncRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *SyncRun) SetID(id string)           { r.id = id }
func (r *SyncRun) SetSequence(sequence int)  { r.sequence = sequence }
func (r *SyncRun) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *SyncRun) SetCreatedAt(t time.Time)  { r.createdAt = t }
func (r *SyncRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *SyncRun) SetGapClosed(closed bool)  { r.gapClosed = closed }

// SetStatuses records the terminal status of each worker.
func (r *SyncRun) SetStatuses(listens, likes string) {
	r.listensStatus = listens
	r.likesStatus = likes
}

// SetCounts records the user-visible result counts.
func (r *SyncRun) SetCounts(committed, skipped, likes int) {
	r.listensCommitted = committed
	r.listensSkipped = skipped
	r.likesCount = likes
}

// Validate checks that the run names a user and both worker statuses.
func (r *SyncRun) Validate() error {
	if r.username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if r.listensStatus == "" || r.likesStatus == "" {
		return fmt.Errorf("%w: both worker statuses are required", shared.ErrInvalidInput)
	}
	return nil
}
