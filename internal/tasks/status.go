package tasks

import (
	"fmt"
	"time"
)

// Status is a worker's terminal state for one run.
type Status int

const (
	// StatusCompleted means the worker reached the natural end of its work.
	StatusCompleted Status = iota
	// StatusPartial means the worker stopped early (retry budget exhausted or
	// the per-run cap was hit); durable state is a valid resume point.
	StatusPartial
	// StatusCancelled means the shared cancellation flag stopped the worker;
	// everything already committed stays intact.
	StatusCancelled
	// StatusFatal means a persistence or auth failure ended the run; prior
	// durable state is untouched and replayable.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusPartial:
		return "partial"
	case StatusCancelled:
		return "cancelled"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ListensResult is the listens worker's terminal report.
type ListensResult struct {
	Status    Status
	Committed int   // Newly committed listens
	Skipped   int   // Malformed records skipped
	GapClosed bool  // Whether the crawl reached already-known history
	Err       error // Terminal error for partial/fatal statuses
}

// LikesResult is the likes worker's terminal report.
type LikesResult struct {
	Status Status
	Count  int   // Size of the synced liked set
	Err    error // Terminal error for partial/fatal statuses
}

// Summary aggregates both workers' terminal statuses for one run.
//
// The coordinator produces exactly one Summary per run, after both workers
// have finished.
type Summary struct {
	SessionID  string
	Username   string
	StartedAt  time.Time
	FinishedAt time.Time
	Listens    ListensResult
	Likes      LikesResult
}

// Duration returns the wall-clock length of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Describe renders the user-visible outcome of the listens sync.
func (s *Summary) Describe() string {
	switch s.Listens.Status {
	case StatusCompleted:
		if s.Listens.Skipped > 0 {
			return fmt.Sprintf("completed with %d records skipped", s.Listens.Skipped)
		}
		return "fully completed"
	case StatusPartial:
		return "paused, resumable on next run"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}
