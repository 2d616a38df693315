package tasks

import (
	"fmt"
	"time"
)

// Worker names used in progress updates.
const (
	WorkerListens = "listens"
	WorkerLikes   = "likes"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or TUI layer for display.
type ProgressUpdate struct {
	Worker  string // Originating worker (listens or likes)
	Phase   Phase  // Operation phase
	Count   int    // Records handled so far by this worker
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Recover Phase = iota
	FetchListens
	CommitListens
	FetchLikes
	CommitLikes
	Done
)

func (p Phase) String() string {
	switch p {
	case Recover:
		return "recover"
	case FetchListens:
		return "fetch_listens"
	case CommitListens:
		return "commit_listens"
	case FetchLikes:
		return "fetch_likes"
	case CommitLikes:
		return "commit_likes"
	case Done:
		return "done"
	default:
		return ""
	}
}

func recoverUpdate(staged int) ProgressUpdate {
	return ProgressUpdate{
		Worker:  WorkerListens,
		Phase:   Recover,
		Count:   staged,
		Message: fmt.Sprintf("Committing %d listens staged by a previous run...", staged),
	}
}

func fetchListensUpdate(total int, before time.Time) ProgressUpdate {
	return ProgressUpdate{
		Worker:  WorkerListens,
		Phase:   FetchListens,
		Count:   total,
		Message: fmt.Sprintf("Fetching listens before %s...", before.Format("2006-01-02 15:04")),
	}
}

func commitListensUpdate(total, batch int) ProgressUpdate {
	return ProgressUpdate{
		Worker:  WorkerListens,
		Phase:   CommitListens,
		Count:   total,
		Message: fmt.Sprintf("Committed %d new listens (%d this batch)", total, batch),
	}
}

func gapClosedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Worker:  WorkerListens,
		Phase:   CommitListens,
		Count:   total,
		Message: "Reached known history, crawl complete",
	}
}

func fetchLikesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Worker:  WorkerLikes,
		Phase:   FetchLikes,
		Count:   total,
		Message: fmt.Sprintf("Syncing likes (%d found)...", total),
	}
}

func commitLikesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Worker:  WorkerLikes,
		Phase:   CommitLikes,
		Count:   total,
		Message: fmt.Sprintf("Likes sync complete (%d)", total),
	}
}

func doneUpdate(summary *Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Count:   summary.Listens.Committed,
		Message: fmt.Sprintf("Sync %s", summary.Describe()),
		Data:    summary,
	}
}
