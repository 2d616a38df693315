package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/repositories"
	"github.com/desertthunder/lbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runRecorder adapts [repositories.SyncRunRepository] to [tasks.RunRecorder].
type runRecorder struct {
	repo *repositories.SyncRunRepository
}

func (rr *runRecorder) Record(summary *tasks.Summary) error {
	run := models.NewSyncRun(0, summary.Username, summary.StartedAt, summary.FinishedAt)
	run.SetID(summary.SessionID)
	run.SetStatuses(summary.Listens.Status.String(), summary.Likes.Status.String())
	run.SetCounts(summary.Listens.Committed, summary.Listens.Skipped, summary.Likes.Count)
	run.SetGapClosed(summary.Listens.GapClosed)
	return rr.repo.Create(run)
}

// newRunRecorder opens the database for run history, returning nil when the
// database is unavailable so a sync never fails on bookkeeping.
func (r *Runner) newRunRecorder() (tasks.RunRecorder, func()) {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("run history unavailable", "error", err)
		return nil, func() {}
	}
	return &runRecorder{repo: repositories.NewSyncRunRepository(db)}, func() { db.Close() }
}

// Sync runs the coordinated listens and likes sync for one user.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	username, err := r.resolveUsername(cmd)
	if err != nil {
		return err
	}

	if maxListens := cmd.Int("max-listens"); maxListens > 0 {
		r.config.Sync.MaxListensPerRun = maxListens
	}

	recorder, closeDB := r.newRunRecorder()
	defer closeDB()

	engine, err := r.engineFor(username, recorder)
	if err != nil {
		return err
	}

	// Ctrl-C requests a cooperative stop; committed work stays intact.
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.Phase == tasks.Done {
				continue
			}
			r.writePlain("%s\n", update.Message)
		}
	}()

	summary, err := engine.Run(runCtx, progress)
	close(progress)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaryPayload(summary), true)
	}

	r.printSummary(summary)
	return nil
}

// LikesSync refreshes only the liked-recordings snapshot.
func (r *Runner) LikesSync(ctx context.Context, cmd *cli.Command) error {
	username, err := r.resolveUsername(cmd)
	if err != nil {
		return err
	}
	if r.source == nil {
		return fmt.Errorf("ListenBrainz service not initialized")
	}

	store, err := r.storeFor(username)
	if err != nil {
		return err
	}

	engineConfig, err := tasks.ConfigFromShared(r.config)
	if err != nil {
		return err
	}
	engineConfig.Username = username

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	likes := tasks.NewLikesSync(r.source, store, engineConfig, r.logger)
	set, res := likes.Sync(runCtx, nil)
	if res.Err != nil {
		return fmt.Errorf("likes sync %s: %w", res.Status, res.Err)
	}

	r.writePlain("✓ Likes snapshot replaced: %d liked recordings\n", len(set))
	return nil
}

// summaryPayload flattens a run summary for JSON output.
func summaryPayload(summary *tasks.Summary) map[string]any {
	return map[string]any{
		"session_id":        summary.SessionID,
		"username":          summary.Username,
		"started_at":        summary.StartedAt,
		"finished_at":       summary.FinishedAt,
		"listens_status":    summary.Listens.Status.String(),
		"listens_committed": summary.Listens.Committed,
		"listens_skipped":   summary.Listens.Skipped,
		"gap_closed":        summary.Listens.GapClosed,
		"likes_status":      summary.Likes.Status.String(),
		"likes_count":       summary.Likes.Count,
	}
}

func (r *Runner) printSummary(summary *tasks.Summary) {
	r.writePlainHeader(fmt.Sprintf("Sync %s", summary.Describe()))
	r.writePlain("User: %s\n", summary.Username)
	r.writePlain("New listens: %d\n", summary.Listens.Committed)
	if summary.Listens.Skipped > 0 {
		r.writePlain("Skipped records: %d\n", summary.Listens.Skipped)
	}
	r.writePlain("Likes: %d (%s)\n", summary.Likes.Count, summary.Likes.Status)
	r.writePlain("Duration: %s\n", summary.Duration().Round(time.Millisecond))
}
