package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/lbx/internal/repositories"
	"github.com/urfave/cli/v3"
)

// RunsList lists recorded sync runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if username := cmd.String("user"); username != "" {
		criteria["username"] = username
	}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}

	repo := repositories.NewSyncRunRepository(db)
	runs, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		r.writePlain("No sync runs recorded\n")
		return nil
	}

	if cmd.Bool("json") {
		payload := make([]map[string]any, 0, len(runs))
		for _, run := range runs {
			payload = append(payload, map[string]any{
				"id":                run.ID(),
				"username":          run.Username(),
				"listens_status":    run.ListensStatus(),
				"likes_status":      run.LikesStatus(),
				"listens_committed": run.ListensCommitted(),
				"listens_skipped":   run.ListensSkipped(),
				"likes_count":       run.LikesCount(),
				"gap_closed":        run.GapClosed(),
				"started_at":        run.StartedAt(),
				"finished_at":       run.FinishedAt(),
			})
		}
		return r.writeJSON(payload, true)
	}

	r.writePlainHeader("Sync runs")
	for _, run := range runs {
		duration := run.FinishedAt().Sub(run.StartedAt()).Round(time.Second)
		r.writePlain("%s  %-16s listens=%s (%d new) likes=%s (%d)  %s\n",
			run.StartedAt().UTC().Format("2006-01-02 15:04"),
			run.Username(),
			run.ListensStatus(), run.ListensCommitted(),
			run.LikesStatus(), run.LikesCount(),
			duration,
		)
	}
	return nil
}
