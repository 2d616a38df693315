package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ArchiveStatus shows archive size, checkpoint, and staging state for a user.
func (r *Runner) ArchiveStatus(ctx context.Context, cmd *cli.Command) error {
	username, err := r.resolveUsername(cmd)
	if err != nil {
		return err
	}

	store, err := r.storeFor(username)
	if err != nil {
		return err
	}

	listens, err := store.Listens()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	likes, err := store.Likes()
	if err != nil {
		return fmt.Errorf("failed to read likes: %w", err)
	}
	cp, err := store.Checkpoint()
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	staged, err := store.StagedListens()
	if err != nil {
		return fmt.Errorf("failed to read staging: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"username":    username,
			"listens":     len(listens),
			"likes":       len(likes),
			"boundary_ts": cp.Boundary,
			"cursor_ts":   cp.Cursor,
			"resuming":    cp.Resuming(),
			"staged":      len(staged),
		}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Archive for %s", username))
	r.writePlain("Listens: %d\n", len(listens))
	r.writePlain("Liked recordings: %d\n", len(likes))
	if cp.Boundary > 0 {
		r.writePlain("History up to: %s\n", time.Unix(cp.Boundary, 0).UTC().Format("2006-01-02 15:04"))
	} else {
		r.writePlain("History up to: (empty)\n")
	}
	if cp.Resuming() {
		r.writePlain("In-flight crawl cursor: %s\n", time.Unix(cp.Cursor, 0).UTC().Format("2006-01-02 15:04"))
	}
	if len(staged) > 0 {
		r.writePlain("Staged (uncommitted) listens: %d\n", len(staged))
	}
	return nil
}

// ArchiveListens prints the most recent archived listens.
func (r *Runner) ArchiveListens(ctx context.Context, cmd *cli.Command) error {
	username, err := r.resolveUsername(cmd)
	if err != nil {
		return err
	}
	limit := cmd.Int("limit")

	store, err := r.storeFor(username)
	if err != nil {
		return err
	}

	listens, err := store.Listens()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	// The archive is stored oldest first; show the newest tail.
	if limit > 0 && limit < len(listens) {
		listens = listens[len(listens)-limit:]
	}

	if cmd.Bool("json") {
		data, err := formatter.ToListensJSON(listens)
		if err != nil {
			return err
		}
		r.writePlain("%s\n", data)
		return nil
	}

	for i := len(listens) - 1; i >= 0; i-- {
		listen := listens[i]
		r.writePlain("%s  %s - %s\n",
			listen.ListenedAt.UTC().Format("2006-01-02 15:04"), listen.Artist, listen.Track)
	}
	return nil
}

// LikesList prints the liked recording MBIDs in the local snapshot.
func (r *Runner) LikesList(ctx context.Context, cmd *cli.Command) error {
	username, err := r.resolveUsername(cmd)
	if err != nil {
		return err
	}

	store, err := r.storeFor(username)
	if err != nil {
		return err
	}

	likes, err := store.Likes()
	if err != nil {
		return fmt.Errorf("failed to read likes: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(likes.Sorted(), true)
	}

	for _, id := range likes.Sorted() {
		r.writePlain("%s\n", id)
	}
	r.writePlain("%d liked recordings\n", len(likes))
	return nil
}

// ArchiveExport exports the archive to CSV, Markdown, or plain text.
func (r *Runner) ArchiveExport(ctx context.Context, cmd *cli.Command) error {
	username, err := r.resolveUsername(cmd)
	if err != nil {
		return err
	}
	format := strings.ToLower(cmd.String("format"))
	output := cmd.String("output")

	store, err := r.storeFor(username)
	if err != nil {
		return err
	}

	listens, err := store.Listens()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	likes, err := store.Likes()
	if err != nil {
		return fmt.Errorf("failed to read likes: %w", err)
	}

	export := &formatter.ArchiveExport{
		Username: username,
		Listens:  listens,
		Likes:    likes,
	}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d listens to %s\n", len(listens), result.ListensFile)
		r.writePlain("✓ Exported %d likes to %s\n", len(likes), result.LikesFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d listens to %s\n", len(listens), path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d listens to %s\n", len(listens), path)
	default:
		return fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}

	return nil
}
