package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/archive"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
)

// listenOrigin tags archive records fetched through the API crawl.
const listenOrigin = "listenbrainz_api"

// Crawler walks the remote listen history backward from the checkpoint,
// bridging the gap between local history and the server.
//
// Each fetched page is durably staged before the next page is requested, and
// committed through the [Reconciler] before the cursor advances. The crawl
// terminates on an empty page or when a page dips into already-known history.
type Crawler struct {
	source     services.ListenSource
	store      *archive.Store
	reconciler *Reconciler
	config     Config
	logger     *log.Logger
}

// NewCrawler creates a Crawler for the given source and store.
func NewCrawler(source services.ListenSource, store *archive.Store, reconciler *Reconciler, config Config, logger *log.Logger) *Crawler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Crawler{
		source:     source,
		store:      store,
		reconciler: reconciler,
		config:     config,
		logger:     logger.With("worker", WorkerListens),
	}
}

// Crawl runs the backward crawl to its terminal status.
//
// Cancellation is checked once per page boundary; a cancelled crawl stops
// without rollback, leaving whatever was already committed intact.
func (c *Crawler) Crawl(ctx context.Context, progress chan<- ProgressUpdate) ListensResult {
	var res ListensResult

	cp, err := c.store.Checkpoint()
	if err != nil {
		return c.fatal(res, err)
	}

	// Leftover staging from a prior incomplete run is committed before any
	// new page is requested, so no fetched data is ever silently lost.
	staged, err := c.store.StagedListens()
	if err != nil {
		return c.fatal(res, err)
	}
	if len(staged) > 0 {
		c.logger.Info("recovering staged listens from previous run", "count", len(staged))
		sendProgress(progress, recoverUpdate(len(staged)))

		committed, newCP, err := c.reconciler.Commit(staged)
		if err != nil {
			return c.fatal(res, err)
		}
		res.Committed += committed
		cp = newCP
	}

	boundary := cp.Boundary
	cursor := cp.Cursor
	total := res.Committed

	for {
		if ctx.Err() != nil {
			c.logger.Info("crawl cancelled", "committed", res.Committed)
			res.Status = StatusCancelled
			res.Err = shared.ErrCancelled
			return res
		}

		before := time.Now().UTC()
		if cursor > 0 {
			before = time.Unix(cursor, 0).UTC()
		}
		sendProgress(progress, fetchListensUpdate(total, before))

		page, err := c.source.FetchListensPage(ctx, c.config.Username, cursor, c.config.PageSize)
		if err != nil {
			return c.terminal(res, err)
		}

		if page.Empty() {
			// No older history on the server; the gap is closed by definition.
			res.GapClosed = true
			break
		}

		oldest := page.OldestTS()
		listens, skipped := models.NormalizeListens(page.Listens, listenOrigin)
		if skipped > 0 {
			c.logger.Warn("skipped malformed records", "count", skipped)
			res.Skipped += skipped
		}

		// Keep listens at the boundary second too: a distinct track played
		// in the same second as the local head is new, and the commit dedup
		// drops the one already archived.
		newItems := listens[:0:0]
		for _, listen := range listens {
			if listen.ListenedAt.Unix() >= boundary {
				newItems = append(newItems, listen)
			}
		}

		if len(newItems) > 0 {
			if err := c.store.AppendStaging(newItems); err != nil {
				return c.fatal(res, err)
			}
			committed, _, err := c.reconciler.Commit(newItems)
			if err != nil {
				return c.fatal(res, err)
			}
			res.Committed += committed
			total += len(newItems)
			sendProgress(progress, commitListensUpdate(res.Committed, committed))
		}

		if boundary > 0 && oldest <= boundary {
			res.GapClosed = true
			break
		}

		// A page that cannot move the cursor back would refetch forever.
		if oldest == 0 || (cursor > 0 && oldest >= cursor) {
			c.logger.Warn("page did not advance the cursor, stopping crawl", "cursor", cursor, "oldest", oldest)
			break
		}

		cursor = oldest

		if c.config.MaxListensPerRun > 0 && total >= c.config.MaxListensPerRun {
			c.logger.Info("per-run listen cap reached", "total", total)
			res.Status = StatusPartial
			return res
		}
	}

	if _, err := c.reconciler.Finalize(); err != nil {
		return c.fatal(res, err)
	}

	c.logger.Info("crawl complete", "committed", res.Committed, "skipped", res.Skipped)
	sendProgress(progress, gapClosedUpdate(res.Committed))
	res.Status = StatusCompleted
	return res
}

// terminal classifies a fetch error into the worker's terminal status.
func (c *Crawler) terminal(res ListensResult, err error) ListensResult {
	res.Err = err
	switch {
	case errors.Is(err, shared.ErrCancelled):
		res.Status = StatusCancelled
	case errors.Is(err, shared.ErrRetriesExceeded):
		// Checkpoint and staging remain valid starting points for next run.
		c.logger.Warn("retry budget exhausted, run is resumable", "err", err)
		res.Status = StatusPartial
	default:
		c.logger.Error("crawl failed", "err", err)
		res.Status = StatusFatal
	}
	return res
}

func (c *Crawler) fatal(res ListensResult, err error) ListensResult {
	c.logger.Error("crawl failed", "err", err)
	res.Status = StatusFatal
	res.Err = err
	return res
}
