package tasks

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/archive"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
)

// LikesSync replaces the local liked-recordings snapshot with a freshly
// fetched full copy.
//
// Deliberately stateless: liked status carries no reliable change timestamp
// from the source, so only a full re-fetch can detect removals. The previous
// snapshot is never merged with and never touched until the complete new set
// is known.
type LikesSync struct {
	source services.ListenSource
	store  *archive.Store
	config Config
	logger *log.Logger
}

// NewLikesSync creates a LikesSync for the given source and store.
func NewLikesSync(source services.ListenSource, store *archive.Store, config Config, logger *log.Logger) *LikesSync {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LikesSync{
		source: source,
		store:  store,
		config: config,
		logger: logger.With("worker", WorkerLikes),
	}
}

// Sync fetches the full remote liked set and atomically replaces the local
// snapshot, returning the new set alongside the terminal status.
//
// On any failure before the full set is known the persisted snapshot is left
// untouched. Cancellation is checked once per page boundary.
func (ls *LikesSync) Sync(ctx context.Context, progress chan<- ProgressUpdate) (models.LikedSet, LikesResult) {
	var res LikesResult

	ids := make([]string, 0, ls.config.LikesPageSize)
	offset := 0

	for {
		if ctx.Err() != nil {
			ls.logger.Info("likes sync cancelled", "fetched", len(ids))
			res.Status = StatusCancelled
			res.Err = shared.ErrCancelled
			return nil, res
		}

		page, err := ls.source.FetchLikesPage(ctx, ls.config.Username, offset, ls.config.LikesPageSize)
		if err != nil {
			return nil, ls.terminal(res, err)
		}

		// Offset tracks raw server rows. A page shortened by filtering out
		// rows without a recording id must not look like the final page.
		ids = append(ids, page.MBIDs...)
		offset += page.Fetched
		sendProgress(progress, fetchLikesUpdate(len(ids)))

		if page.End(ls.config.LikesPageSize, offset) {
			break
		}
	}

	set := models.NewLikedSet(ids)
	err := ls.store.WithLock(func() error {
		return ls.store.ReplaceLikes(set)
	})
	if err != nil {
		ls.logger.Error("failed to persist likes snapshot", "err", err)
		res.Status = StatusFatal
		res.Err = err
		return nil, res
	}

	ls.logger.Info("likes sync complete", "count", len(set))
	sendProgress(progress, commitLikesUpdate(len(set)))
	res.Status = StatusCompleted
	res.Count = len(set)
	return set, res
}

// terminal classifies a fetch error into the worker's terminal status.
func (ls *LikesSync) terminal(res LikesResult, err error) LikesResult {
	res.Err = err
	switch {
	case errors.Is(err, shared.ErrCancelled):
		res.Status = StatusCancelled
	case errors.Is(err, shared.ErrRetriesExceeded):
		ls.logger.Warn("retry budget exhausted, snapshot left untouched", "err", err)
		res.Status = StatusPartial
	default:
		ls.logger.Error("likes sync failed", "err", err)
		res.Status = StatusFatal
	}
	return res
}
