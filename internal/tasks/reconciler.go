package tasks

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/archive"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// Reconciler merges staged batches into the canonical archive.
//
// Commits run under the store's exclusive lock: the merged archive is written
// to a temporary file and atomically swapped into place, then the staging
// batch is cleared and the checkpoint cursor advanced. A crash at any point
// leaves a state the next run can replay idempotently.
type Reconciler struct {
	store     *archive.Store
	precision models.Precision
	logger    *log.Logger
}

// NewReconciler creates a Reconciler committing to the given store,
// deduplicating at the given timestamp precision.
func NewReconciler(store *archive.Store, precision models.Precision, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reconciler{store: store, precision: precision, logger: logger}
}

// Commit deduplicates batch against the archive and commits the survivors.
//
// Returns the number of newly committed listens and the updated checkpoint,
// whose cursor now points at the oldest timestamp included in the commit.
// The checkpoint boundary is left untouched; the crawler finalizes it once
// the gap is closed. On any persistence failure all prior durable state is
// left intact and the error wraps [shared.ErrPersistence].
func (r *Reconciler) Commit(batch []models.Listen) (int, models.Checkpoint, error) {
	var committed int
	var cp models.Checkpoint

	if len(batch) == 0 {
		cp, err := r.store.Checkpoint()
		return 0, cp, err
	}

	err := r.store.WithLock(func() error {
		existing, err := r.store.Listens()
		if err != nil {
			return err
		}
		cp, err = r.store.Checkpoint()
		if err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(existing))
		for _, listen := range existing {
			seen[listen.DedupKey(r.precision)] = struct{}{}
		}

		merged := existing
		oldest := batch[0].ListenedAt
		for _, listen := range batch {
			if listen.ListenedAt.Before(oldest) {
				oldest = listen.ListenedAt
			}
			key := listen.DedupKey(r.precision)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, listen)
			committed++
		}

		if err := r.store.ReplaceListens(merged); err != nil {
			return err
		}
		if err := r.store.ClearStaging(); err != nil {
			return err
		}

		cp.Cursor = oldest.Unix()
		if err := r.store.SaveCheckpoint(cp); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, cp, fmt.Errorf("commit failed: %w", err)
	}

	r.logger.Debug("batch committed", "batch", len(batch), "new", committed, "cursor", cp.Cursor)
	return committed, cp, nil
}

// Finalize marks the crawl complete: the boundary moves to the newest
// committed listen and the in-flight cursor is reset.
func (r *Reconciler) Finalize() (models.Checkpoint, error) {
	var cp models.Checkpoint

	err := r.store.WithLock(func() error {
		listens, err := r.store.Listens()
		if err != nil {
			return err
		}

		cp = models.Checkpoint{}
		for _, listen := range listens {
			if ts := listen.ListenedAt.Unix(); ts > cp.Boundary {
				cp.Boundary = ts
			}
		}
		return r.store.SaveCheckpoint(cp)
	})
	if err != nil {
		return cp, fmt.Errorf("finalize failed: %w", err)
	}

	return cp, nil
}
