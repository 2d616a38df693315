package archive

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// AppendStaging durably appends a fetched batch to the staging file, under
// the store's exclusive lock.
//
// The write is flushed to disk before returning so the crawl can safely
// request the next page: a crash afterwards replays the batch instead of
// losing it.
func (s *Store) AppendStaging(batch []models.Listen) error {
	if len(batch) == 0 {
		return nil
	}

	return s.WithLock(func() error {
		f, err := os.OpenFile(s.path(stagingFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("%w: failed to open staging file: %v", shared.ErrPersistence, err)
		}
		defer f.Close()

		enc := json.NewEncoder(f)
		for _, listen := range batch {
			if err := enc.Encode(listen); err != nil {
				return fmt.Errorf("%w: failed to stage record: %v", shared.ErrPersistence, err)
			}
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("%w: failed to sync staging file: %v", shared.ErrPersistence, err)
		}

		return nil
	})
}

// StagedListens reads all staged-but-uncommitted listens.
//
// A torn final line left by a crash mid-append is dropped; the interrupted
// page is simply re-fetched on the next run.
func (s *Store) StagedListens() ([]models.Listen, error) {
	f, err := os.Open(s.path(stagingFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open staging file: %v", shared.ErrPersistence, err)
	}
	defer f.Close()

	return decodeListenLines(f, true)
}

// StagingEmpty reports whether no staged listens remain.
func (s *Store) StagingEmpty() (bool, error) {
	info, err := os.Stat(s.path(stagingFile))
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to stat staging file: %v", shared.ErrPersistence, err)
	}
	return info.Size() == 0, nil
}

// ClearStaging removes the staged batch in one operation. Called only after
// the corresponding archive swap has succeeded.
func (s *Store) ClearStaging() error {
	if err := os.Remove(s.path(stagingFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to clear staging file: %v", shared.ErrPersistence, err)
	}
	return nil
}
