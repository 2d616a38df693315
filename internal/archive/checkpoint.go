package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// Checkpoint reads the crawl's durable resume point. A missing file yields
// the zero checkpoint (no local history, no crawl in flight).
func (s *Store) Checkpoint() (models.Checkpoint, error) {
	var cp models.Checkpoint

	data, err := os.ReadFile(s.path(checkpointFile))
	if os.IsNotExist(err) {
		return cp, nil
	}
	if err != nil {
		return cp, fmt.Errorf("%w: failed to read checkpoint: %v", shared.ErrPersistence, err)
	}

	if err := json.Unmarshal(data, &cp); err != nil {
		return models.Checkpoint{}, fmt.Errorf("%w: undecodable checkpoint: %v", shared.ErrPersistence, err)
	}
	return cp, nil
}

// SaveCheckpoint atomically replaces the checkpoint. Only called after the
// corresponding batch has been durably committed, so a crash in between
// leaves the checkpoint at the last safe point and replay stays idempotent.
func (s *Store) SaveCheckpoint(cp models.Checkpoint) error {
	return s.replaceFile(s.path(checkpointFile), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(cp)
	})
}
