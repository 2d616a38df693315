package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// Likes reads the persisted liked-recordings snapshot. A missing file yields
// an empty set.
func (s *Store) Likes() (models.LikedSet, error) {
	data, err := os.ReadFile(s.path(likesFile))
	if os.IsNotExist(err) {
		return models.LikedSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read likes: %v", shared.ErrPersistence, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: undecodable likes snapshot: %v", shared.ErrPersistence, err)
	}
	return models.NewLikedSet(ids), nil
}

// ReplaceLikes atomically replaces the snapshot with the full new set.
//
// Always a whole-file replacement, never a merge; that is what lets remote
// un-likes propagate. Callers must hold the store lock.
func (s *Store) ReplaceLikes(set models.LikedSet) error {
	return s.replaceFile(s.path(likesFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(set.Sorted())
	})
}
