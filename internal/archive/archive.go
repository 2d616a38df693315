package archive

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// Listens reads the canonical archive. A missing file yields an empty slice.
//
// External collaborators only ever read fully-committed snapshots; the file
// is replaced atomically by [Store.ReplaceListens], never edited in place.
func (s *Store) Listens() ([]models.Listen, error) {
	f, err := os.Open(s.path(archiveFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open archive: %v", shared.ErrPersistence, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read archive: %v", shared.ErrPersistence, err)
	}
	defer gz.Close()

	listens, err := decodeListenLines(gz, false)
	if err != nil {
		return nil, err
	}
	return listens, nil
}

// ReplaceListens atomically replaces the canonical archive with the given
// listens, sorted by timestamp ascending. Callers must hold the store lock.
func (s *Store) ReplaceListens(listens []models.Listen) error {
	sorted := make([]models.Listen, len(listens))
	copy(sorted, listens)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ListenedAt.Before(sorted[j].ListenedAt)
	})

	return s.replaceFile(s.path(archiveFile), func(w io.Writer) error {
		gz := gzip.NewWriter(w)
		enc := json.NewEncoder(gz)
		for _, listen := range sorted {
			if err := enc.Encode(listen); err != nil {
				return err
			}
		}
		return gz.Close()
	})
}

// decodeListenLines parses line-delimited listens from r. When tolerant is
// true, an undecodable final line (a torn write from a crash) is dropped;
// an undecodable line elsewhere is still an error.
func decodeListenLines(r io.Reader, tolerant bool) ([]models.Listen, error) {
	var listens []models.Listen
	var pendingErr error

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if pendingErr != nil {
			// The bad line was not the last one; the file is corrupt.
			return nil, pendingErr
		}

		var listen models.Listen
		if err := json.Unmarshal(line, &listen); err != nil {
			pendingErr = fmt.Errorf("%w: undecodable record: %v", shared.ErrPersistence, err)
			continue
		}
		listens = append(listens, listen)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to scan records: %v", shared.ErrPersistence, err)
	}
	if pendingErr != nil && !tolerant {
		return nil, pendingErr
	}

	return listens, nil
}
