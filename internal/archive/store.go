package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/shared"
)

const (
	archiveFile    = "listens.jsonl.gz"
	stagingFile    = "staging.jsonl"
	checkpointFile = "checkpoint.json"
	likesFile      = "likes.json"
	lockFile       = "sync.lock"
)

// A crashed process leaves its lock file behind; locks older than this are
// reclaimed. Individual holds last one commit, far below this.
const lockStaleAfter = 10 * time.Minute

// Store owns one user's cache directory and the exclusive lock guarding all
// writes to the canonical archive and the likes snapshot.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger *log.Logger
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
func NewStore(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create store directory: %v", shared.ErrPersistence, err)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// WithLock runs fn while holding the store's exclusive lock.
//
// The in-process mutex serializes the two sync workers sharing one Store;
// the lock file extends the exclusion to other processes working on the same
// user directory. All mutation paths (staging appends, archive merges, likes
// replacement) run inside WithLock so at most one proceeds at a time.
func (s *Store) WithLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquireLockFile(); err != nil {
		return err
	}
	defer os.Remove(s.path(lockFile))

	return fn()
}

// acquireLockFile claims the on-disk lock, reclaiming stale locks left
// behind by a crashed process. A live holder fails the caller immediately
// rather than blocking; committed state stays valid for a retry.
func (s *Store) acquireLockFile() error {
	path := s.path(lockFile)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "{\"pid\":%d,\"time\":%d}\n", os.Getpid(), time.Now().Unix())
			return f.Close()
		}
		if !os.IsExist(err) {
			return fmt.Errorf("%w: failed to create lock file: %v", shared.ErrPersistence, err)
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			// The holder released between our attempts.
			continue
		}
		if time.Since(info.ModTime()) >= lockStaleAfter {
			s.logger.Warn("reclaiming stale archive lock", "path", path)
			os.Remove(path)
			continue
		}
		return fmt.Errorf("%w: archive locked by another process", shared.ErrPersistence)
	}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// replaceFile writes via a temporary file in the store directory and renames
// it over path, so readers only ever observe complete files.
func (s *Store) replaceFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", shared.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrPersistence, filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to sync %s: %v", shared.ErrPersistence, filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to close temp file: %v", shared.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: failed to swap %s into place: %v", shared.ErrPersistence, filepath.Base(path), err)
	}

	return nil
}
