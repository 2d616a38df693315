package tasks

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lbx/internal/archive"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
)

var testBase = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).Unix()

// dayTS returns a timestamp n days after the test epoch.
func dayTS(n int) int64 {
	return testBase + int64(n)*86400
}

func rawListen(ts int64, track string) models.RawListen {
	return models.RawListen{
		ListenedAt: ts,
		UserName:   "testuser",
		TrackMetadata: models.TrackMetadata{
			ArtistName:  "Test Artist",
			TrackName:   track,
			ReleaseName: "Test Album",
		},
	}
}

// remoteHistory builds a remote history of one listen per day for days
// first..last inclusive.
func remoteHistory(first, last int) []models.RawListen {
	var raw []models.RawListen
	for d := first; d <= last; d++ {
		raw = append(raw, rawListen(dayTS(d), "Track "+string(rune('A'+d))))
	}
	return raw
}

// mockSource is a canned ListenSource backed by an in-memory history.
type mockSource struct {
	mu          sync.Mutex
	listens     []models.RawListen
	likes       []string
	likesTotal  int // -1 for unknown
	listenCalls int
	likesCalls  int

	failListens int // fail this many listen fetches before succeeding
	listenErr   error
	failLikes   int
	likesErr    error
}

func newMockSource(listens []models.RawListen, likes []string) *mockSource {
	return &mockSource{listens: listens, likes: likes, likesTotal: -1}
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchListensPage(_ context.Context, _ string, maxTS int64, count int) (*services.ListensPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listenCalls++

	if m.failListens > 0 {
		m.failListens--
		return nil, m.listenErr
	}

	var page []models.RawListen
	for _, l := range m.listens {
		if maxTS == 0 || l.ListenedAt < maxTS {
			page = append(page, l)
		}
	}
	sort.Slice(page, func(i, j int) bool { return page[i].ListenedAt > page[j].ListenedAt })
	if len(page) > count {
		page = page[:count]
	}
	return &services.ListensPage{Listens: page}, nil
}

func (m *mockSource) FetchLikesPage(_ context.Context, _ string, offset, count int) (*services.LikesPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likesCalls++

	if m.failLikes > 0 {
		m.failLikes--
		return nil, m.likesErr
	}

	if offset >= len(m.likes) {
		return &services.LikesPage{TotalCount: m.likesTotal}, nil
	}
	end := offset + count
	if end > len(m.likes) {
		end = len(m.likes)
	}

	// Entries with an empty id model feedback rows the client filters out;
	// they still occupy a server-side offset, so Fetched counts them.
	raw := m.likes[offset:end]
	page := &services.LikesPage{Fetched: len(raw), TotalCount: m.likesTotal}
	for _, id := range raw {
		if id != "" {
			page.MBIDs = append(page.MBIDs, id)
		}
	}
	return page, nil
}

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func testStore(t *testing.T) *archive.Store {
	t.Helper()
	store, err := archive.NewStore(t.TempDir(), quietLogger())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func testConfig() Config {
	return Config{
		Username:      "testuser",
		PageSize:      3,
		LikesPageSize: 500,
		Precision:     models.PrecisionSecond,
	}
}

// seedArchive commits one listen per day for days first..last and sets the
// checkpoint boundary at the newest of them.
func seedArchive(t *testing.T, store *archive.Store, first, last int) {
	t.Helper()
	listens, skipped := models.NormalizeListens(remoteHistory(first, last), "seed")
	if skipped != 0 {
		t.Fatalf("seed produced %d malformed records", skipped)
	}
	if err := store.ReplaceListens(listens); err != nil {
		t.Fatalf("failed to seed archive: %v", err)
	}
	if err := store.SaveCheckpoint(models.Checkpoint{Boundary: dayTS(last)}); err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}
}

func archiveTimestamps(t *testing.T, store *archive.Store) []int64 {
	t.Helper()
	listens, err := store.Listens()
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	ts := make([]int64, len(listens))
	for i, l := range listens {
		ts[i] = l.ListenedAt.Unix()
	}
	return ts
}
