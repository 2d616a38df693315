package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/lbx/internal/archive"
	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

func newTestCrawler(source *mockSource, store *archive.Store, config Config) *Crawler {
	rec := NewReconciler(store, config.Precision, quietLogger())
	return NewCrawler(source, store, rec, config, quietLogger())
}

func TestCrawlBridgesGap(t *testing.T) {
	store := testStore(t)
	seedArchive(t, store, 1, 10)
	source := newMockSource(remoteHistory(1, 15), nil)

	crawler := newTestCrawler(source, store, testConfig())
	res := crawler.Crawl(context.Background(), nil)

	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", res.Status, res.Err)
	}
	if res.Committed != 5 {
		t.Errorf("expected 5 new listens committed, got %d", res.Committed)
	}
	if !res.GapClosed {
		t.Error("expected gap closed")
	}

	if got := archiveTimestamps(t, store); len(got) != 15 {
		t.Errorf("expected 15 archived listens, got %d", len(got))
	}

	cp, err := store.Checkpoint()
	if err != nil {
		t.Fatalf("failed to read checkpoint: %v", err)
	}
	if cp.Boundary != dayTS(15) {
		t.Errorf("expected boundary at day 15 (%d), got %d", dayTS(15), cp.Boundary)
	}
	if cp.Resuming() {
		t.Error("expected no in-flight cursor after a completed crawl")
	}

	empty, err := store.StagingEmpty()
	if err != nil {
		t.Fatalf("failed to check staging: %v", err)
	}
	if !empty {
		t.Error("expected empty staging after a completed crawl")
	}
}

func TestCrawlEmptyLocalHistory(t *testing.T) {
	store := testStore(t)
	source := newMockSource(remoteHistory(1, 7), nil)

	crawler := newTestCrawler(source, store, testConfig())
	res := crawler.Crawl(context.Background(), nil)

	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", res.Status, res.Err)
	}
	if res.Committed != 7 {
		t.Errorf("expected full history committed, got %d", res.Committed)
	}
	if got := archiveTimestamps(t, store); len(got) != 7 {
		t.Errorf("expected 7 archived listens, got %d", len(got))
	}
}

func TestCrawlSecondRunCommitsNothing(t *testing.T) {
	store := testStore(t)
	source := newMockSource(remoteHistory(1, 12), nil)
	config := testConfig()

	first := newTestCrawler(source, store, config).Crawl(context.Background(), nil)
	if first.Status != StatusCompleted {
		t.Fatalf("first run: expected completed, got %s (%v)", first.Status, first.Err)
	}

	second := newTestCrawler(source, store, config).Crawl(context.Background(), nil)
	if second.Status != StatusCompleted {
		t.Fatalf("second run: expected completed, got %s (%v)", second.Status, second.Err)
	}
	if second.Committed != 0 {
		t.Errorf("second run: expected 0 committed, got %d", second.Committed)
	}
	if got := archiveTimestamps(t, store); len(got) != 12 {
		t.Errorf("expected archive unchanged at 12 listens, got %d", len(got))
	}
}

// A second, distinct track played in the same second as the local head must
// still be picked up; dedup separates it from the record already archived.
func TestCrawlKeepsDistinctListenAtBoundary(t *testing.T) {
	store := testStore(t)
	seedArchive(t, store, 1, 10)

	remote := remoteHistory(1, 10)
	remote = append(remote, rawListen(dayTS(10), "Encore"))
	source := newMockSource(remote, nil)

	res := newTestCrawler(source, store, testConfig()).Crawl(context.Background(), nil)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", res.Status, res.Err)
	}
	if res.Committed != 1 {
		t.Errorf("expected the boundary-second listen committed, got %d", res.Committed)
	}

	listens, err := store.Listens()
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	if len(listens) != 11 {
		t.Fatalf("expected 11 archived listens, got %d", len(listens))
	}
	found := false
	for _, l := range listens {
		if l.Track == "Encore" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected the boundary-second track in the archive")
	}
}

func TestCrawlRecoversStagedListens(t *testing.T) {
	store := testStore(t)
	seedArchive(t, store, 1, 5)
	source := newMockSource(remoteHistory(1, 7), nil)

	// Simulate a crash after staging days 6 and 7 but before their commit.
	staged, _ := models.NormalizeListens(remoteHistory(6, 7), listenOrigin)
	if err := store.AppendStaging(staged); err != nil {
		t.Fatalf("failed to stage: %v", err)
	}

	crawler := newTestCrawler(source, store, testConfig())
	res := crawler.Crawl(context.Background(), nil)

	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", res.Status, res.Err)
	}
	if res.Committed != 2 {
		t.Errorf("expected the 2 staged listens committed, got %d", res.Committed)
	}
	if got := archiveTimestamps(t, store); len(got) != 7 {
		t.Errorf("expected 7 archived listens, got %d", len(got))
	}
}

// The resumed run must converge on the same archive a clean uninterrupted run
// produces.
func TestCrawlResumeMatchesCleanRun(t *testing.T) {
	remote := remoteHistory(1, 15)
	config := testConfig()

	cleanStore := testStore(t)
	seedArchive(t, cleanStore, 1, 10)
	clean := newTestCrawler(newMockSource(remote, nil), cleanStore, config).Crawl(context.Background(), nil)
	if clean.Status != StatusCompleted {
		t.Fatalf("clean run: expected completed, got %s (%v)", clean.Status, clean.Err)
	}

	// The interrupted run staged its first page but crashed before the
	// commit and before the cursor moved.
	crashStore := testStore(t)
	seedArchive(t, crashStore, 1, 10)
	source := newMockSource(remote, nil)
	firstPage, err := source.FetchListensPage(context.Background(), "testuser", 0, config.PageSize)
	if err != nil {
		t.Fatalf("failed to fetch first page: %v", err)
	}
	listens, _ := models.NormalizeListens(firstPage.Listens, listenOrigin)
	if err := crashStore.AppendStaging(listens); err != nil {
		t.Fatalf("failed to stage first page: %v", err)
	}

	resumed := newTestCrawler(newMockSource(remote, nil), crashStore, config).Crawl(context.Background(), nil)
	if resumed.Status != StatusCompleted {
		t.Fatalf("resumed run: expected completed, got %s (%v)", resumed.Status, resumed.Err)
	}

	cleanTS := archiveTimestamps(t, cleanStore)
	resumedTS := archiveTimestamps(t, crashStore)
	if len(cleanTS) != len(resumedTS) {
		t.Fatalf("archives diverge: clean has %d listens, resumed has %d", len(cleanTS), len(resumedTS))
	}
	for i := range cleanTS {
		if cleanTS[i] != resumedTS[i] {
			t.Errorf("archives diverge at index %d: %d vs %d", i, cleanTS[i], resumedTS[i])
		}
	}
}

func TestCrawlRetriesExhaustedIsResumable(t *testing.T) {
	store := testStore(t)
	seedArchive(t, store, 1, 10)
	remote := remoteHistory(1, 15)

	source := newMockSource(remote, nil)
	source.failListens = 1
	source.listenErr = fmt.Errorf("%w: %w", shared.ErrRetriesExceeded, shared.ErrNetwork)

	res := newTestCrawler(source, store, testConfig()).Crawl(context.Background(), nil)
	if res.Status != StatusPartial {
		t.Fatalf("expected partial, got %s (%v)", res.Status, res.Err)
	}
	if !errors.Is(res.Err, shared.ErrRetriesExceeded) {
		t.Errorf("expected retries exceeded error, got %v", res.Err)
	}

	// Next run with a healthy source closes the gap.
	res = newTestCrawler(newMockSource(remote, nil), store, testConfig()).Crawl(context.Background(), nil)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed after retry, got %s (%v)", res.Status, res.Err)
	}
	if got := archiveTimestamps(t, store); len(got) != 15 {
		t.Errorf("expected 15 archived listens, got %d", len(got))
	}
}

func TestCrawlCancellation(t *testing.T) {
	store := testStore(t)
	source := newMockSource(remoteHistory(1, 15), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestCrawler(source, store, testConfig()).Crawl(ctx, nil)
	if res.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", res.Status)
	}
	if !errors.Is(res.Err, shared.ErrCancelled) {
		t.Errorf("expected cancellation error, got %v", res.Err)
	}
	if source.listenCalls != 0 {
		t.Errorf("expected no fetches after cancellation, got %d", source.listenCalls)
	}
}

func TestCrawlPerRunCap(t *testing.T) {
	store := testStore(t)
	source := newMockSource(remoteHistory(1, 15), nil)

	config := testConfig()
	config.MaxListensPerRun = 6

	res := newTestCrawler(source, store, config).Crawl(context.Background(), nil)
	if res.Status != StatusPartial {
		t.Fatalf("expected partial at cap, got %s (%v)", res.Status, res.Err)
	}
	if res.Committed != 6 {
		t.Errorf("expected 6 committed at cap, got %d", res.Committed)
	}

	cp, err := store.Checkpoint()
	if err != nil {
		t.Fatalf("failed to read checkpoint: %v", err)
	}
	if !cp.Resuming() {
		t.Error("expected in-flight cursor after a capped run")
	}

	// The follow-up run picks up below the cursor and completes.
	config.MaxListensPerRun = 0
	res = newTestCrawler(newMockSource(remoteHistory(1, 15), nil), store, config).Crawl(context.Background(), nil)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", res.Status, res.Err)
	}
	if got := archiveTimestamps(t, store); len(got) != 15 {
		t.Errorf("expected 15 archived listens, got %d", len(got))
	}
}

func TestCrawlSkipsMalformedRecords(t *testing.T) {
	store := testStore(t)
	remote := remoteHistory(1, 3)
	remote = append(remote, models.RawListen{ListenedAt: dayTS(4)}) // no track metadata

	source := newMockSource(remote, nil)
	config := testConfig()
	config.PageSize = 10

	res := newTestCrawler(source, store, config).Crawl(context.Background(), nil)
	if res.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%v)", res.Status, res.Err)
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", res.Skipped)
	}
	if res.Committed != 3 {
		t.Errorf("expected 3 committed, got %d", res.Committed)
	}
}

func TestCrawlFatalOnAuthError(t *testing.T) {
	store := testStore(t)
	source := newMockSource(remoteHistory(1, 5), nil)
	source.failListens = 1
	source.listenErr = fmt.Errorf("%w: invalid token", shared.ErrAuth)

	res := newTestCrawler(source, store, testConfig()).Crawl(context.Background(), nil)
	if res.Status != StatusFatal {
		t.Fatalf("expected fatal, got %s", res.Status)
	}
	if !errors.Is(res.Err, shared.ErrAuth) {
		t.Errorf("expected auth error, got %v", res.Err)
	}
	if got := archiveTimestamps(t, store); len(got) != 0 {
		t.Errorf("expected untouched archive, got %d listens", len(got))
	}
}
