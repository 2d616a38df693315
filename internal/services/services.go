package services

import (
	"context"

	"github.com/desertthunder/lbx/internal/models"
)

// ListenSource is the remote service contract consumed by the sync engine.
type ListenSource interface {
	// FetchListensPage retrieves up to count listens strictly older than
	// maxTS, newest first. A zero maxTS means "from now".
	FetchListensPage(ctx context.Context, username string, maxTS int64, count int) (*ListensPage, error)

	// FetchLikesPage retrieves one page of the user's liked recordings.
	FetchLikesPage(ctx context.Context, username string, offset, count int) (*LikesPage, error)

	// Name returns the name of the service (e.g., "ListenBrainz")
	Name() string
}

// ListensPage is one page of raw listens from the remote history.
type ListensPage struct {
	Listens []models.RawListen
}

// Empty reports whether the page carried no listens, the crawl's
// end-of-history signal.
func (p *ListensPage) Empty() bool {
	return p == nil || len(p.Listens) == 0
}

// OldestTS returns the smallest positive listened_at in the page, or zero
// when the page has no usable timestamps. Records without a timestamp cannot
// position the crawl cursor.
func (p *ListensPage) OldestTS() int64 {
	var oldest int64
	if p == nil {
		return 0
	}
	for _, l := range p.Listens {
		if l.ListenedAt <= 0 {
			continue
		}
		if oldest == 0 || l.ListenedAt < oldest {
			oldest = l.ListenedAt
		}
	}
	return oldest
}

// LikesPage is one page of liked recording MBIDs.
//
// Fetched counts the raw feedback rows the server returned for the page.
// Rows without a usable recording id are filtered out of MBIDs but still
// occupy server-side offsets, so pagination must advance by Fetched, never
// by len(MBIDs).
type LikesPage struct {
	MBIDs      []string // Usable liked recording MBIDs in page order
	Fetched    int      // Raw rows in the page, before filtering
	TotalCount int      // Server-reported total, -1 when unknown
}

// End reports whether this page terminates the likes fetch: a short raw page,
// or the server-reported total reached. offset is the raw-row count consumed
// so far, including this page.
func (p *LikesPage) End(requested, offset int) bool {
	if p.Fetched == 0 || p.Fetched < requested {
		return true
	}
	return p.TotalCount >= 0 && offset >= p.TotalCount
}
