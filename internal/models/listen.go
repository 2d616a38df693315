package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/lbx/internal/shared"
)

// Precision is the timestamp granularity used for cross-source deduplication.
//
// Two listens sharing a dedup key match when their timestamps are equal after
// truncation to this precision.
type Precision time.Duration

const (
	PrecisionSecond = Precision(time.Second)
	PrecisionMinute = Precision(time.Minute)
	PrecisionHour   = Precision(time.Hour)
	PrecisionDay    = Precision(24 * time.Hour)
)

// ParsePrecision converts a config string (second, minute, hour, day) into a Precision.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "second":
		return PrecisionSecond, nil
	case "minute":
		return PrecisionMinute, nil
	case "hour":
		return PrecisionHour, nil
	case "day":
		return PrecisionDay, nil
	default:
		return 0, fmt.Errorf("%w: unknown dedup precision %q", shared.ErrInvalidConfig, s)
	}
}

// Truncate rounds a timestamp down to the precision boundary in UTC.
func (p Precision) Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Duration(p))
}

func (p Precision) String() string {
	switch p {
	case PrecisionMinute:
		return "minute"
	case PrecisionHour:
		return "hour"
	case PrecisionDay:
		return "day"
	default:
		return "second"
	}
}

// Listen is a single timestamped play in the canonical archive.
//
// Immutable once committed. The JSON field names match the on-disk archive
// layout, one object per line.
type Listen struct {
	Artist        string    `json:"artist"`
	ArtistMBID    string    `json:"artist_mbid,omitempty"`
	Album         string    `json:"album"`
	Track         string    `json:"track_name"`
	DurationMS    int       `json:"duration_ms"`
	ListenedAt    time.Time `json:"listened_at"`
	RecordingMBID string    `json:"recording_mbid,omitempty"`
	ReleaseMBID   string    `json:"release_mbid,omitempty"`
	Origin        string    `json:"origin"`
	UserName      string    `json:"user_name,omitempty"`
}

// cleanKeyPart normalizes a string for key generation: lower and strip.
func cleanKeyPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TrackKey returns the "artist|track|album" identity of the listen's track,
// independent of when it was played.
func (l Listen) TrackKey() string {
	return fmt.Sprintf("%s|%s|%s", cleanKeyPart(l.Artist), cleanKeyPart(l.Track), cleanKeyPart(l.Album))
}

// DedupKey returns the composite identity used to deduplicate listens.
//
// Keyed on (recording MBID, timestamp at precision) when an MBID is present,
// falling back to (artist, track, album, timestamp at precision) otherwise.
func (l Listen) DedupKey(p Precision) string {
	ts := p.Truncate(l.ListenedAt).Unix()
	if l.RecordingMBID != "" {
		return fmt.Sprintf("mbid|%s|%d", l.RecordingMBID, ts)
	}
	return fmt.Sprintf("name|%s|%d", l.TrackKey(), ts)
}

// RawListen mirrors a single entry of the ListenBrainz listens payload before
// normalization. Unknown fields are dropped during decoding.
type RawListen struct {
	ListenedAt    int64         `json:"listened_at"`
	UserName      string        `json:"user_name"`
	TrackMetadata TrackMetadata `json:"track_metadata"`
}

// TrackMetadata holds the nested track fields of a raw listen.
type TrackMetadata struct {
	ArtistName     string          `json:"artist_name"`
	TrackName      string          `json:"track_name"`
	ReleaseName    string          `json:"release_name"`
	AdditionalInfo *AdditionalInfo `json:"additional_info"`
	MBIDMapping    *MBIDMapping    `json:"mbid_mapping"`
}

// AdditionalInfo carries optional metadata submitted alongside a listen.
type AdditionalInfo struct {
	DurationMS    int      `json:"duration_ms"`
	Duration      int      `json:"duration"`
	RecordingMBID string   `json:"recording_mbid"`
	ReleaseMBID   string   `json:"release_mbid"`
	ArtistMBIDs   []string `json:"artist_mbids"`
}

// MBIDMapping holds the server-side MusicBrainz resolution for a listen.
type MBIDMapping struct {
	RecordingMBID string   `json:"recording_mbid"`
	ReleaseMBID   string   `json:"release_mbid"`
	ArtistMBIDs   []string `json:"artist_mbids"`
}

// Normalize converts a raw API record into a canonical Listen.
//
// Returns [shared.ErrMalformedRecord] when the record has no usable timestamp
// or no track identity at all; such records are skipped by the crawler, never
// fatal to the page. Missing names default to "Unknown" and MBIDs are taken
// from the mapping first, then additional_info.
func (r RawListen) Normalize(origin string) (Listen, error) {
	if r.ListenedAt <= 0 {
		return Listen{}, fmt.Errorf("%w: missing listened_at", shared.ErrMalformedRecord)
	}

	meta := r.TrackMetadata
	if meta.ArtistName == "" && meta.TrackName == "" {
		return Listen{}, fmt.Errorf("%w: no track metadata", shared.ErrMalformedRecord)
	}

	listen := Listen{
		Artist:     meta.ArtistName,
		Album:      meta.ReleaseName,
		Track:      meta.TrackName,
		ListenedAt: time.Unix(r.ListenedAt, 0).UTC(),
		Origin:     origin,
		UserName:   r.UserName,
	}
	if listen.Artist == "" {
		listen.Artist = "Unknown"
	}
	if listen.Track == "" {
		listen.Track = "Unknown"
	}
	if listen.Album == "" {
		listen.Album = "Unknown"
	}

	if m := meta.MBIDMapping; m != nil {
		listen.RecordingMBID = m.RecordingMBID
		listen.ReleaseMBID = m.ReleaseMBID
		if len(m.ArtistMBIDs) > 0 {
			listen.ArtistMBID = m.ArtistMBIDs[0]
		}
	}
	if info := meta.AdditionalInfo; info != nil {
		if listen.RecordingMBID == "" {
			listen.RecordingMBID = info.RecordingMBID
		}
		if listen.ReleaseMBID == "" {
			listen.ReleaseMBID = info.ReleaseMBID
		}
		if listen.ArtistMBID == "" && len(info.ArtistMBIDs) > 0 {
			listen.ArtistMBID = info.ArtistMBIDs[0]
		}
		if info.DurationMS > 0 {
			listen.DurationMS = info.DurationMS
		} else if info.Duration > 0 {
			listen.DurationMS = info.Duration * 1000
		}
	}

	return listen, nil
}

// NormalizeListens converts a page of raw records, skipping malformed entries.
// Returns the normalized listens and the number skipped.
func NormalizeListens(raw []RawListen, origin string) ([]Listen, int) {
	listens := make([]Listen, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		listen, err := r.Normalize(origin)
		if err != nil {
			skipped++
			continue
		}
		listens = append(listens, listen)
	}
	return listens, skipped
}

// LikedSet is the flat set of liked recording MBIDs from the latest full
// remote snapshot. Always replaced as a whole, never merged.
type LikedSet map[string]struct{}

// NewLikedSet builds a LikedSet from a list of recording MBIDs, dropping empties.
func NewLikedSet(ids []string) LikedSet {
	set := make(LikedSet, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// Has reports whether the recording MBID is liked.
func (s LikedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the liked MBIDs in lexical order for stable persistence.
func (s LikedSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Checkpoint records how far the last successful commit reached.
//
// Boundary is the newest committed listen timestamp (where local history
// ends); Cursor is the max_ts to resume the backward crawl from, zero when no
// crawl is in flight. Only advanced after a batch is durably committed.
type Checkpoint struct {
	Boundary int64 `json:"boundary_ts"`
	Cursor   int64 `json:"cursor_ts"`
}

// Resuming reports whether a prior crawl left an in-flight cursor behind.
func (c Checkpoint) Resuming() bool {
	return c.Cursor > 0
}
