package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/lbx/internal/shared"
)

func TestParsePrecision(t *testing.T) {
	tests := []struct {
		input   string
		want    Precision
		wantErr bool
	}{
		{"second", PrecisionSecond, false},
		{"", PrecisionSecond, false},
		{"minute", PrecisionMinute, false},
		{"Hour", PrecisionHour, false},
		{" day ", PrecisionDay, false},
		{"fortnight", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrecision(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				if !errors.Is(err, shared.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDedupKey(t *testing.T) {
	at := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)

	t.Run("mbid key wins over names", func(t *testing.T) {
		a := Listen{Artist: "Artist A", Track: "Song", RecordingMBID: "mbid-1", ListenedAt: at}
		b := Listen{Artist: "Artist B", Track: "Other", RecordingMBID: "mbid-1", ListenedAt: at}

		if a.DedupKey(PrecisionSecond) != b.DedupKey(PrecisionSecond) {
			t.Error("expected listens with same MBID and timestamp to share a key")
		}
	})

	t.Run("name fallback is case and whitespace insensitive", func(t *testing.T) {
		a := Listen{Artist: "Boards of Canada", Track: "Roygbiv", Album: "MHTRTC", ListenedAt: at}
		b := Listen{Artist: " boards of canada ", Track: "ROYGBIV", Album: "mhtrtc", ListenedAt: at}

		if a.DedupKey(PrecisionSecond) != b.DedupKey(PrecisionSecond) {
			t.Error("expected name-keyed listens to match regardless of case")
		}
	})

	t.Run("precision widens the matching window", func(t *testing.T) {
		a := Listen{RecordingMBID: "mbid-2", ListenedAt: at}
		b := Listen{RecordingMBID: "mbid-2", ListenedAt: at.Add(10 * time.Second)}

		if a.DedupKey(PrecisionSecond) == b.DedupKey(PrecisionSecond) {
			t.Error("expected distinct keys at second precision")
		}
		if a.DedupKey(PrecisionMinute) != b.DedupKey(PrecisionMinute) {
			t.Error("expected matching keys at minute precision")
		}
	})

	t.Run("missing mbid differs from present mbid", func(t *testing.T) {
		a := Listen{Artist: "x", Track: "y", ListenedAt: at}
		b := Listen{Artist: "x", Track: "y", RecordingMBID: "mbid-3", ListenedAt: at}

		if a.DedupKey(PrecisionSecond) == b.DedupKey(PrecisionSecond) {
			t.Error("expected mbid-keyed and name-keyed listens to differ")
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		raw := RawListen{
			ListenedAt: 1710498645,
			UserName:   "alice",
			TrackMetadata: TrackMetadata{
				ArtistName:  "Autechre",
				TrackName:   "Bike",
				ReleaseName: "Incunabula",
				AdditionalInfo: &AdditionalInfo{
					DurationMS: 243000,
				},
				MBIDMapping: &MBIDMapping{
					RecordingMBID: "rec-1",
					ReleaseMBID:   "rel-1",
					ArtistMBIDs:   []string{"art-1", "art-2"},
				},
			},
		}

		listen, err := raw.Normalize("listenbrainz_api")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if listen.RecordingMBID != "rec-1" || listen.ReleaseMBID != "rel-1" || listen.ArtistMBID != "art-1" {
			t.Errorf("unexpected MBIDs: %+v", listen)
		}
		if listen.DurationMS != 243000 {
			t.Errorf("expected duration 243000, got %d", listen.DurationMS)
		}
		if !listen.ListenedAt.Equal(time.Unix(1710498645, 0).UTC()) {
			t.Errorf("unexpected timestamp %v", listen.ListenedAt)
		}
		if listen.Origin != "listenbrainz_api" {
			t.Errorf("unexpected origin %q", listen.Origin)
		}
	})

	t.Run("mbids fall back to additional_info", func(t *testing.T) {
		raw := RawListen{
			ListenedAt: 1710498645,
			TrackMetadata: TrackMetadata{
				ArtistName: "Plaid",
				TrackName:  "Eyen",
				AdditionalInfo: &AdditionalInfo{
					RecordingMBID: "rec-2",
					ArtistMBIDs:   []string{"art-3"},
					Duration:      200,
				},
			},
		}

		listen, err := raw.Normalize("listenbrainz_api")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if listen.RecordingMBID != "rec-2" || listen.ArtistMBID != "art-3" {
			t.Errorf("unexpected MBIDs: %+v", listen)
		}
		if listen.DurationMS != 200000 {
			t.Errorf("expected duration seconds converted to ms, got %d", listen.DurationMS)
		}
		if listen.Album != "Unknown" {
			t.Errorf("expected missing album to default to Unknown, got %q", listen.Album)
		}
	})

	t.Run("missing timestamp is malformed", func(t *testing.T) {
		raw := RawListen{TrackMetadata: TrackMetadata{ArtistName: "a", TrackName: "b"}}
		if _, err := raw.Normalize("x"); !errors.Is(err, shared.ErrMalformedRecord) {
			t.Errorf("expected ErrMalformedRecord, got %v", err)
		}
	})

	t.Run("empty metadata is malformed", func(t *testing.T) {
		raw := RawListen{ListenedAt: 1710498645}
		if _, err := raw.Normalize("x"); !errors.Is(err, shared.ErrMalformedRecord) {
			t.Errorf("expected ErrMalformedRecord, got %v", err)
		}
	})

	t.Run("NormalizeListens counts skips", func(t *testing.T) {
		raw := []RawListen{
			{ListenedAt: 100, TrackMetadata: TrackMetadata{ArtistName: "a", TrackName: "t"}},
			{}, // malformed
			{ListenedAt: 200, TrackMetadata: TrackMetadata{ArtistName: "b", TrackName: "u"}},
		}

		listens, skipped := NormalizeListens(raw, "listenbrainz_api")
		if len(listens) != 2 {
			t.Errorf("expected 2 listens, got %d", len(listens))
		}
		if skipped != 1 {
			t.Errorf("expected 1 skipped, got %d", skipped)
		}
	})
}

func TestLikedSet(t *testing.T) {
	set := NewLikedSet([]string{"b", "a", "", "a"})

	if len(set) != 2 {
		t.Errorf("expected 2 entries, got %d", len(set))
	}
	if !set.Has("a") || !set.Has("b") {
		t.Error("expected both ids to be present")
	}
	if set.Has("") {
		t.Error("expected empty id to be dropped")
	}

	sorted := set.Sorted()
	if len(sorted) != 2 || sorted[0] != "a" || sorted[1] != "b" {
		t.Errorf("expected sorted [a b], got %v", sorted)
	}
}
