// package formatter provides functions to export archive data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/shared"
)

// ArchiveExport bundles a user's canonical archive with its likes snapshot
// for rendering.
type ArchiveExport struct {
	Username string
	Listens  []models.Listen
	Likes    models.LikedSet
}

// liked reports whether the listen's recording is in the likes snapshot.
func (e *ArchiveExport) liked(l models.Listen) bool {
	return l.RecordingMBID != "" && e.Likes.Has(l.RecordingMBID)
}

// ExportToCSV converts an ArchiveExport to CSV format with columns: Listened At, Artist, Track, Album, Duration (ms), Recording MBID, Liked
func ExportToCSV(export *ArchiveExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Listened At", "Artist", "Track", "Album", "Duration (ms)", "Recording MBID", "Liked"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, listen := range export.Listens {
		record := []string{
			listen.ListenedAt.UTC().Format(time.RFC3339),
			listen.Artist,
			listen.Track,
			listen.Album,
			strconv.Itoa(listen.DurationMS),
			listen.RecordingMBID,
			strconv.FormatBool(export.liked(listen)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an ArchiveExport to Markdown format
func ExportToMarkdown(export *ArchiveExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Listen history for %s\n\n", export.Username))
	buf.WriteString(fmt.Sprintf("**Listens**: %d\n", len(export.Listens)))
	buf.WriteString(fmt.Sprintf("**Liked recordings**: %d\n\n", len(export.Likes)))

	if len(export.Listens) > 0 {
		first := export.Listens[0].ListenedAt.UTC()
		last := export.Listens[len(export.Listens)-1].ListenedAt.UTC()
		buf.WriteString(fmt.Sprintf("**Range**: %s to %s\n\n", first.Format("2006-01-02"), last.Format("2006-01-02")))
	}

	buf.WriteString("## Listens\n\n")
	for i, listen := range export.Listens {
		duration := shared.FormatDuration(listen.DurationMS)
		albumPart := ""
		if listen.Album != "" && listen.Album != "Unknown" {
			albumPart = fmt.Sprintf(" (%s)", listen.Album)
		}
		likedMark := ""
		if export.liked(listen) {
			likedMark = " *"
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]%s\n", i+1, listen.Artist, listen.Track, albumPart, duration, likedMark))
	}

	return buf.Bytes(), nil
}

// ExportToText converts an ArchiveExport to plain text format
func ExportToText(export *ArchiveExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s\n", export.Username))
	buf.WriteString(fmt.Sprintf("Listens: %d\n\n", len(export.Listens)))

	for i, listen := range export.Listens {
		buf.WriteString(fmt.Sprintf("%d. %s  %s - %s\n",
			i+1, listen.ListenedAt.UTC().Format("2006-01-02 15:04"), listen.Artist, listen.Track))
	}

	return buf.Bytes(), nil
}

// ToListensJSON generates an indented JSON representation of the listens
func ToListensJSON(listens []models.Listen) ([]byte, error) {
	return shared.MarshalJSON(listens, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ListensFile string
	LikesFile   string
}

// WriteCSVExport exports an archive to CSV format with an accompanying likes JSON file.
//
// Defaults to the username as the base filename & creates {base}_listens.csv and {base}_likes.json
func WriteCSVExport(export *ArchiveExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Username
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	listensFile := baseFilepath + "_listens.csv"
	if err := os.WriteFile(listensFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	likesJSON, err := shared.MarshalJSON(export.Likes.Sorted(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate likes JSON: %w", err)
	}

	likesFile := baseFilepath + "_likes.json"
	if err := os.WriteFile(likesFile, likesJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write likes file: %w", err)
	}

	return &CSVExportResult{
		ListensFile: listensFile,
		LikesFile:   likesFile,
	}, nil
}

// WriteMarkdownExport exports an archive to Markdown format.
//
// Defaults to {username}_history.md as the filename.
func WriteMarkdownExport(export *ArchiveExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_history.md", export.Username)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports an archive to plain text format.
//
// Defaults to {username}_listens.txt as the filename.
func WriteTextExport(export *ArchiveExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_listens.txt", export.Username)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
