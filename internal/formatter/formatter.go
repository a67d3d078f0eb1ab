// package formatter exports import reports to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/shared"
)

// ExportToCSV converts an ImportRun to CSV format with columns: Row, Artist, Title, Outcome, Item ID, Query, Attempts
func ExportToCSV(run *models.ImportRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Row", "Artist", "Title", "Outcome", "Item ID", "Query", "Attempts"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, o := range run.Outcomes {
		record := []string{
			strconv.Itoa(o.Request.Row),
			o.Request.Artist,
			o.Request.Title,
			o.Kind.String(),
			o.ItemID,
			o.Query,
			strconv.Itoa(o.Attempts),
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

// ExportToMarkdown converts an ImportRun to Markdown with separate added and skipped sections
func ExportToMarkdown(run *models.ImportRun) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", run.Playlist.Name))

	if run.Playlist.URL != "" {
		buf.WriteString(fmt.Sprintf("**Playlist**: [%s](%s)\n", run.Playlist.ID, run.Playlist.URL))
	}
	buf.WriteString(fmt.Sprintf("**Provider**: %s\n", run.Provider))
	if run.SheetPath != "" {
		buf.WriteString(fmt.Sprintf("**Spreadsheet**: %s\n", filepath.Base(run.SheetPath)))
	}
	buf.WriteString(fmt.Sprintf("**Imported**: %s\n", formatTime(run.CompletedAt)))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d added, %d skipped\n\n", run.Added(), len(run.Skipped())))

	buf.WriteString("## Added\n\n")
	n := 0
	for _, o := range run.Outcomes {
		if o.Kind != models.Added {
			continue
		}
		n++
		buf.WriteString(fmt.Sprintf("%d. %s (`%s`)\n", n, o.Request, o.ItemID))
	}
	if n == 0 {
		buf.WriteString("_None_\n")
	}

	buf.WriteString("\n## Skipped\n\n")
	skipped := run.Skipped()
	for _, q := range skipped {
		buf.WriteString(fmt.Sprintf("- %s\n", q))
	}
	if len(skipped) == 0 {
		buf.WriteString("_None_\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts an ImportRun to plain text format
func ExportToText(run *models.ImportRun) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", run.Playlist.Name))
	buf.WriteString(fmt.Sprintf("Provider: %s\n", run.Provider))
	if run.Playlist.URL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", run.Playlist.URL))
	}
	buf.WriteString(fmt.Sprintf("Added: %d\n", run.Added()))
	buf.WriteString(fmt.Sprintf("Skipped: %d\n\n", len(run.Skipped())))

	for i, o := range run.Outcomes {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, o.Kind, o.Request))
	}

	if skipped := run.Skipped(); len(skipped) > 0 {
		buf.WriteString(fmt.Sprintf("\nSkipped songs: %s\n", skipped))
	}

	return buf.Bytes(), nil
}

type outcomeDocument struct {
	models.Outcome
	Kind string `json:"kind"`
}

type runDocument struct {
	ID          string                `json:"id,omitempty"`
	Sequence    int                   `json:"sequence,omitempty"`
	Provider    string                `json:"provider"`
	SheetPath   string                `json:"sheet_path,omitempty"`
	Playlist    models.PlaylistHandle `json:"playlist"`
	Added       int                   `json:"added"`
	Skipped     models.SkippedReport  `json:"skipped"`
	Outcomes    []outcomeDocument     `json:"outcomes"`
	StartedAt   time.Time             `json:"started_at"`
	CompletedAt time.Time             `json:"completed_at"`
}

// ExportToJSON converts an ImportRun to indented JSON
func ExportToJSON(run *models.ImportRun) ([]byte, error) {
	doc := runDocument{
		ID:          run.ID(),
		Sequence:    run.Sequence(),
		Provider:    run.Provider,
		SheetPath:   run.SheetPath,
		Playlist:    run.Playlist,
		Added:       run.Added(),
		Skipped:     run.Skipped(),
		Outcomes:    make([]outcomeDocument, len(run.Outcomes)),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
	}
	if doc.Skipped == nil {
		doc.Skipped = models.SkippedReport{}
	}
	for i, o := range run.Outcomes {
		doc.Outcomes[i] = outcomeDocument{Outcome: o, Kind: o.Kind.String()}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ReportFormat returns the lower-cased extension of path when an exporter handles it.
func ReportFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".md", ".markdown", ".txt", ".json":
		return ext, nil
	default:
		return "", fmt.Errorf("%w: unsupported report format %q (use .csv, .md, .txt or .json)", shared.ErrInvalidArgument, filepath.Ext(path))
	}
}

// Export renders run in the format named by the file extension of path.
func Export(run *models.ImportRun, path string) ([]byte, error) {
	ext, err := ReportFormat(path)
	if err != nil {
		return nil, err
	}

	switch ext {
	case ".csv":
		return ExportToCSV(run)
	case ".txt":
		return ExportToText(run)
	case ".json":
		return ExportToJSON(run)
	default:
		return ExportToMarkdown(run)
	}
}

// WriteReport exports run to path, creating parent directories as needed.
func WriteReport(run *models.ImportRun, path string) (string, error) {
	data, err := Export(run, path)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
