package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/playsheet/internal/models"
)

// Operator is the synchronous prompt surface used during an import.
type Operator interface {
	// ShowCandidates returns the index of the chosen candidate, or false when the operator declined or closed the prompt.
	ShowCandidates(ctx context.Context, req models.TrackRequest, query string, candidates []models.Candidate) (int, bool)
	// Confirm asks a yes/no question. Closing the prompt is a no.
	Confirm(ctx context.Context, question string) bool
	// EditText offers an editable copy of initial. The boolean is false when the operator cancelled.
	EditText(ctx context.Context, label, initial string) (string, bool)
	Notify(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// PlaylistSpec describes the playlist to create. Empty fields are prompted for.
type PlaylistSpec struct {
	Name        string
	Description string
	// AskDescription prompts for a description when none is given.
	AskDescription bool
}

// Report is the result of a completed import.
type Report struct {
	Provider    string
	Playlist    models.PlaylistHandle
	Outcomes    []models.Outcome
	StartedAt   time.Time
	CompletedAt time.Time
}

// Added returns the number of items appended to the playlist.
func (r *Report) Added() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == models.Added {
			n++
		}
	}
	return n
}

// Skipped returns the final queries of skipped requests in processing order.
func (r *Report) Skipped() models.SkippedReport {
	report := models.SkippedReport{}
	for _, o := range r.Outcomes {
		if o.Kind == models.Skipped {
			report = append(report, o.Query)
		}
	}
	return report
}

// Record converts the report into a history entry for sheetPath.
func (r *Report) Record(sheetPath string) *models.ImportRun {
	run := models.NewImportRun(r.Provider, sheetPath, r.Playlist, r.Outcomes, r.StartedAt)
	run.CompletedAt = r.CompletedAt
	return run
}
