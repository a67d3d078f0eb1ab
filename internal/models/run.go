package models

import (
	"fmt"
	"time"
)

// ImportRun is the persisted record of a finished import.
type ImportRun struct {
	id          string
	sequence    int
	Provider    string
	SheetPath   string
	Playlist    PlaylistHandle
	Outcomes    []Outcome
	StartedAt   time.Time
	CompletedAt time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

// NewImportRun creates an ImportRun with timestamps set to now. The ID is assigned by the repository.
func NewImportRun(provider, sheetPath string, playlist PlaylistHandle, outcomes []Outcome, startedAt time.Time) *ImportRun {
	now := time.Now()
	return &ImportRun{
		Provider:    provider,
		SheetPath:   sheetPath,
		Playlist:    playlist,
		Outcomes:    outcomes,
		StartedAt:   startedAt,
		CompletedAt: now,
		createdAt:   now,
		updatedAt:   now,
	}
}

// RestoreImportRun rebuilds a run loaded from storage.
func RestoreImportRun(id string, sequence int, createdAt, updatedAt time.Time) *ImportRun {
	return &ImportRun{id: id, sequence: sequence, createdAt: createdAt, updatedAt: updatedAt}
}

func (r *ImportRun) ID() string           { return r.id }
func (r *ImportRun) Sequence() int        { return r.sequence }
func (r *ImportRun) CreatedAt() time.Time { return r.createdAt }
func (r *ImportRun) UpdatedAt() time.Time { return r.updatedAt }

func (r *ImportRun) SetID(id string)          { r.id = id }
func (r *ImportRun) SetSequence(n int)        { r.sequence = n }
func (r *ImportRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Validate checks required fields.
func (r *ImportRun) Validate() error {
	if r.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if r.Playlist.ID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if r.CompletedAt.Before(r.StartedAt) {
		return fmt.Errorf("completed_at is before started_at")
	}
	return nil
}

// Added returns the number of added outcomes.
func (r *ImportRun) Added() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == Added {
			n++
		}
	}
	return n
}

// Skipped returns the skipped report of the run.
func (r *ImportRun) Skipped() SkippedReport {
	var report SkippedReport
	for _, o := range r.Outcomes {
		if o.Kind == Skipped {
			report = append(report, o.Query)
		}
	}
	return report
}
