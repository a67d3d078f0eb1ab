package tasks

import (
	"fmt"

	"github.com/desertthunder/playsheet/internal/models"
)

// ProgressUpdate represents a progress event during an import.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Import phase enumeration
type Phase int

const (
	CreatePlaylist Phase = iota
	ResolveTrack
	Summarize
)

func (p Phase) String() string {
	switch p {
	case CreatePlaylist:
		return "create_playlist"
	case ResolveTrack:
		return "resolve_track"
	case Summarize:
		return "summarize"
	default:
		return ""
	}
}

func createPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func createdPlaylistUpdate(pl *models.PlaylistHandle) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func resolveTrackUpdate(step, total int, req models.TrackRequest) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, req),
	}
}

func resolvedTrackUpdate(step, total int, outcome models.Outcome) ProgressUpdate {
	mark := "✗"
	if outcome.Kind == models.Added {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   ResolveTrack,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, outcome.Request),
		Data:    outcome,
	}
}

func summarizeUpdate(report *Report) ProgressUpdate {
	total := len(report.Outcomes)
	return ProgressUpdate{
		Phase:   Summarize,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("%d added, %d skipped", report.Added(), len(report.Skipped())),
		Data:    report,
	}
}
