package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/services"
	"github.com/desertthunder/playsheet/internal/shared"
)

const (
	playlistNameLabel        = "Name of playlist"
	playlistDescriptionLabel = "Description of playlist"
	nothingSkippedMessage    = "No songs were skipped."
)

// ImporterOptions configures an [Importer].
type ImporterOptions struct {
	MaxResults int
	Progress   func(ProgressUpdate)
	Logger     *log.Logger
}

// Importer builds one playlist from a list of track requests.
type Importer struct {
	provider services.Provider
	operator Operator
	resolver *Resolver
	progress func(ProgressUpdate)
	logger   *log.Logger
}

// NewImporter creates an [Importer] writing to provider and prompting operator.
func NewImporter(provider services.Provider, operator Operator, opts ImporterOptions) *Importer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Importer{
		provider: provider,
		operator: operator,
		resolver: NewResolver(provider, operator, opts.MaxResults, logger),
		progress: opts.Progress,
		logger:   logger,
	}
}

// Run creates the playlist described by spec and resolves every request in order.
//
// A cancelled name or description prompt returns [shared.ErrCancelled] before any remote call.
// A failed playlist creation returns the provider error, classified as [shared.ErrWrite].
// If ctx is cancelled the partial report is returned together with [shared.ErrCancelled]. A request whose
// resolution was interrupted before its item was added has no outcome in that report.
func (im *Importer) Run(ctx context.Context, requests []models.TrackRequest, spec PlaylistSpec) (*Report, error) {
	if len(requests) == 0 {
		return nil, shared.NewOpError("import", shared.ErrInvalidInput, fmt.Errorf("no track requests"))
	}

	name, ok := im.ask(ctx, spec.Name, playlistNameLabel)
	if !ok {
		return nil, shared.NewOpError("import", shared.ErrCancelled, fmt.Errorf("no playlist name"))
	}

	description := strings.TrimSpace(spec.Description)
	if spec.AskDescription {
		if description, ok = im.ask(ctx, description, playlistDescriptionLabel); !ok {
			return nil, shared.NewOpError("import", shared.ErrCancelled, fmt.Errorf("no playlist description"))
		}
	}

	report := &Report{Provider: im.provider.Name(), StartedAt: time.Now()}

	im.emit(createPlaylistUpdate(name))
	playlist, err := im.provider.CreatePlaylist(ctx, name, description)
	if err != nil {
		return nil, err
	}
	report.Playlist = *playlist
	im.emit(createdPlaylistUpdate(playlist))

	total := len(requests)
	report.Outcomes = make([]models.Outcome, 0, total)
	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			report.CompletedAt = time.Now()
			return report, shared.NewOpError("import", shared.ErrCancelled, err)
		}

		im.emit(resolveTrackUpdate(i+1, total, req))
		outcome := im.resolver.Resolve(ctx, playlist.ID, req)
		if err := ctx.Err(); err != nil && outcome.Kind != models.Added {
			im.logger.Info("resolution interrupted", "row", req.Row, "query", outcome.Query)
			report.CompletedAt = time.Now()
			return report, shared.NewOpError("import", shared.ErrCancelled, err)
		}
		report.Outcomes = append(report.Outcomes, outcome)
		im.emit(resolvedTrackUpdate(i+1, total, outcome))
	}
	report.CompletedAt = time.Now()

	im.operator.Notify(ctx, fmt.Sprintf("Playlist '%s' successfully created.", playlist.Name))
	if skipped := report.Skipped(); len(skipped) == 0 {
		im.operator.Notify(ctx, nothingSkippedMessage)
	} else {
		im.operator.Notify(ctx, "Skipped songs: "+skipped.String())
	}

	im.emit(summarizeUpdate(report))
	im.logger.Info("import finished", "playlist", playlist.ID, "added", report.Added(), "skipped", len(report.Skipped()))
	return report, nil
}

// ask returns value when set, otherwise prompts for it. Cancelled or blank answers report false.
func (im *Importer) ask(ctx context.Context, value, label string) (string, bool) {
	if value = strings.TrimSpace(value); value != "" {
		return value, true
	}

	answer, ok := im.operator.EditText(ctx, label, "")
	answer = strings.TrimSpace(answer)
	if !ok || answer == "" {
		return "", false
	}
	return answer, true
}

func (im *Importer) emit(update ProgressUpdate) {
	if im.progress != nil {
		im.progress(update)
	}
}
