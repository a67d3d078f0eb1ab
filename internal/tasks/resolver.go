package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/services"
)

const (
	searchAgainQuestion = "No valid match found for %s. Do you want to search again?"
	searchQueryLabel    = "Search query"
)

// Resolver runs the search, present, retry loop for one track request at a time.
type Resolver struct {
	provider   services.Provider
	operator   Operator
	maxResults int
	logger     *log.Logger
}

// NewResolver creates a [Resolver]. maxResults of zero or less uses [services.DefaultMaxResults].
func NewResolver(provider services.Provider, operator Operator, maxResults int, logger *log.Logger) *Resolver {
	if maxResults <= 0 {
		maxResults = services.DefaultMaxResults
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{provider: provider, operator: operator, maxResults: maxResults, logger: logger}
}

// Resolve returns the outcome of req. Accepted candidates are appended to playlistID before it returns.
//
// There is no limit on the number of searches; every retry is an explicit operator decision.
func (r *Resolver) Resolve(ctx context.Context, playlistID string, req models.TrackRequest) models.Outcome {
	query := req.Query()

	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return models.SkippedOutcome(req, query, attempt-1)
		}

		r.logger.Debug("searching", "row", req.Row, "query", query, "attempt", attempt)

		candidates, err := r.provider.Search(ctx, query, r.maxResults)
		switch {
		case err != nil:
			r.logger.Warn("search failed", "query", query, "error", err)
			r.operator.Error(ctx, fmt.Sprintf("Search for %q on %s failed: %v", query, r.provider.Name(), err))
		case len(candidates) == 0:
			r.logger.Info("no candidates, skipping", "query", query)
			return models.SkippedOutcome(req, query, attempt)
		default:
			if c, ok := r.choose(ctx, req, query, candidates); ok {
				err := r.provider.AddItem(ctx, playlistID, c.ID)
				if err == nil {
					r.logger.Info("added", "row", req.Row, "item", c.ID, "label", c.Label())
					return models.AddedOutcome(req, c.ID, query, attempt)
				}
				r.logger.Warn("add failed", "item", c.ID, "error", err)
				r.operator.Error(ctx, fmt.Sprintf("Adding %q to the playlist failed: %v", c.Label(), err))
			}
		}

		if !r.operator.Confirm(ctx, fmt.Sprintf(searchAgainQuestion, req)) {
			return models.SkippedOutcome(req, query, attempt)
		}

		edited, ok := r.operator.EditText(ctx, searchQueryLabel, query)
		if !ok {
			return models.SkippedOutcome(req, query, attempt)
		}
		query = edited
	}
}

// choose presents candidates and validates the returned index.
func (r *Resolver) choose(ctx context.Context, req models.TrackRequest, query string, candidates []models.Candidate) (models.Candidate, bool) {
	idx, ok := r.operator.ShowCandidates(ctx, req, query, candidates)
	if !ok || idx < 0 || idx >= len(candidates) {
		return models.Candidate{}, false
	}
	return candidates[idx], true
}
