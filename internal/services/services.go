// package services implements the remote catalog clients used by an import
//
// Spotify, YouTube
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/shared"
)

const (
	// DefaultMaxResults is the number of candidates requested per search.
	DefaultMaxResults = 5
	// MaxSearchResults is the largest page both search APIs accept.
	MaxSearchResults = 50
)

// Provider is a music catalog that can be searched and that owns playlists.
type Provider interface {
	// Name returns the display name of the provider (e.g., "Spotify", "YouTube").
	Name() string

	// Search returns up to maxResults candidates in provider order.
	// An empty slice with a nil error means the search succeeded and found nothing.
	Search(ctx context.Context, query string, maxResults int) ([]models.Candidate, error)

	// CreatePlaylist creates a new playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string) (*models.PlaylistHandle, error)

	// AddItem appends the item to the end of the playlist.
	AddItem(ctx context.Context, playlistID, itemID string) error
}

// Options tune remote calls made by a [Provider].
type Options struct {
	// BaseURL overrides the API endpoint. Empty means the public API.
	BaseURL string
	// Market restricts Spotify searches to a country catalog.
	Market string
	// PrivacyStatus of created YouTube playlists.
	PrivacyStatus string
	// Timeout bounds each remote call. Zero disables the bound.
	Timeout time.Duration
}

// toCandidates maps provider results to candidates, dropping results without an ID and keeping at most limit.
func toCandidates[T any](items []T, limit int, extract func(T) models.Candidate) []models.Candidate {
	candidates := make([]models.Candidate, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(candidates) >= limit {
			break
		}
		c := extract(item)
		if c.ID == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// withTimeout derives a context bounded by d, or returns ctx unchanged when d is zero.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// callError classifies a failed remote call.
func callError(op string, kind, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	return shared.NewOpError(op, kind, err)
}

func clampResults(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxResults
	case n > MaxSearchResults:
		return MaxSearchResults
	}
	return n
}
