// Spotify Web API implementation of [Provider]
package services

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const SpotifyName = "Spotify"

// NewSpotifyConfig builds the OAuth configuration for the Spotify accounts service.
func NewSpotifyConfig(cfg shared.SpotifyConfig) (*oauth2.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	}, nil
}

// SpotifyProvider searches the Spotify catalog and writes playlists of the authenticated user.
type SpotifyProvider struct {
	session *Session
	client  *spotify.Client
	opts    Options
	userID  spotify.ID
	logger  *log.Logger
}

// NewSpotifyProvider creates a provider that authorizes through session.
func NewSpotifyProvider(ctx context.Context, session *Session, opts Options, logger *log.Logger) *SpotifyProvider {
	if logger == nil {
		logger = log.Default()
	}

	var clientOpts []spotify.ClientOption
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		clientOpts = append(clientOpts, spotify.WithBaseURL(base))
	}

	return &SpotifyProvider{
		session: session,
		client:  spotify.New(session.Client(ctx), clientOpts...),
		opts:    opts,
		logger:  shared.WithLogger(logger, "provider", SpotifyName),
	}
}

func (p *SpotifyProvider) Name() string { return SpotifyName }

// Search runs a market-scoped track search.
func (p *SpotifyProvider) Search(ctx context.Context, query string, maxResults int) ([]models.Candidate, error) {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.session.EnsureValid(ctx); err != nil {
		return nil, callError("spotify search", shared.ErrSearch, err)
	}

	limit := clampResults(maxResults)
	searchOpts := []spotify.RequestOption{spotify.Limit(limit)}
	if p.opts.Market != "" {
		searchOpts = append(searchOpts, spotify.Market(p.opts.Market))
	}

	results, err := p.client.Search(ctx, query, spotify.SearchTypeTrack, searchOpts...)
	if err != nil {
		return nil, callError("spotify search", shared.ErrSearch, err)
	}
	if results.Tracks == nil {
		return []models.Candidate{}, nil
	}

	candidates := toCandidates(results.Tracks.Tracks, limit, spotifyCandidate)
	p.logger.Debug("search complete", "query", query, "results", len(candidates))
	return candidates, nil
}

// CreatePlaylist creates a public, non-collaborative playlist for the current user.
func (p *SpotifyProvider) CreatePlaylist(ctx context.Context, name, description string) (*models.PlaylistHandle, error) {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.session.EnsureValid(ctx); err != nil {
		return nil, callError("spotify create playlist", shared.ErrWrite, err)
	}

	if p.userID == "" {
		user, err := p.client.CurrentUser(ctx)
		if err != nil {
			return nil, callError("spotify current user", shared.ErrWrite, err)
		}
		p.userID = spotify.ID(user.ID)
	}

	playlist, err := p.client.CreatePlaylistForUser(ctx, string(p.userID), name, description, true, false)
	if err != nil {
		return nil, callError("spotify create playlist", shared.ErrWrite, err)
	}

	p.logger.Info("created playlist", "id", playlist.ID, "name", playlist.Name)
	return &models.PlaylistHandle{
		ID:   string(playlist.ID),
		Name: playlist.Name,
		URL:  playlist.ExternalURLs["spotify"],
	}, nil
}

// AddItem appends a track to the playlist.
func (p *SpotifyProvider) AddItem(ctx context.Context, playlistID, itemID string) error {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.session.EnsureValid(ctx); err != nil {
		return callError("spotify add track", shared.ErrWrite, err)
	}

	if _, err := p.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), spotify.ID(itemID)); err != nil {
		return callError("spotify add track", shared.ErrWrite, err)
	}

	p.logger.Debug("added track", "playlist", playlistID, "track", itemID)
	return nil
}

// spotifyCandidate prefers the second album image, which is the medium size Spotify returns.
func spotifyCandidate(t spotify.FullTrack) models.Candidate {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}

	var thumbnail string
	switch images := t.Album.Images; {
	case len(images) > 1:
		thumbnail = images[1].URL
	case len(images) == 1:
		thumbnail = images[0].URL
	}

	return models.Candidate{
		ID:           string(t.ID),
		URI:          string(t.URI),
		Title:        t.Name,
		Subtitle:     strings.Join(artists, ", "),
		ThumbnailURL: thumbnail,
	}
}
