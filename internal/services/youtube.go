// YouTube Data API v3 implementation of [Provider]
package services

import (
	"context"
	"fmt"
	"html"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/models"
	"github.com/desertthunder/playsheet/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	YouTubeName = "YouTube"

	youtubeVideoKind     = "youtube#video"
	youtubePlaylistURL   = "https://www.youtube.com/playlist?list="
	defaultPrivacyStatus = "public"
)

// NewYouTubeConfig builds the OAuth configuration from the Google client-secrets document.
func NewYouTubeConfig(cfg shared.YouTubeConfig) (*oauth2.Config, error) {
	data, err := cfg.ReadClientSecrets()
	if err != nil {
		return nil, err
	}

	config, err := google.ConfigFromJSON(data, cfg.Scope)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid client secrets %s: %v", shared.ErrConfig, cfg.ClientSecretsPath, err)
	}
	return config, nil
}

// YouTubeProvider searches YouTube videos and writes playlists of the authenticated channel.
type YouTubeProvider struct {
	session *Session
	service *youtube.Service
	opts    Options
	logger  *log.Logger
}

// NewYouTubeProvider creates a provider that authorizes through session.
func NewYouTubeProvider(ctx context.Context, session *Session, opts Options, logger *log.Logger) (*YouTubeProvider, error) {
	if logger == nil {
		logger = log.Default()
	}
	if opts.PrivacyStatus == "" {
		opts.PrivacyStatus = defaultPrivacyStatus
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(session.Client(ctx))}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.BaseURL))
	}

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, shared.NewOpError("youtube client", shared.ErrConfig, err)
	}

	return &YouTubeProvider{
		session: session,
		service: service,
		opts:    opts,
		logger:  shared.WithLogger(logger, "provider", YouTubeName),
	}, nil
}

func (p *YouTubeProvider) Name() string { return YouTubeName }

// Search runs a video search.
func (p *YouTubeProvider) Search(ctx context.Context, query string, maxResults int) ([]models.Candidate, error) {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.session.EnsureValid(ctx); err != nil {
		return nil, callError("youtube search", shared.ErrSearch, err)
	}

	limit := clampResults(maxResults)
	resp, err := p.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, callError("youtube search", shared.ErrSearch, err)
	}

	candidates := toCandidates(resp.Items, limit, youtubeCandidate)
	p.logger.Debug("search complete", "query", query, "results", len(candidates))
	return candidates, nil
}

// CreatePlaylist creates a playlist with the configured privacy status.
func (p *YouTubeProvider) CreatePlaylist(ctx context.Context, name, description string) (*models.PlaylistHandle, error) {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.session.EnsureValid(ctx); err != nil {
		return nil, callError("youtube create playlist", shared.ErrWrite, err)
	}

	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{Title: name, Description: description},
		Status:  &youtube.PlaylistStatus{PrivacyStatus: p.opts.PrivacyStatus},
	}

	created, err := p.service.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
	if err != nil {
		return nil, callError("youtube create playlist", shared.ErrWrite, err)
	}

	title := name
	if created.Snippet != nil && created.Snippet.Title != "" {
		title = created.Snippet.Title
	}

	p.logger.Info("created playlist", "id", created.Id, "name", title)
	return &models.PlaylistHandle{ID: created.Id, Name: title, URL: youtubePlaylistURL + created.Id}, nil
}

// AddItem appends a video to the playlist.
func (p *YouTubeProvider) AddItem(ctx context.Context, playlistID, itemID string) error {
	ctx, cancel := withTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.session.EnsureValid(ctx); err != nil {
		return callError("youtube add video", shared.ErrWrite, err)
	}

	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{Kind: youtubeVideoKind, VideoId: itemID},
		},
	}

	if _, err := p.service.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return callError("youtube add video", shared.ErrWrite, err)
	}

	p.logger.Debug("added video", "playlist", playlistID, "video", itemID)
	return nil
}

// youtubeCandidate unescapes titles, which the search endpoint returns HTML-encoded.
func youtubeCandidate(r *youtube.SearchResult) models.Candidate {
	if r == nil || r.Id == nil || r.Snippet == nil {
		return models.Candidate{}
	}

	var thumbnail string
	if t := r.Snippet.Thumbnails; t != nil {
		switch {
		case t.High != nil:
			thumbnail = t.High.Url
		case t.Default != nil:
			thumbnail = t.Default.Url
		}
	}

	return models.Candidate{
		ID:           r.Id.VideoId,
		URI:          "https://www.youtube.com/watch?v=" + r.Id.VideoId,
		Title:        html.UnescapeString(r.Snippet.Title),
		Subtitle:     html.UnescapeString(r.Snippet.ChannelTitle),
		ThumbnailURL: thumbnail,
	}
}
