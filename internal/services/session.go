package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsheet/internal/shared"
	"golang.org/x/oauth2"
)

// ConsentFunc runs the interactive authorization flow for config and returns the resulting token.
type ConsentFunc func(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)

// TokenStore persists OAuth tokens between runs.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

// FileTokenStore stores a token as JSON at Path.
type FileTokenStore struct {
	Path string
}

// Load returns [shared.ErrNotFound] when no token has been saved yet.
func (s FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(shared.ExpandHome(s.Path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

func (s FileTokenStore) Save(token *oauth2.Token) error {
	path := shared.ExpandHome(s.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Session holds the authorization state of one provider for the lifetime of a run.
type Session struct {
	name   string
	config *oauth2.Config
	store  TokenStore
	token  *oauth2.Token
	logger *log.Logger
}

// NewSession creates a session that has not logged in yet.
func NewSession(name string, config *oauth2.Config, store TokenStore, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{name: name, config: config, store: store, logger: logger}
}

// Login loads the stored token, or runs consent when there is none, and makes sure it is usable.
func (s *Session) Login(ctx context.Context, consent ConsentFunc) error {
	token, err := s.store.Load()
	switch {
	case err == nil:
		s.logger.Debug("loaded stored token", "provider", s.name)
	case errors.Is(err, shared.ErrNotFound):
		s.logger.Info("no stored token, starting authorization", "provider", s.name)
	default:
		s.logger.Warn("ignoring unreadable token", "provider", s.name, "error", err)
	}

	if token == nil {
		return s.Authorize(ctx, consent)
	}

	s.token = token
	return s.EnsureValid(ctx)
}

// Authorize always runs consent and replaces any stored token.
func (s *Session) Authorize(ctx context.Context, consent ConsentFunc) error {
	if consent == nil {
		return shared.NewOpError(s.name+" login", shared.ErrAuth, shared.ErrNotAuthenticated)
	}

	token, err := consent(ctx, s.config)
	if err != nil {
		return shared.NewOpError(s.name+" login", shared.ErrAuth, err)
	}
	if token == nil || token.AccessToken == "" {
		return shared.NewOpError(s.name+" login", shared.ErrAuth, fmt.Errorf("authorization returned no access token"))
	}

	s.token = token
	if err := s.store.Save(token); err != nil {
		return shared.NewOpError(s.name+" login", shared.ErrAuth, err)
	}
	return nil
}

// EnsureValid refreshes the access token when it has expired and a refresh token is available.
func (s *Session) EnsureValid(ctx context.Context) error {
	if s.token == nil {
		return shared.NewOpError(s.name+" refresh", shared.ErrAuth, shared.ErrNotAuthenticated)
	}
	if s.token.Valid() {
		return nil
	}
	if s.token.RefreshToken == "" {
		return shared.NewOpError(s.name+" refresh", shared.ErrAuth, shared.ErrNoRefreshToken)
	}

	s.logger.Debug("refreshing access token", "provider", s.name)

	token, err := s.config.TokenSource(ctx, s.token).Token()
	if err != nil {
		return shared.NewOpError(s.name+" refresh", shared.ErrAuth, err)
	}

	s.token = token
	if err := s.store.Save(token); err != nil {
		s.logger.Warn("failed to persist refreshed token", "provider", s.name, "error", err)
	}
	return nil
}

// Token implements [oauth2.TokenSource] with the current token.
func (s *Session) Token() (*oauth2.Token, error) {
	if s.token == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.token, nil
}

// Client returns an HTTP client authorizing every request with the current token.
//
// An [*http.Client] stored in ctx under [oauth2.HTTPClient] supplies the base transport.
func (s *Session) Client(ctx context.Context) *http.Client {
	var base http.RoundTripper
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		base = c.Transport
	}
	return &http.Client{Transport: &oauth2.Transport{Source: s, Base: base}}
}

// Name returns the provider name the session belongs to.
func (s *Session) Name() string {
	return s.name
}
