package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/playsheet/internal/server"
	"github.com/desertthunder/playsheet/internal/services"
	"github.com/desertthunder/playsheet/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

var providerNames = []string{services.SpotifyName, services.YouTubeName}

// parseProvider maps a flag value to a provider display name.
func parseProvider(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "spotify", "spot":
		return services.SpotifyName, nil
	case "youtube", "yt":
		return services.YouTubeName, nil
	case "":
		return "", fmt.Errorf("%w: provider", shared.ErrMissingArgument)
	default:
		return "", fmt.Errorf("%w: unknown provider %q (use spotify or youtube)", shared.ErrInvalidArgument, name)
	}
}

// Auth runs the consent flow for a provider even when a token is already stored.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	name, err := parseProvider(cmd.StringArg("provider"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd, true)
	if err != nil {
		return err
	}

	session, err := r.newSession(config, name)
	if err != nil {
		return err
	}

	r.logger.Info("starting authorization", "provider", name)
	if err := session.Authorize(ctx, r.consentFunc(config)); err != nil {
		return err
	}

	return r.writePlain("✓ Authenticated with %s\n", name)
}

// newSession builds the OAuth session of a provider from config.
func (r *Runner) newSession(config *shared.Config, name string) (*services.Session, error) {
	var (
		oauthConfig *oauth2.Config
		tokenPath   string
		err         error
	)

	switch name {
	case services.SpotifyName:
		oauthConfig, err = services.NewSpotifyConfig(config.Credentials.Spotify)
		tokenPath = config.Credentials.Spotify.TokenPath
	case services.YouTubeName:
		oauthConfig, err = services.NewYouTubeConfig(config.Credentials.YouTube)
		tokenPath = config.Credentials.YouTube.TokenPath
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", shared.ErrInvalidArgument, name)
	}
	if err != nil {
		return nil, err
	}

	store := services.FileTokenStore{Path: tokenPath}
	return services.NewSession(name, oauthConfig, store, r.logger), nil
}

func (r *Runner) consentFunc(config *shared.Config) services.ConsentFunc {
	if r.consent != nil {
		return r.consent
	}
	return server.NewConsent(config.Server, r.logger).Run
}

// connectProvider logs in (reusing a stored token when possible) and returns the provider client.
func (r *Runner) connectProvider(ctx context.Context, config *shared.Config, name string) (services.Provider, error) {
	session, err := r.newSession(config, name)
	if err != nil {
		return nil, err
	}
	if err := session.Login(ctx, r.consentFunc(config)); err != nil {
		return nil, err
	}

	opts := services.Options{
		Market:        config.Import.Market,
		PrivacyStatus: config.Credentials.YouTube.PrivacyStatus,
		Timeout:       config.Import.Timeout.Duration,
	}

	if name == services.SpotifyName {
		return services.NewSpotifyProvider(ctx, session, opts, r.logger), nil
	}

	provider, err := services.NewYouTubeProvider(ctx, session, opts, r.logger)
	if err != nil {
		return nil, err
	}
	return provider, nil
}
